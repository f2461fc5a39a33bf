package rtps

import (
	"fmt"
)

// comparable
type VendorId [2]byte

var VendorIdUnknown = VendorId{0x00, 0x00}

var vendorNames = map[VendorId]string{
	{0x01, 0x01}: "RTI Connext",
	{0x01, 0x02}: "PrismTech OpenSplice",
	{0x01, 0x03}: "OCI OpenDDS",
	{0x01, 0x04}: "MilSoft",
	{0x01, 0x05}: "Gallium InterCOM",
	{0x01, 0x06}: "TwinOaks CoreDX",
	{0x01, 0x07}: "Lakota Technical Systems",
	{0x01, 0x08}: "ICOUP Consulting",
	{0x01, 0x09}: "ETRI",
	{0x01, 0x0a}: "RTI Connext Micro",
	{0x01, 0x0b}: "PrismTech Vortex Cafe",
	{0x01, 0x0c}: "PrismTech Vortex Gateway",
	{0x01, 0x0d}: "PrismTech Vortex Lite",
	{0x01, 0x0e}: "Technicolor Qeo",
	{0x01, 0x0f}: "eProsima",
	{0x01, 0x20}: "PrismTech Vortex Cloud",
}

func (self VendorId) Name() (string, bool) {
	name, ok := vendorNames[self]
	return name, ok
}

func (self VendorId) String() string {
	if name, ok := self.Name(); ok {
		return fmt.Sprintf("%s (%x)", name, self[:])
	}
	return fmt.Sprintf("%x", self[:])
}

func (self VendorId) EncodeCdr(w *CdrWriter) {
	w.WriteBytes(self[:])
}

func (self *VendorId) DecodeCdr(r *CdrReader) error {
	offset := r.Offset()
	if err := r.ReadInto(self[:]); err != nil {
		return decodeError("vendor_id", offset, err)
	}
	return nil
}

type ProtocolVersion struct {
	Major uint16
	Minor uint16
}

// the latest version this codec speaks
var ProtocolVersionLatest = ProtocolVersion{Major: 2, Minor: 5}

func (self ProtocolVersion) String() string {
	return fmt.Sprintf("%d.%d", self.Major, self.Minor)
}

func (self ProtocolVersion) Less(other ProtocolVersion) bool {
	if self.Major != other.Major {
		return self.Major < other.Major
	}
	return self.Minor < other.Minor
}

func (self ProtocolVersion) EncodeCdr(w *CdrWriter) {
	w.WriteUint16(self.Major)
	w.WriteUint16(self.Minor)
}

func (self *ProtocolVersion) DecodeCdr(r *CdrReader) error {
	offset := r.Offset()
	major, err := r.ReadUint16()
	if err != nil {
		return decodeError("protocol_version", offset, err)
	}
	minor, err := r.ReadUint16()
	if err != nil {
		return decodeError("protocol_version", offset, err)
	}
	self.Major = major
	self.Minor = minor
	return nil
}

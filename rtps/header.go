package rtps

import (
	"bytes"
	"fmt"
)

var protocolId = []byte("RTPS")

// `RTPS`, version major u16, version minor u16, vendor id, guid prefix
const HeaderLen = 4 + 4 + 2 + GuidPrefixLen

// The header is always big endian. It identifies the sending participant.
type Header struct {
	ProtocolVersion ProtocolVersion
	VendorId        VendorId
	GuidPrefix      GuidPrefix
}

func NewHeader(guidPrefix GuidPrefix, vendorId VendorId) Header {
	return Header{
		ProtocolVersion: ProtocolVersionLatest,
		VendorId:        vendorId,
		GuidPrefix:      guidPrefix,
	}
}

func (self Header) String() string {
	return fmt.Sprintf("RTPS %s vendor=%s prefix=%s", self.ProtocolVersion, self.VendorId, self.GuidPrefix)
}

// the writer must be big endian
func (self Header) EncodeCdr(w *CdrWriter) {
	w.WriteBytes(protocolId)
	self.ProtocolVersion.EncodeCdr(w)
	self.VendorId.EncodeCdr(w)
	self.GuidPrefix.EncodeCdr(w)
}

func (self *Header) DecodeCdr(r *CdrReader) error {
	offset := r.Offset()
	id, err := r.ReadBytes(len(protocolId))
	if err != nil {
		return decodeError("header", offset, err)
	}
	if !bytes.Equal(id, protocolId) {
		return decodeError("header", offset, fmt.Errorf("%w: %q", ErrBadProtocolId, id))
	}
	var header Header
	if err := header.ProtocolVersion.DecodeCdr(r); err != nil {
		return err
	}
	if err := header.VendorId.DecodeCdr(r); err != nil {
		return err
	}
	if err := header.GuidPrefix.DecodeCdr(r); err != nil {
		return err
	}
	*self = header
	return nil
}

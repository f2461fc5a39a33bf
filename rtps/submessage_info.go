package rtps

import (
	"fmt"
)

const (
	InfoTimestampFlagInvalidate uint8 = 0x02
	InfoReplyFlagMulticast      uint8 = 0x02
)

// InfoTimestamp sets the source timestamp for the following submessages.
// With `Invalidate` the body is empty and later submessages have no timestamp.
type InfoTimestamp struct {
	Timestamp  Time
	Invalidate bool
}

func (self *InfoTimestamp) Kind() SubMessageKind {
	return SubMessageKindInfoTimestamp
}

func (self *InfoTimestamp) Flags() uint8 {
	if self.Invalidate {
		return InfoTimestampFlagInvalidate
	}
	return 0
}

func (self *InfoTimestamp) String() string {
	if self.Invalidate {
		return "info_ts(invalidate)"
	}
	return fmt.Sprintf("info_ts(%s)", self.Timestamp)
}

func (self *InfoTimestamp) EncodeCdr(w *CdrWriter) {
	if !self.Invalidate {
		self.Timestamp.EncodeCdr(w)
	}
}

func (self *InfoTimestamp) decode(flags uint8, r *CdrReader) error {
	self.Invalidate = flags&InfoTimestampFlagInvalidate != 0
	if self.Invalidate {
		return nil
	}
	return self.Timestamp.DecodeCdr(r)
}

// InfoSource replaces the source participant of the following submessages.
type InfoSource struct {
	ProtocolVersion ProtocolVersion
	VendorId        VendorId
	GuidPrefix      GuidPrefix
}

func (self *InfoSource) Kind() SubMessageKind {
	return SubMessageKindInfoSource
}

func (self *InfoSource) Flags() uint8 {
	return 0
}

func (self *InfoSource) String() string {
	return fmt.Sprintf("info_src(%s %s %s)", self.ProtocolVersion, self.VendorId, self.GuidPrefix)
}

func (self *InfoSource) EncodeCdr(w *CdrWriter) {
	// unused
	w.WriteUint32(0)
	self.ProtocolVersion.EncodeCdr(w)
	self.VendorId.EncodeCdr(w)
	self.GuidPrefix.EncodeCdr(w)
}

func (self *InfoSource) decode(flags uint8, r *CdrReader) error {
	offset := r.Offset()
	if err := r.Skip(4); err != nil {
		return decodeError("info_src", offset, err)
	}
	if err := self.ProtocolVersion.DecodeCdr(r); err != nil {
		return err
	}
	if err := self.VendorId.DecodeCdr(r); err != nil {
		return err
	}
	return self.GuidPrefix.DecodeCdr(r)
}

// InfoDestination names the participant the following submessages are for.
// The unknown prefix means every participant.
type InfoDestination struct {
	GuidPrefix GuidPrefix
}

func (self *InfoDestination) Kind() SubMessageKind {
	return SubMessageKindInfoDestination
}

func (self *InfoDestination) Flags() uint8 {
	return 0
}

func (self *InfoDestination) String() string {
	return fmt.Sprintf("info_dst(%s)", self.GuidPrefix)
}

func (self *InfoDestination) EncodeCdr(w *CdrWriter) {
	self.GuidPrefix.EncodeCdr(w)
}

func (self *InfoDestination) decode(flags uint8, r *CdrReader) error {
	return self.GuidPrefix.DecodeCdr(r)
}

// InfoReply sets where replies to the following submessages go.
type InfoReply struct {
	UnicastLocators []Locator
	// nil means no multicast list on the wire
	MulticastLocators []Locator
}

func (self *InfoReply) Kind() SubMessageKind {
	return SubMessageKindInfoReply
}

func (self *InfoReply) Flags() uint8 {
	if self.MulticastLocators != nil {
		return InfoReplyFlagMulticast
	}
	return 0
}

func (self *InfoReply) validate() error {
	return validateLocatorList(append(append([]Locator{}, self.UnicastLocators...), self.MulticastLocators...))
}

func (self *InfoReply) String() string {
	return fmt.Sprintf("info_reply(%v %v)", self.UnicastLocators, self.MulticastLocators)
}

func (self *InfoReply) EncodeCdr(w *CdrWriter) {
	encodeLocatorList(w, self.UnicastLocators)
	if self.MulticastLocators != nil {
		encodeLocatorList(w, self.MulticastLocators)
	}
}

func (self *InfoReply) decode(flags uint8, r *CdrReader) error {
	unicastLocators, err := decodeLocatorList(r)
	if err != nil {
		return err
	}
	self.UnicastLocators = unicastLocators
	if flags&InfoReplyFlagMulticast != 0 {
		multicastLocators, err := decodeLocatorList(r)
		if err != nil {
			return err
		}
		self.MulticastLocators = multicastLocators
	}
	return nil
}

// Pad is `Size` zero bytes, used for alignment.
type Pad struct {
	Size int
}

func (self *Pad) Kind() SubMessageKind {
	return SubMessageKindPad
}

func (self *Pad) Flags() uint8 {
	return 0
}

func (self *Pad) String() string {
	return fmt.Sprintf("pad(%d)", self.Size)
}

func (self *Pad) EncodeCdr(w *CdrWriter) {
	w.WriteZeros(self.Size)
}

func (self *Pad) decode(flags uint8, r *CdrReader) error {
	self.Size = r.Remaining()
	return r.Skip(self.Size)
}

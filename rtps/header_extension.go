package rtps

import (
	"fmt"
)

const (
	HeaderExtensionFlagLength     uint8 = 0x02
	HeaderExtensionFlagTimestamp  uint8 = 0x04
	HeaderExtensionFlagUExtension uint8 = 0x08
	HeaderExtensionFlagWExtension uint8 = 0x10
	// two bits. 01 is 4 bytes, 10 is 8 bytes, 11 is 16 bytes.
	HeaderExtensionFlagChecksum   uint8 = 0x60
	HeaderExtensionFlagParameters uint8 = 0x80
)

var checksumLenFlags = map[int]uint8{
	0:  0x00,
	4:  0x20,
	8:  0x40,
	16: 0x60,
}

// HeaderExtension follows the header as a submessage of kind 0x00.
// Every field is optional. Fields are on the wire in declaration order.
type HeaderExtension struct {
	MessageLength *uint32
	Timestamp     *Time
	UExtension4   *[4]byte
	WExtension8   *[8]byte
	// empty, or 4, 8 or 16 bytes
	Checksum []byte
	// nil means no parameters
	Parameters ParameterList
}

func (self *HeaderExtension) validate() error {
	if _, ok := checksumLenFlags[len(self.Checksum)]; !ok {
		return fmt.Errorf("%w: checksum must be 4, 8 or 16 bytes: %d", ErrMalformed, len(self.Checksum))
	}
	return self.Parameters.validate()
}

func (self *HeaderExtension) Kind() SubMessageKind {
	return SubMessageKindHeaderExtension
}

func (self *HeaderExtension) Flags() uint8 {
	var flags uint8
	if self.MessageLength != nil {
		flags |= HeaderExtensionFlagLength
	}
	if self.Timestamp != nil {
		flags |= HeaderExtensionFlagTimestamp
	}
	if self.UExtension4 != nil {
		flags |= HeaderExtensionFlagUExtension
	}
	if self.WExtension8 != nil {
		flags |= HeaderExtensionFlagWExtension
	}
	flags |= checksumLenFlags[len(self.Checksum)]
	if self.Parameters != nil {
		flags |= HeaderExtensionFlagParameters
	}
	return flags
}

func (self *HeaderExtension) String() string {
	return fmt.Sprintf("header_extension(flags=%02x)", self.Flags())
}

func (self *HeaderExtension) EncodeCdr(w *CdrWriter) {
	if self.MessageLength != nil {
		w.WriteUint32(*self.MessageLength)
	}
	if self.Timestamp != nil {
		self.Timestamp.EncodeCdr(w)
	}
	if self.UExtension4 != nil {
		w.WriteBytes(self.UExtension4[:])
	}
	if self.WExtension8 != nil {
		w.WriteBytes(self.WExtension8[:])
	}
	if _, ok := checksumLenFlags[len(self.Checksum)]; ok {
		w.WriteBytes(self.Checksum)
	}
	if self.Parameters != nil {
		self.Parameters.EncodeCdr(w)
	}
}

func (self *HeaderExtension) decode(flags uint8, r *CdrReader) error {
	var extension HeaderExtension
	offset := r.Offset()
	if flags&HeaderExtensionFlagLength != 0 {
		messageLength, err := r.ReadUint32()
		if err != nil {
			return decodeError("header_extension.message_length", offset, err)
		}
		extension.MessageLength = &messageLength
	}
	if flags&HeaderExtensionFlagTimestamp != 0 {
		var timestamp Time
		if err := timestamp.DecodeCdr(r); err != nil {
			return err
		}
		extension.Timestamp = &timestamp
	}
	if flags&HeaderExtensionFlagUExtension != 0 {
		var uExtension4 [4]byte
		offset = r.Offset()
		if err := r.ReadInto(uExtension4[:]); err != nil {
			return decodeError("header_extension.u_extension", offset, err)
		}
		extension.UExtension4 = &uExtension4
	}
	if flags&HeaderExtensionFlagWExtension != 0 {
		var wExtension8 [8]byte
		offset = r.Offset()
		if err := r.ReadInto(wExtension8[:]); err != nil {
			return decodeError("header_extension.w_extension", offset, err)
		}
		extension.WExtension8 = &wExtension8
	}
	checksumLen := 0
	switch flags & HeaderExtensionFlagChecksum {
	case 0x20:
		checksumLen = 4
	case 0x40:
		checksumLen = 8
	case 0x60:
		checksumLen = 16
	}
	if 0 < checksumLen {
		offset = r.Offset()
		checksum, err := r.ReadBytes(checksumLen)
		if err != nil {
			return decodeError("header_extension.checksum", offset, err)
		}
		extension.Checksum = checksum
	}
	if flags&HeaderExtensionFlagParameters != 0 {
		if err := extension.Parameters.DecodeCdr(r); err != nil {
			return err
		}
	}
	*self = extension
	return nil
}

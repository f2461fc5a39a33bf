package rtps

import (
	"fmt"
)

type SubMessageKind uint8

const (
	SubMessageKindHeaderExtension SubMessageKind = 0x00
	SubMessageKindPad             SubMessageKind = 0x01
	SubMessageKindAckNack         SubMessageKind = 0x06
	SubMessageKindHeartbeat       SubMessageKind = 0x07
	SubMessageKindGap             SubMessageKind = 0x08
	SubMessageKindInfoTimestamp   SubMessageKind = 0x09
	SubMessageKindInfoSource      SubMessageKind = 0x0c
	SubMessageKindInfoDestination SubMessageKind = 0x0e
	SubMessageKindInfoReply       SubMessageKind = 0x0f
	SubMessageKindNackFrag        SubMessageKind = 0x12
	SubMessageKindHeartbeatFrag   SubMessageKind = 0x13
	SubMessageKindData            SubMessageKind = 0x15
	SubMessageKindDataFrag        SubMessageKind = 0x16
)

// kinds from 0x80 are reserved for vendors
const subMessageKindVendorMin SubMessageKind = 0x80

func (self SubMessageKind) IsVendor() bool {
	return subMessageKindVendorMin <= self
}

// interpreter submessages change the receiver state. all others are entity submessages.
func (self SubMessageKind) IsInterpreter() bool {
	switch self {
	case SubMessageKindHeaderExtension,
		SubMessageKindPad,
		SubMessageKindInfoTimestamp,
		SubMessageKindInfoSource,
		SubMessageKindInfoDestination,
		SubMessageKindInfoReply:
		return true
	default:
		return false
	}
}

func (self SubMessageKind) String() string {
	switch self {
	case SubMessageKindHeaderExtension:
		return "HEADER_EXTENSION"
	case SubMessageKindPad:
		return "PAD"
	case SubMessageKindAckNack:
		return "ACKNACK"
	case SubMessageKindHeartbeat:
		return "HEARTBEAT"
	case SubMessageKindGap:
		return "GAP"
	case SubMessageKindInfoTimestamp:
		return "INFO_TS"
	case SubMessageKindInfoSource:
		return "INFO_SRC"
	case SubMessageKindInfoDestination:
		return "INFO_DST"
	case SubMessageKindInfoReply:
		return "INFO_REPLY"
	case SubMessageKindNackFrag:
		return "NACK_FRAG"
	case SubMessageKindHeartbeatFrag:
		return "HEARTBEAT_FRAG"
	case SubMessageKindData:
		return "DATA"
	case SubMessageKindDataFrag:
		return "DATA_FRAG"
	default:
		if self.IsVendor() {
			return fmt.Sprintf("VENDOR(%02x)", uint8(self))
		}
		return fmt.Sprintf("SubMessageKind(%02x)", uint8(self))
	}
}

// kind, flags, length
const SubMessageHeaderLen = 4

// the largest body that fits the 16 bit length
const MaxSubMessageBodyLen = 0xffff

type SubMessageHeader struct {
	Kind  SubMessageKind
	Flags uint8
	// 0 means the submessage runs to the end of the message
	Length uint16
}

func (self SubMessageHeader) IsLast() bool {
	return self.Length == 0
}

// bit 0 of the flags, for every kind
func (self SubMessageHeader) Endianness() ByteOrder {
	return ByteOrderFromFlags(self.Flags)
}

func (self SubMessageHeader) String() string {
	return fmt.Sprintf("%s flags=%02x length=%d", self.Kind, self.Flags, self.Length)
}

// the length is written in the order given by the endianness flag
func (self SubMessageHeader) EncodeCdr(w *CdrWriter) {
	w.WriteUint8(uint8(self.Kind))
	w.WriteUint8(self.Flags)
	w.writeUint16In(self.Endianness(), self.Length)
}

func (self *SubMessageHeader) DecodeCdr(r *CdrReader) error {
	offset := r.Offset()
	kind, err := r.ReadUint8()
	if err != nil {
		return decodeError("submessage_header", offset, err)
	}
	flags, err := r.ReadUint8()
	if err != nil {
		return decodeError("submessage_header", offset, err)
	}
	lengthReader, err := r.Sub(ByteOrderFromFlags(flags), 2)
	if err != nil {
		return decodeError("submessage_header", offset, err)
	}
	length, err := lengthReader.ReadUint16()
	if err != nil {
		return decodeError("submessage_header", offset, err)
	}
	self.Kind = SubMessageKind(kind)
	self.Flags = flags
	self.Length = length
	return nil
}

// One typed body per submessage kind.
// The encoding is in the byte order of the enclosing submessage.
type SubMessageBody interface {
	Kind() SubMessageKind
	// the kind specific flags. the endianness bit is ignored.
	Flags() uint8
	CdrEncoder
}

// bodies decode with the kind specific flags of their header
type subMessageBodyDecoder interface {
	SubMessageBody
	decode(flags uint8, r *CdrReader) error
}

func newSubMessageBodyDecoder(kind SubMessageKind) (subMessageBodyDecoder, error) {
	switch kind {
	case SubMessageKindHeaderExtension:
		return &HeaderExtension{}, nil
	case SubMessageKindPad:
		return &Pad{}, nil
	case SubMessageKindAckNack:
		return &AckNack{}, nil
	case SubMessageKindHeartbeat:
		return &Heartbeat{}, nil
	case SubMessageKindGap:
		return &Gap{}, nil
	case SubMessageKindInfoTimestamp:
		return &InfoTimestamp{}, nil
	case SubMessageKindInfoSource:
		return &InfoSource{}, nil
	case SubMessageKindInfoDestination:
		return &InfoDestination{}, nil
	case SubMessageKindInfoReply:
		return &InfoReply{}, nil
	case SubMessageKindNackFrag:
		return &NackFrag{}, nil
	case SubMessageKindHeartbeatFrag:
		return &HeartbeatFrag{}, nil
	case SubMessageKindData:
		return &Data{}, nil
	case SubMessageKindDataFrag:
		return &DataFrag{}, nil
	default:
		if kind.IsVendor() {
			return &VendorSubMessage{VendorKind: kind}, nil
		}
		return nil, fmt.Errorf("%w: %02x", ErrUnknownSubmessageKind, uint8(kind))
	}
}

// bodies whose values may not be representable on the wire
type subMessageValidator interface {
	validate() error
}

type SubMessage struct {
	Header SubMessageHeader
	Body   SubMessageBody
}

// NewSubMessage derives the header from the body.
// A body longer than `MaxSubMessageBodyLen` gets the length 0 sentinel,
// which is only allowed for the last submessage of a message.
func NewSubMessage(order ByteOrder, body SubMessageBody) SubMessage {
	n := len(EncodeCdr(body, order))
	length := uint16(n)
	if MaxSubMessageBodyLen < n {
		length = 0
	}
	return SubMessage{
		Header: SubMessageHeader{
			Kind:   body.Kind(),
			Flags:  body.Flags()&^FlagEndianness | order.FlagBit(),
			Length: length,
		},
		Body: body,
	}
}

func (self SubMessage) Endianness() ByteOrder {
	return self.Header.Endianness()
}

func (self SubMessage) String() string {
	return fmt.Sprintf("%s %s", self.Header, self.Body)
}

// the header kind must name the body, and the body must be representable
func (self SubMessage) validate() error {
	if self.Body == nil {
		return fmt.Errorf("%w: submessage has no body", ErrMalformed)
	}
	if self.Header.Kind != self.Body.Kind() {
		return fmt.Errorf("%w: header kind %s does not match body kind %s", ErrMalformed, self.Header.Kind, self.Body.Kind())
	}
	if validator, ok := self.Body.(subMessageValidator); ok {
		return validator.validate()
	}
	return nil
}

func (self SubMessage) encodeBody() []byte {
	return EncodeCdr(self.Body, self.Endianness())
}

// The kind, flags and length are taken from the body as it is now.
// Only the endianness bit is kept from the header.
func (self SubMessage) encode(w *CdrWriter, last bool) {
	body := self.encodeBody()
	header := SubMessageHeader{
		Kind:  self.Body.Kind(),
		Flags: self.Body.Flags()&^FlagEndianness | self.Header.Flags&FlagEndianness,
	}
	if last && MaxSubMessageBodyLen < len(body) {
		header.Length = 0
	} else {
		header.Length = uint16(len(body))
	}
	header.EncodeCdr(w)
	w.WriteBytes(body)
}

// decodeSubMessage reads one submessage header and body.
// A zero length takes the rest of the reader.
func decodeSubMessage(r *CdrReader) (SubMessage, error) {
	var header SubMessageHeader
	if err := header.DecodeCdr(r); err != nil {
		return SubMessage{}, err
	}
	offset := r.Offset()
	n := int(header.Length)
	if header.IsLast() {
		n = r.Remaining()
	}
	bodyReader, err := r.Sub(header.Endianness(), n)
	if err != nil {
		return SubMessage{}, decodeError(fmt.Sprintf("%s body", header.Kind), offset, err)
	}
	body, err := newSubMessageBodyDecoder(header.Kind)
	if err != nil {
		return SubMessage{}, decodeError("submessage_header", offset-SubMessageHeaderLen, err)
	}
	if err := body.decode(header.Flags, bodyReader); err != nil {
		return SubMessage{}, decodeError(fmt.Sprintf("%s body", header.Kind), offset, err)
	}
	return SubMessage{
		Header: header,
		Body:   body,
	}, nil
}

// VendorSubMessage carries a vendor specific kind as opaque bytes.
type VendorSubMessage struct {
	VendorKind  SubMessageKind
	VendorFlags uint8
	Bytes       []byte
}

func (self *VendorSubMessage) Kind() SubMessageKind {
	return self.VendorKind
}

func (self *VendorSubMessage) Flags() uint8 {
	return self.VendorFlags
}

func (self *VendorSubMessage) String() string {
	return fmt.Sprintf("vendor(%d bytes)", len(self.Bytes))
}

func (self *VendorSubMessage) EncodeCdr(w *CdrWriter) {
	w.WriteBytes(self.Bytes)
}

func (self *VendorSubMessage) decode(flags uint8, r *CdrReader) error {
	self.VendorFlags = flags &^ FlagEndianness
	self.Bytes = r.ReadRest()
	return nil
}

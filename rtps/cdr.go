package rtps

import (
	"encoding/binary"
	"fmt"
)

// Common Data Representation.
// Every wire element encodes into a `CdrWriter` and decodes from a `CdrReader`.
// The byte order travels with the writer/reader. Elements never store it, since
// for submessage elements it is fixed by the enclosing submessage flags.

type ByteOrder int

const (
	BigEndian ByteOrder = iota
	LittleEndian
)

// the endianness flag occupies bit 0 of every submessage flags byte
const FlagEndianness uint8 = 0x01

func ByteOrderFromFlags(flags uint8) ByteOrder {
	if flags&FlagEndianness != 0 {
		return LittleEndian
	}
	return BigEndian
}

func (self ByteOrder) FlagBit() uint8 {
	if self == LittleEndian {
		return FlagEndianness
	}
	return 0
}

func (self ByteOrder) binary() interface {
	binary.ByteOrder
	binary.AppendByteOrder
} {
	if self == LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

func (self ByteOrder) String() string {
	switch self {
	case BigEndian:
		return "BE"
	case LittleEndian:
		return "LE"
	default:
		return fmt.Sprintf("ByteOrder(%d)", int(self))
	}
}

type CdrEncoder interface {
	// encode cannot fail. values are validated when they are constructed.
	EncodeCdr(w *CdrWriter)
}

type CdrDecoder interface {
	DecodeCdr(r *CdrReader) error
}

func EncodeCdr(encoder CdrEncoder, order ByteOrder) []byte {
	w := NewCdrWriter(order)
	encoder.EncodeCdr(w)
	return w.Bytes()
}

func DecodeCdr(decoder CdrDecoder, order ByteOrder, b []byte) error {
	return decoder.DecodeCdr(NewCdrReader(order, b))
}

type CdrWriter struct {
	order ByteOrder
	b     []byte
}

func NewCdrWriter(order ByteOrder) *CdrWriter {
	return &CdrWriter{
		order: order,
		b:     make([]byte, 0, 64),
	}
}

func (self *CdrWriter) Order() ByteOrder {
	return self.order
}

func (self *CdrWriter) Len() int {
	return len(self.b)
}

func (self *CdrWriter) Bytes() []byte {
	return self.b
}

func (self *CdrWriter) WriteUint8(v uint8) {
	self.b = append(self.b, v)
}

func (self *CdrWriter) WriteUint16(v uint16) {
	self.b = self.order.binary().AppendUint16(self.b, v)
}

// ignores the writer order
func (self *CdrWriter) writeUint16In(order ByteOrder, v uint16) {
	self.b = order.binary().AppendUint16(self.b, v)
}

func (self *CdrWriter) WriteUint32(v uint32) {
	self.b = self.order.binary().AppendUint32(self.b, v)
}

func (self *CdrWriter) WriteInt32(v int32) {
	self.WriteUint32(uint32(v))
}

func (self *CdrWriter) WriteUint64(v uint64) {
	self.b = self.order.binary().AppendUint64(self.b, v)
}

// raw bytes are never swapped
func (self *CdrWriter) WriteBytes(b []byte) {
	self.b = append(self.b, b...)
}

func (self *CdrWriter) WriteZeros(n int) {
	for i := 0; i < n; i += 1 {
		self.b = append(self.b, 0)
	}
}

// a bounded source. every read checks the remaining length first.
type CdrReader struct {
	order ByteOrder
	b     []byte
	i     int
	// offset of b[0] within the outermost buffer, for error reporting
	base int
}

func NewCdrReader(order ByteOrder, b []byte) *CdrReader {
	return &CdrReader{
		order: order,
		b:     b,
	}
}

func (self *CdrReader) Order() ByteOrder {
	return self.order
}

func (self *CdrReader) Remaining() int {
	return len(self.b) - self.i
}

// absolute offset of the next byte
func (self *CdrReader) Offset() int {
	return self.base + self.i
}

func (self *CdrReader) take(n int) ([]byte, error) {
	if n < 0 || self.Remaining() < n {
		return nil, ErrTruncated
	}
	b := self.b[self.i : self.i+n]
	self.i += n
	return b, nil
}

func (self *CdrReader) ReadUint8() (uint8, error) {
	b, err := self.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (self *CdrReader) ReadUint16() (uint16, error) {
	b, err := self.take(2)
	if err != nil {
		return 0, err
	}
	return self.order.binary().Uint16(b), nil
}

func (self *CdrReader) ReadUint32() (uint32, error) {
	b, err := self.take(4)
	if err != nil {
		return 0, err
	}
	return self.order.binary().Uint32(b), nil
}

func (self *CdrReader) ReadInt32() (int32, error) {
	v, err := self.ReadUint32()
	return int32(v), err
}

func (self *CdrReader) ReadUint64() (uint64, error) {
	b, err := self.take(8)
	if err != nil {
		return 0, err
	}
	return self.order.binary().Uint64(b), nil
}

// returns a copy
func (self *CdrReader) ReadBytes(n int) ([]byte, error) {
	b, err := self.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

func (self *CdrReader) ReadInto(out []byte) error {
	b, err := self.take(len(out))
	if err != nil {
		return err
	}
	copy(out, b)
	return nil
}

func (self *CdrReader) Skip(n int) error {
	_, err := self.take(n)
	return err
}

// returns a copy of everything left
func (self *CdrReader) ReadRest() []byte {
	b, _ := self.ReadBytes(self.Remaining())
	return b
}

// Sub splits off the next n bytes as an independent reader with the given order.
func (self *CdrReader) Sub(order ByteOrder, n int) (*CdrReader, error) {
	offset := self.Offset()
	b, err := self.take(n)
	if err != nil {
		return nil, err
	}
	return &CdrReader{
		order: order,
		b:     b,
		base:  offset,
	}, nil
}

package rtps

import (
	"fmt"
)

const (
	DataFlagInlineQos   uint8 = 0x02
	DataFlagData        uint8 = 0x04
	DataFlagKey         uint8 = 0x08
	DataFlagNonStandard uint8 = 0x10

	DataFragFlagInlineQos   uint8 = 0x02
	DataFragFlagNonStandard uint8 = 0x04
	DataFragFlagKey         uint8 = 0x08
)

// octets from after the octets-to-inline-qos field to the inline qos
const dataOctetsToInlineQos = 16
const dataFragOctetsToInlineQos = 28

// Data carries one change of a writer. The payload is either the serialized data
// or, with `Key`, the serialized key of the instance.
type Data struct {
	ReaderId EntityId
	WriterId EntityId
	WriterSn SequenceNumber
	// nil means no inline qos
	InlineQos ParameterList
	// nil means no payload
	SerializedPayload  []byte
	Key                bool
	NonStandardPayload bool
}

func (self *Data) Kind() SubMessageKind {
	return SubMessageKindData
}

func (self *Data) Flags() uint8 {
	var flags uint8
	if self.InlineQos != nil {
		flags |= DataFlagInlineQos
	}
	if self.Key {
		flags |= DataFlagKey
	} else if self.SerializedPayload != nil {
		flags |= DataFlagData
	}
	if self.NonStandardPayload {
		flags |= DataFlagNonStandard
	}
	return flags
}

func (self *Data) validate() error {
	return self.InlineQos.validate()
}

func (self *Data) String() string {
	return fmt.Sprintf(
		"data(%s->%s sn=%d qos=%d payload=%d key=%t)",
		self.WriterId,
		self.ReaderId,
		self.WriterSn,
		len(self.InlineQos),
		len(self.SerializedPayload),
		self.Key,
	)
}

func (self *Data) EncodeCdr(w *CdrWriter) {
	// extra flags
	w.WriteUint16(0)
	w.WriteUint16(dataOctetsToInlineQos)
	self.ReaderId.EncodeCdr(w)
	self.WriterId.EncodeCdr(w)
	self.WriterSn.EncodeCdr(w)
	if self.InlineQos != nil {
		self.InlineQos.EncodeCdr(w)
	}
	w.WriteBytes(self.SerializedPayload)
}

func (self *Data) decode(flags uint8, r *CdrReader) error {
	octetsToInlineQos, err := decodeExtraFlags(r, "data", dataOctetsToInlineQos)
	if err != nil {
		return err
	}
	if err := self.ReaderId.DecodeCdr(r); err != nil {
		return err
	}
	if err := self.WriterId.DecodeCdr(r); err != nil {
		return err
	}
	if err := self.WriterSn.DecodeCdr(r); err != nil {
		return err
	}
	offset := r.Offset()
	if err := r.Skip(octetsToInlineQos - dataOctetsToInlineQos); err != nil {
		return decodeError("data.inline_qos", offset, err)
	}
	if flags&DataFlagInlineQos != 0 {
		if err := self.InlineQos.DecodeCdr(r); err != nil {
			return err
		}
	}
	hasData := flags&DataFlagData != 0
	hasKey := flags&DataFlagKey != 0
	if hasData && hasKey {
		return decodeError("data.flags", offset, fmt.Errorf("%w: both data and key flags", ErrMalformed))
	}
	if hasData || hasKey {
		self.SerializedPayload = r.ReadRest()
	}
	self.Key = hasKey
	self.NonStandardPayload = flags&DataFlagNonStandard != 0
	return nil
}

// DataFrag carries consecutive fragments of one change.
type DataFrag struct {
	ReaderId              EntityId
	WriterId              EntityId
	WriterSn              SequenceNumber
	FragmentStartingNum   FragmentNumber
	FragmentsInSubmessage uint16
	FragmentSize          uint16
	SampleSize            uint32
	// nil means no inline qos
	InlineQos          ParameterList
	Fragments          []byte
	Key                bool
	NonStandardPayload bool
}

func (self *DataFrag) Kind() SubMessageKind {
	return SubMessageKindDataFrag
}

func (self *DataFrag) Flags() uint8 {
	var flags uint8
	if self.InlineQos != nil {
		flags |= DataFragFlagInlineQos
	}
	if self.NonStandardPayload {
		flags |= DataFragFlagNonStandard
	}
	if self.Key {
		flags |= DataFragFlagKey
	}
	return flags
}

func (self *DataFrag) validate() error {
	return self.InlineQos.validate()
}

func (self *DataFrag) String() string {
	return fmt.Sprintf(
		"data_frag(%s->%s sn=%d frag=%d+%d size=%d/%d)",
		self.WriterId,
		self.ReaderId,
		self.WriterSn,
		self.FragmentStartingNum,
		self.FragmentsInSubmessage,
		self.FragmentSize,
		self.SampleSize,
	)
}

func (self *DataFrag) EncodeCdr(w *CdrWriter) {
	w.WriteUint16(0)
	w.WriteUint16(dataFragOctetsToInlineQos)
	self.ReaderId.EncodeCdr(w)
	self.WriterId.EncodeCdr(w)
	self.WriterSn.EncodeCdr(w)
	w.WriteUint32(uint32(self.FragmentStartingNum))
	w.WriteUint16(self.FragmentsInSubmessage)
	w.WriteUint16(self.FragmentSize)
	w.WriteUint32(self.SampleSize)
	if self.InlineQos != nil {
		self.InlineQos.EncodeCdr(w)
	}
	w.WriteBytes(self.Fragments)
}

func (self *DataFrag) decode(flags uint8, r *CdrReader) error {
	octetsToInlineQos, err := decodeExtraFlags(r, "data_frag", dataFragOctetsToInlineQos)
	if err != nil {
		return err
	}
	if err := self.ReaderId.DecodeCdr(r); err != nil {
		return err
	}
	if err := self.WriterId.DecodeCdr(r); err != nil {
		return err
	}
	if err := self.WriterSn.DecodeCdr(r); err != nil {
		return err
	}
	offset := r.Offset()
	fragmentStartingNum, err := r.ReadUint32()
	if err != nil {
		return decodeError("data_frag.fragment_starting_num", offset, err)
	}
	if fragmentStartingNum == 0 {
		return decodeError("data_frag.fragment_starting_num", offset, ErrMalformed)
	}
	fragmentsInSubmessage, err := r.ReadUint16()
	if err != nil {
		return decodeError("data_frag.fragments_in_submessage", offset, err)
	}
	fragmentSize, err := r.ReadUint16()
	if err != nil {
		return decodeError("data_frag.fragment_size", offset, err)
	}
	sampleSize, err := r.ReadUint32()
	if err != nil {
		return decodeError("data_frag.sample_size", offset, err)
	}
	offset = r.Offset()
	if err := r.Skip(octetsToInlineQos - dataFragOctetsToInlineQos); err != nil {
		return decodeError("data_frag.inline_qos", offset, err)
	}
	if flags&DataFragFlagInlineQos != 0 {
		if err := self.InlineQos.DecodeCdr(r); err != nil {
			return err
		}
	}
	self.FragmentStartingNum = FragmentNumber(fragmentStartingNum)
	self.FragmentsInSubmessage = fragmentsInSubmessage
	self.FragmentSize = fragmentSize
	self.SampleSize = sampleSize
	self.Fragments = r.ReadRest()
	self.Key = flags&DataFragFlagKey != 0
	self.NonStandardPayload = flags&DataFragFlagNonStandard != 0
	return nil
}

// reads the extra flags and octets to inline qos, which must reach past the fixed fields
func decodeExtraFlags(r *CdrReader, field string, minOctetsToInlineQos int) (int, error) {
	offset := r.Offset()
	if _, err := r.ReadUint16(); err != nil {
		return 0, decodeError(field+".extra_flags", offset, err)
	}
	octetsToInlineQos, err := r.ReadUint16()
	if err != nil {
		return 0, decodeError(field+".octets_to_inline_qos", offset, err)
	}
	if int(octetsToInlineQos) < minOctetsToInlineQos {
		return 0, decodeError(field+".octets_to_inline_qos", offset, fmt.Errorf("%w: %d", ErrMalformed, octetsToInlineQos))
	}
	return int(octetsToInlineQos), nil
}

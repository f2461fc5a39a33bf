package rtps

import (
	"fmt"
)

const (
	AckNackFlagFinal        uint8 = 0x02
	HeartbeatFlagFinal      uint8 = 0x02
	HeartbeatFlagLiveliness uint8 = 0x04
)

// AckNack tells a writer which changes a reader is still missing.
type AckNack struct {
	ReaderId      EntityId
	WriterId      EntityId
	ReaderSnState SequenceNumberSet
	Count         uint32
	// the writer does not have to respond
	Final bool
}

func (self *AckNack) Kind() SubMessageKind {
	return SubMessageKindAckNack
}

func (self *AckNack) Flags() uint8 {
	if self.Final {
		return AckNackFlagFinal
	}
	return 0
}

func (self *AckNack) String() string {
	return fmt.Sprintf("acknack(%s->%s %s count=%d final=%t)", self.ReaderId, self.WriterId, self.ReaderSnState, self.Count, self.Final)
}

func (self *AckNack) EncodeCdr(w *CdrWriter) {
	self.ReaderId.EncodeCdr(w)
	self.WriterId.EncodeCdr(w)
	self.ReaderSnState.EncodeCdr(w)
	w.WriteUint32(self.Count)
}

func (self *AckNack) decode(flags uint8, r *CdrReader) error {
	if err := self.ReaderId.DecodeCdr(r); err != nil {
		return err
	}
	if err := self.WriterId.DecodeCdr(r); err != nil {
		return err
	}
	if err := self.ReaderSnState.DecodeCdr(r); err != nil {
		return err
	}
	offset := r.Offset()
	count, err := r.ReadUint32()
	if err != nil {
		return decodeError("count", offset, err)
	}
	self.Count = count
	self.Final = flags&AckNackFlagFinal != 0
	return nil
}

// Heartbeat announces the range of changes a writer holds.
// An empty writer sends `LastSn = FirstSn - 1`.
type Heartbeat struct {
	ReaderId   EntityId
	WriterId   EntityId
	FirstSn    SequenceNumber
	LastSn     SequenceNumber
	Count      uint32
	Final      bool
	Liveliness bool
}

func (self *Heartbeat) Kind() SubMessageKind {
	return SubMessageKindHeartbeat
}

func (self *Heartbeat) Flags() uint8 {
	var flags uint8
	if self.Final {
		flags |= HeartbeatFlagFinal
	}
	if self.Liveliness {
		flags |= HeartbeatFlagLiveliness
	}
	return flags
}

func (self *Heartbeat) String() string {
	return fmt.Sprintf("heartbeat(%s->%s [%d,%d] count=%d)", self.WriterId, self.ReaderId, self.FirstSn, self.LastSn, self.Count)
}

func (self *Heartbeat) EncodeCdr(w *CdrWriter) {
	self.ReaderId.EncodeCdr(w)
	self.WriterId.EncodeCdr(w)
	self.FirstSn.EncodeCdr(w)
	self.LastSn.EncodeCdr(w)
	w.WriteUint32(self.Count)
}

func (self *Heartbeat) decode(flags uint8, r *CdrReader) error {
	if err := self.ReaderId.DecodeCdr(r); err != nil {
		return err
	}
	if err := self.WriterId.DecodeCdr(r); err != nil {
		return err
	}
	offset := r.Offset()
	if err := self.FirstSn.DecodeCdr(r); err != nil {
		return err
	}
	if err := self.LastSn.DecodeCdr(r); err != nil {
		return err
	}
	if self.FirstSn == 0 || self.LastSn+1 < self.FirstSn {
		return decodeError("heartbeat.range", offset, fmt.Errorf("%w: [%d,%d]", ErrMalformed, self.FirstSn, self.LastSn))
	}
	offset = r.Offset()
	count, err := r.ReadUint32()
	if err != nil {
		return decodeError("count", offset, err)
	}
	self.Count = count
	self.Final = flags&HeartbeatFlagFinal != 0
	self.Liveliness = flags&HeartbeatFlagLiveliness != 0
	return nil
}

// Gap marks `[GapStart, GapList.Base())` and every member of `GapList` as irrelevant.
type Gap struct {
	ReaderId EntityId
	WriterId EntityId
	GapStart SequenceNumber
	GapList  SequenceNumberSet
}

func (self *Gap) Kind() SubMessageKind {
	return SubMessageKindGap
}

func (self *Gap) Flags() uint8 {
	return 0
}

func (self *Gap) String() string {
	return fmt.Sprintf("gap(%s->%s start=%d %s)", self.WriterId, self.ReaderId, self.GapStart, self.GapList)
}

func (self *Gap) EncodeCdr(w *CdrWriter) {
	self.ReaderId.EncodeCdr(w)
	self.WriterId.EncodeCdr(w)
	self.GapStart.EncodeCdr(w)
	self.GapList.EncodeCdr(w)
}

func (self *Gap) decode(flags uint8, r *CdrReader) error {
	if err := self.ReaderId.DecodeCdr(r); err != nil {
		return err
	}
	if err := self.WriterId.DecodeCdr(r); err != nil {
		return err
	}
	offset := r.Offset()
	if err := self.GapStart.DecodeCdr(r); err != nil {
		return err
	}
	if self.GapStart == 0 {
		return decodeError("gap.start", offset, ErrMalformed)
	}
	return self.GapList.DecodeCdr(r)
}

// Covers the given sequence numbers, which must fit one gap list window after `gapStart`.
func NewGap(readerId EntityId, writerId EntityId, gapStart SequenceNumber, gapListBase SequenceNumber, values ...SequenceNumber) (*Gap, error) {
	if gapStart == 0 {
		return nil, ErrZeroBase
	}
	gapList, err := NewSequenceNumberSet(gapListBase)
	if err != nil {
		return nil, err
	}
	for _, value := range values {
		if _, err := gapList.InsertValue(value); err != nil {
			return nil, err
		}
	}
	return &Gap{
		ReaderId: readerId,
		WriterId: writerId,
		GapStart: gapStart,
		GapList:  gapList,
	}, nil
}

type HeartbeatFrag struct {
	ReaderId        EntityId
	WriterId        EntityId
	WriterSn        SequenceNumber
	LastFragmentNum FragmentNumber
	Count           uint32
}

func (self *HeartbeatFrag) Kind() SubMessageKind {
	return SubMessageKindHeartbeatFrag
}

func (self *HeartbeatFrag) Flags() uint8 {
	return 0
}

func (self *HeartbeatFrag) String() string {
	return fmt.Sprintf("heartbeat_frag(%s->%s sn=%d last=%d count=%d)", self.WriterId, self.ReaderId, self.WriterSn, self.LastFragmentNum, self.Count)
}

func (self *HeartbeatFrag) EncodeCdr(w *CdrWriter) {
	self.ReaderId.EncodeCdr(w)
	self.WriterId.EncodeCdr(w)
	self.WriterSn.EncodeCdr(w)
	w.WriteUint32(uint32(self.LastFragmentNum))
	w.WriteUint32(self.Count)
}

func (self *HeartbeatFrag) decode(flags uint8, r *CdrReader) error {
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
	lastFragmentNum, err := r.ReadUint32()
	if err != nil {
		return decodeError("heartbeat_frag.last_fragment_num", offset, err)
	}
	if lastFragmentNum == 0 {
		return decodeError("heartbeat_frag.last_fragment_num", offset, ErrMalformed)
	}
	offset = r.Offset()
	count, err := r.ReadUint32()
	if err != nil {
		return decodeError("count", offset, err)
	}
	self.LastFragmentNum = FragmentNumber(lastFragmentNum)
	self.Count = count
	return nil
}

// NackFrag tells a writer which fragments of one change a reader is missing.
type NackFrag struct {
	ReaderId            EntityId
	WriterId            EntityId
	WriterSn            SequenceNumber
	FragmentNumberState FragmentNumberSet
	Count               uint32
}

func (self *NackFrag) Kind() SubMessageKind {
	return SubMessageKindNackFrag
}

func (self *NackFrag) Flags() uint8 {
	return 0
}

func (self *NackFrag) String() string {
	return fmt.Sprintf("nack_frag(%s->%s sn=%d %s count=%d)", self.ReaderId, self.WriterId, self.WriterSn, self.FragmentNumberState, self.Count)
}

func (self *NackFrag) EncodeCdr(w *CdrWriter) {
	self.ReaderId.EncodeCdr(w)
	self.WriterId.EncodeCdr(w)
	self.WriterSn.EncodeCdr(w)
	self.FragmentNumberState.EncodeCdr(w)
	w.WriteUint32(self.Count)
}

func (self *NackFrag) decode(flags uint8, r *CdrReader) error {
	if err := self.ReaderId.DecodeCdr(r); err != nil {
		return err
	}
	if err := self.WriterId.DecodeCdr(r); err != nil {
		return err
	}
	if err := self.WriterSn.DecodeCdr(r); err != nil {
		return err
	}
	if err := self.FragmentNumberState.DecodeCdr(r); err != nil {
		return err
	}
	offset := r.Offset()
	count, err := r.ReadUint32()
	if err != nil {
		return decodeError("count", offset, err)
	}
	self.Count = count
	return nil
}

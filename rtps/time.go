package rtps

import (
	"time"
)

// NTP style time: seconds since the unix epoch plus `Fraction / 2^32` seconds.
// comparable
type Time struct {
	Seconds  int32
	Fraction uint32
}

var (
	TimeZero     = Time{Seconds: 0, Fraction: 0}
	TimeInvalid  = Time{Seconds: -1, Fraction: 0xffffffff}
	TimeInfinite = Time{Seconds: 0x7fffffff, Fraction: 0xffffffff}
)

const nanosPerSecond = int64(time.Second)

// the fraction is rounded up so that `TimeFrom(t).Time()` returns `t` to the nanosecond
func TimeFrom(t time.Time) Time {
	nanos := int64(t.Nanosecond())
	return Time{
		Seconds:  int32(t.Unix()),
		Fraction: uint32((nanos<<32 + nanosPerSecond - 1) / nanosPerSecond),
	}
}

func TimeNow() Time {
	return TimeFrom(time.Now())
}

func (self Time) Time() time.Time {
	nanos := (int64(self.Fraction) * nanosPerSecond) >> 32
	return time.Unix(int64(self.Seconds), nanos).UTC()
}

func (self Time) IsInvalid() bool {
	return self == TimeInvalid
}

func (self Time) String() string {
	switch self {
	case TimeInvalid:
		return "invalid"
	case TimeInfinite:
		return "infinite"
	default:
		return self.Time().Format(time.RFC3339Nano)
	}
}

func (self Time) EncodeCdr(w *CdrWriter) {
	w.WriteInt32(self.Seconds)
	w.WriteUint32(self.Fraction)
}

func (self *Time) DecodeCdr(r *CdrReader) error {
	offset := r.Offset()
	seconds, err := r.ReadInt32()
	if err != nil {
		return decodeError("time", offset, err)
	}
	fraction, err := r.ReadUint32()
	if err != nil {
		return decodeError("time", offset, err)
	}
	self.Seconds = seconds
	self.Fraction = fraction
	return nil
}

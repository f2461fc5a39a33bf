package rtps

import (
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

func TestTimeConversion(t *testing.T) {
	assert.Equal(t, Time{Seconds: 1, Fraction: 0x80000000}, TimeFrom(time.Unix(1, 500000000)))
	assert.Equal(t, TimeZero, TimeFrom(time.Unix(0, 0)))

	for _, nanos := range []int64{0, 1, 2, 999999999, 123456789, 500000000} {
		t0 := time.Unix(1700000000, nanos).UTC()
		assert.Equal(t, t0, TimeFrom(t0).Time())
	}

	assert.Equal(t, true, TimeInvalid.IsInvalid())
	assert.Equal(t, "invalid", TimeInvalid.String())
	assert.Equal(t, "infinite", TimeInfinite.String())
}

func TestTimeWire(t *testing.T) {
	timestamp := Time{Seconds: -1, Fraction: 7}
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff, 0x00, 0x00, 0x00, 0x07}, EncodeCdr(timestamp, BigEndian))
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff, 0x07, 0x00, 0x00, 0x00}, EncodeCdr(timestamp, LittleEndian))

	var decoded Time
	err := DecodeCdr(&decoded, LittleEndian, EncodeCdr(timestamp, LittleEndian))
	assert.Equal(t, nil, err)
	assert.Equal(t, timestamp, decoded)
}

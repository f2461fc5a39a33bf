package rtps

import (
	"errors"
	"testing"

	"github.com/go-playground/assert/v2"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestHistorySnapshotRoundTrip(t *testing.T) {
	writerGuid := NewGuid(testPrefix, testWriterId)
	instanceGuid := NewGuid(testPrefix, testReaderId)

	cache := NewMemoryHistoryCacheWithDefaults()
	changes := []*Change{
		NewAliveChange(writerGuid, instanceGuid, []byte("hello")),
		NewAliveChange(writerGuid, instanceGuid, []byte{}),
		NewAliveFilteredChange(writerGuid, instanceGuid),
		NewDisposedChange(writerGuid, instanceGuid),
		NewUnregisteredChange(writerGuid, GuidUnknown),
	}
	for _, change := range changes {
		_, err := cache.Add(change)
		assert.Equal(t, nil, err)
	}
	// remove the newest so the next sequence number is ahead of the max
	_, err := cache.Remove(5)
	assert.Equal(t, nil, err)

	restored, err := DecodeHistorySnapshot(EncodeHistorySnapshot(cache), DefaultHistoryCacheSettings())
	assert.Equal(t, nil, err)
	assert.Equal(t, cache.Entries(), restored.Entries())
	assert.Equal(t, SequenceNumber(6), restored.NextSequenceNumber())

	s, err := restored.Add(changes[0])
	assert.Equal(t, nil, err)
	assert.Equal(t, SequenceNumber(6), s)

	first, last, ok := restored.Bounds()
	assert.Equal(t, true, ok)
	assert.Equal(t, SequenceNumber(1), first)
	assert.Equal(t, SequenceNumber(6), last)
}

func TestHistorySnapshotEmpty(t *testing.T) {
	restored, err := DecodeHistorySnapshot(EncodeHistorySnapshot(NewMemoryHistoryCacheWithDefaults()), DefaultHistoryCacheSettings())
	assert.Equal(t, nil, err)
	assert.Equal(t, 0, restored.Len())
	assert.Equal(t, SequenceNumber(1), restored.NextSequenceNumber())
}

func TestHistorySnapshotErrors(t *testing.T) {
	cache := NewMemoryHistoryCacheWithDefaults()
	for i := 0; i < 3; i += 1 {
		_, err := cache.Add(testChange(i))
		assert.Equal(t, nil, err)
	}
	b := EncodeHistorySnapshot(cache)

	_, err := DecodeHistorySnapshot(b, &HistoryCacheSettings{MaxChanges: 2})
	assert.Equal(t, true, errors.Is(err, ErrHistoryCacheFull))

	_, err = DecodeHistorySnapshot(b[:len(b)-1], DefaultHistoryCacheSettings())
	assert.Equal(t, true, errors.Is(err, ErrMalformed))

	// no next sequence number
	_, err = DecodeHistorySnapshot([]byte{}, DefaultHistoryCacheSettings())
	assert.Equal(t, true, errors.Is(err, ErrMalformed))

	// an entry at or past the next sequence number
	var bad []byte
	bad = protowire.AppendTag(bad, snapshotFieldNextSequenceNumber, protowire.VarintType)
	bad = protowire.AppendVarint(bad, 2)
	bad = protowire.AppendTag(bad, snapshotFieldEntry, protowire.BytesType)
	bad = protowire.AppendBytes(bad, encodeSnapshotEntry(HistoryCacheEntry{SequenceNumber: 2, Change: testChange(1)}))
	_, err = DecodeHistorySnapshot(bad, DefaultHistoryCacheSettings())
	assert.Equal(t, true, errors.Is(err, ErrMalformed))

	// unknown fields are skipped
	extra := append([]byte{}, b...)
	extra = protowire.AppendTag(extra, 99, protowire.BytesType)
	extra = protowire.AppendBytes(extra, []byte("future"))
	restored, err := DecodeHistorySnapshot(extra, DefaultHistoryCacheSettings())
	assert.Equal(t, nil, err)
	assert.Equal(t, cache.Entries(), restored.Entries())
}

package rtps

import (
	"errors"
	mathrand "math/rand"
	"sync"
	"testing"

	"github.com/go-playground/assert/v2"
)

func testChange(i int) *Change {
	writerGuid := NewGuid(testPrefix, testWriterId)
	instanceGuid := NewGuid(testPrefix, NewEntityId([3]byte{0, 0, byte(i)}, EntityKindUnknown))
	return NewAliveChange(writerGuid, instanceGuid, []byte{byte(i)})
}

func TestHistoryCacheMonotonic(t *testing.T) {
	var cache HistoryCache = NewMemoryHistoryCacheWithDefaults()

	_, ok := cache.MinSequenceNumber()
	assert.Equal(t, false, ok)
	_, ok = cache.MaxSequenceNumber()
	assert.Equal(t, false, ok)

	s1, err := cache.Add(testChange(1))
	assert.Equal(t, nil, err)
	s2, err := cache.Add(testChange(2))
	assert.Equal(t, nil, err)
	assert.Equal(t, SequenceNumber(1), s1)
	assert.Equal(t, true, s1 < s2)

	change, err := cache.Remove(s2)
	assert.Equal(t, nil, err)
	assert.Equal(t, testChange(2), change)

	maxSn, ok := cache.MaxSequenceNumber()
	assert.Equal(t, true, ok)
	assert.Equal(t, s1, maxSn)

	_, err = cache.Remove(s1)
	assert.Equal(t, nil, err)
	_, ok = cache.MinSequenceNumber()
	assert.Equal(t, false, ok)
	_, ok = cache.MaxSequenceNumber()
	assert.Equal(t, false, ok)

	// numbers are never reused
	s3, err := cache.Add(testChange(3))
	assert.Equal(t, nil, err)
	assert.Equal(t, SequenceNumber(3), s3)
}

func TestHistoryCacheRemoveMissing(t *testing.T) {
	cache := NewMemoryHistoryCacheWithDefaults()
	_, err := cache.Remove(1)
	assert.Equal(t, true, errors.Is(err, ErrChangeNotFound))

	s, err := cache.Add(testChange(1))
	assert.Equal(t, nil, err)
	_, err = cache.Remove(s)
	assert.Equal(t, nil, err)
	_, err = cache.Remove(s)
	assert.Equal(t, true, errors.Is(err, ErrChangeNotFound))
}

func TestHistoryCacheFull(t *testing.T) {
	cache := NewMemoryHistoryCache(&HistoryCacheSettings{
		MaxChanges: 2,
	})
	_, err := cache.Add(testChange(1))
	assert.Equal(t, nil, err)
	_, err = cache.Add(testChange(2))
	assert.Equal(t, nil, err)

	_, err = cache.Add(testChange(3))
	assert.Equal(t, true, errors.Is(err, ErrHistoryCacheFull))
	assert.Equal(t, 2, cache.Len())
	// a failed add does not use a sequence number
	assert.Equal(t, SequenceNumber(3), cache.NextSequenceNumber())

	_, err = cache.Remove(1)
	assert.Equal(t, nil, err)
	s, err := cache.Add(testChange(3))
	assert.Equal(t, nil, err)
	assert.Equal(t, SequenceNumber(3), s)
}

func TestHistoryCacheRandomRemove(t *testing.T) {
	cache := NewMemoryHistoryCache(&HistoryCacheSettings{})

	n := 200
	sequenceNumbers := []SequenceNumber{}
	for i := 0; i < n; i += 1 {
		s, err := cache.Add(testChange(i))
		assert.Equal(t, nil, err)
		sequenceNumbers = append(sequenceNumbers, s)
	}

	mathrand.Shuffle(len(sequenceNumbers), func(i, j int) {
		sequenceNumbers[i], sequenceNumbers[j] = sequenceNumbers[j], sequenceNumbers[i]
	})

	remaining := map[SequenceNumber]bool{}
	for _, s := range sequenceNumbers {
		remaining[s] = true
	}
	for _, s := range sequenceNumbers {
		change, err := cache.Remove(s)
		assert.Equal(t, nil, err)
		payload, ok := change.Payload()
		assert.Equal(t, true, ok)
		assert.Equal(t, []byte{byte(s - 1)}, payload)
		delete(remaining, s)

		first, last, ok := cache.Bounds()
		if len(remaining) == 0 {
			assert.Equal(t, false, ok)
			continue
		}
		assert.Equal(t, true, ok)
		expectedFirst := SequenceNumber(n + 1)
		expectedLast := SequenceNumber(0)
		for r := range remaining {
			if r < expectedFirst {
				expectedFirst = r
			}
			if expectedLast < r {
				expectedLast = r
			}
		}
		assert.Equal(t, expectedFirst, first)
		assert.Equal(t, expectedLast, last)
		assert.Equal(t, len(remaining), len(cache.SequenceNumbers()))
	}
}

func TestHistoryCacheEntries(t *testing.T) {
	cache := NewMemoryHistoryCacheWithDefaults()
	for i := 1; i <= 5; i += 1 {
		_, err := cache.Add(testChange(i))
		assert.Equal(t, nil, err)
	}
	_, err := cache.Remove(3)
	assert.Equal(t, nil, err)

	assert.Equal(t, []SequenceNumber{1, 2, 4, 5}, cache.SequenceNumbers())
	entries := cache.Entries()
	assert.Equal(t, 4, len(entries))
	assert.Equal(t, SequenceNumber(4), entries[2].SequenceNumber)
	assert.Equal(t, testChange(4), entries[2].Change)

	change, ok := cache.Get(5)
	assert.Equal(t, true, ok)
	assert.Equal(t, testChange(5), change)
	_, ok = cache.Get(3)
	assert.Equal(t, false, ok)
}

func TestHistoryCacheConcurrentAdd(t *testing.T) {
	cache := NewMemoryHistoryCache(&HistoryCacheSettings{})

	workers := 8
	perWorker := 100
	results := make(chan SequenceNumber, workers*perWorker)
	var wg sync.WaitGroup
	for i := 0; i < workers; i += 1 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j += 1 {
				s, err := cache.Add(testChange(j))
				if err != nil {
					panic(err)
				}
				results <- s
				// readers never see a half updated pair
				if first, last, ok := cache.Bounds(); ok && last < first {
					panic("bounds out of order")
				}
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := map[SequenceNumber]bool{}
	for s := range results {
		assert.Equal(t, false, seen[s])
		seen[s] = true
	}
	assert.Equal(t, workers*perWorker, len(seen))

	first, last, ok := cache.Bounds()
	assert.Equal(t, true, ok)
	assert.Equal(t, SequenceNumber(1), first)
	assert.Equal(t, SequenceNumber(workers*perWorker), last)
}

func TestChangeKinds(t *testing.T) {
	writerGuid := NewGuid(testPrefix, testWriterId)
	instanceGuid := NewGuid(testPrefix, testReaderId)

	alive := NewAliveChange(writerGuid, instanceGuid, []byte{1, 2})
	payload, ok := alive.Payload()
	assert.Equal(t, true, ok)
	assert.Equal(t, []byte{1, 2}, payload)
	assert.Equal(t, ChangeKindAlive, alive.Kind())
	assert.Equal(t, writerGuid, alive.WriterGuid())
	assert.Equal(t, instanceGuid, alive.InstanceGuid())

	for _, change := range []*Change{
		NewAliveFilteredChange(writerGuid, instanceGuid),
		NewDisposedChange(writerGuid, instanceGuid),
		NewUnregisteredChange(writerGuid, instanceGuid),
	} {
		_, ok := change.Payload()
		assert.Equal(t, false, ok)
	}
}

func TestHistoryCacheAddNil(t *testing.T) {
	cache := NewMemoryHistoryCacheWithDefaults()
	_, err := cache.Add(nil)
	assert.Equal(t, true, errors.Is(err, ErrNilChange))
	assert.Equal(t, 0, cache.Len())
	assert.Equal(t, SequenceNumber(1), cache.NextSequenceNumber())

	s, err := cache.Add(testChange(1))
	assert.Equal(t, nil, err)
	assert.Equal(t, SequenceNumber(1), s)
}

package rtps

import (
	"container/heap"
	"fmt"
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// HistoryCache holds the changes of one writer, keyed by sequence number.
// Min and max return false when the cache is empty.
type HistoryCache interface {
	Add(change *Change) (SequenceNumber, error)
	Remove(sequenceNumber SequenceNumber) (*Change, error)
	MinSequenceNumber() (SequenceNumber, bool)
	MaxSequenceNumber() (SequenceNumber, bool)
}

type HistoryCacheSettings struct {
	// 0 means no limit
	MaxChanges int
}

func DefaultHistoryCacheSettings() *HistoryCacheSettings {
	return &HistoryCacheSettings{
		MaxChanges: 1024,
	}
}

type historyCacheItem struct {
	sequenceNumber SequenceNumber
	change         *Change

	// the index of the item in the min heap
	heapIndex int
	// the index of the item in the max heap
	maxHeapIndex int
}

// MemoryHistoryCache assigns sequence numbers from 1 and never reuses one,
// even after the newest change is removed.
// The bounds are kept in a min heap and a max heap, so removing from the
// middle of the cache recomputes both in log time.
type MemoryHistoryCache struct {
	settings *HistoryCacheSettings

	stateLock           sync.RWMutex
	nextSequenceNumber  SequenceNumber
	minHeap             *historyCacheMinHeap
	maxHeap             *historyCacheMaxHeap
	sequenceNumberItems map[SequenceNumber]*historyCacheItem
}

func NewMemoryHistoryCacheWithDefaults() *MemoryHistoryCache {
	return NewMemoryHistoryCache(DefaultHistoryCacheSettings())
}

func NewMemoryHistoryCache(settings *HistoryCacheSettings) *MemoryHistoryCache {
	return newMemoryHistoryCache(settings, 1)
}

func newMemoryHistoryCache(settings *HistoryCacheSettings, nextSequenceNumber SequenceNumber) *MemoryHistoryCache {
	minHeap := &historyCacheMinHeap{}
	heap.Init(minHeap)
	maxHeap := &historyCacheMaxHeap{}
	heap.Init(maxHeap)
	return &MemoryHistoryCache{
		settings:            settings,
		nextSequenceNumber:  nextSequenceNumber,
		minHeap:             minHeap,
		maxHeap:             maxHeap,
		sequenceNumberItems: map[SequenceNumber]*historyCacheItem{},
	}
}

// Add assigns the next sequence number. A full cache inserts nothing.
func (self *MemoryHistoryCache) Add(change *Change) (SequenceNumber, error) {
	if change == nil {
		return 0, ErrNilChange
	}

	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	if 0 < self.settings.MaxChanges && self.settings.MaxChanges <= len(self.sequenceNumberItems) {
		return 0, fmt.Errorf("%w: %d changes", ErrHistoryCacheFull, len(self.sequenceNumberItems))
	}

	sequenceNumber := self.nextSequenceNumber
	self.nextSequenceNumber += 1
	self.add(sequenceNumber, change)
	return sequenceNumber, nil
}

func (self *MemoryHistoryCache) add(sequenceNumber SequenceNumber, change *Change) {
	item := &historyCacheItem{
		sequenceNumber: sequenceNumber,
		change:         change,
	}
	self.sequenceNumberItems[sequenceNumber] = item
	heap.Push(self.minHeap, item)
	heap.Push(self.maxHeap, item)
}

func (self *MemoryHistoryCache) Remove(sequenceNumber SequenceNumber) (*Change, error) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	item, ok := self.sequenceNumberItems[sequenceNumber]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrChangeNotFound, sequenceNumber)
	}
	delete(self.sequenceNumberItems, sequenceNumber)
	item_ := heap.Remove(self.minHeap, item.heapIndex)
	if item != item_ {
		panic("Heap invariant broken.")
	}
	heap.Remove(self.maxHeap, item.maxHeapIndex)
	return item.change, nil
}

func (self *MemoryHistoryCache) Get(sequenceNumber SequenceNumber) (*Change, bool) {
	self.stateLock.RLock()
	defer self.stateLock.RUnlock()

	item, ok := self.sequenceNumberItems[sequenceNumber]
	if !ok {
		return nil, false
	}
	return item.change, true
}

func (self *MemoryHistoryCache) MinSequenceNumber() (SequenceNumber, bool) {
	self.stateLock.RLock()
	defer self.stateLock.RUnlock()

	return self.min()
}

func (self *MemoryHistoryCache) MaxSequenceNumber() (SequenceNumber, bool) {
	self.stateLock.RLock()
	defer self.stateLock.RUnlock()

	return self.max()
}

// Bounds reads min and max under one lock, so they always describe the same contents.
func (self *MemoryHistoryCache) Bounds() (first SequenceNumber, last SequenceNumber, ok bool) {
	self.stateLock.RLock()
	defer self.stateLock.RUnlock()

	first, ok = self.min()
	if !ok {
		return 0, 0, false
	}
	last, _ = self.max()
	return first, last, true
}

func (self *MemoryHistoryCache) min() (SequenceNumber, bool) {
	if self.minHeap.Len() == 0 {
		return 0, false
	}
	return self.minHeap.orderedItems[0].sequenceNumber, true
}

func (self *MemoryHistoryCache) max() (SequenceNumber, bool) {
	if self.maxHeap.Len() == 0 {
		return 0, false
	}
	return self.maxHeap.orderedItems[0].sequenceNumber, true
}

// the sequence number the next `Add` will assign
func (self *MemoryHistoryCache) NextSequenceNumber() SequenceNumber {
	self.stateLock.RLock()
	defer self.stateLock.RUnlock()

	return self.nextSequenceNumber
}

func (self *MemoryHistoryCache) Len() int {
	self.stateLock.RLock()
	defer self.stateLock.RUnlock()

	return len(self.sequenceNumberItems)
}

// ascending
func (self *MemoryHistoryCache) SequenceNumbers() []SequenceNumber {
	self.stateLock.RLock()
	defer self.stateLock.RUnlock()

	sequenceNumbers := maps.Keys(self.sequenceNumberItems)
	slices.Sort(sequenceNumbers)
	return sequenceNumbers
}

type HistoryCacheEntry struct {
	SequenceNumber SequenceNumber
	Change         *Change
}

// ascending by sequence number
func (self *MemoryHistoryCache) Entries() []HistoryCacheEntry {
	self.stateLock.RLock()
	defer self.stateLock.RUnlock()

	return self.entries()
}

func (self *MemoryHistoryCache) entries() []HistoryCacheEntry {
	sequenceNumbers := maps.Keys(self.sequenceNumberItems)
	slices.Sort(sequenceNumbers)
	entries := make([]HistoryCacheEntry, 0, len(sequenceNumbers))
	for _, sequenceNumber := range sequenceNumbers {
		entries = append(entries, HistoryCacheEntry{
			SequenceNumber: sequenceNumber,
			Change:         self.sequenceNumberItems[sequenceNumber].change,
		})
	}
	return entries
}

// the entries and the next sequence number under one lock
func (self *MemoryHistoryCache) snapshot() ([]HistoryCacheEntry, SequenceNumber) {
	self.stateLock.RLock()
	defer self.stateLock.RUnlock()

	return self.entries(), self.nextSequenceNumber
}

// ordered by `sequenceNumber` ascending
type historyCacheMinHeap struct {
	orderedItems []*historyCacheItem
}

// heap.Interface

func (self *historyCacheMinHeap) Push(x any) {
	item := x.(*historyCacheItem)
	item.heapIndex = len(self.orderedItems)
	self.orderedItems = append(self.orderedItems, item)
}

func (self *historyCacheMinHeap) Pop() any {
	n := len(self.orderedItems)
	i := n - 1
	item := self.orderedItems[i]
	self.orderedItems[i] = nil
	self.orderedItems = self.orderedItems[:n-1]
	return item
}

// sort.Interface

func (self *historyCacheMinHeap) Len() int {
	return len(self.orderedItems)
}

func (self *historyCacheMinHeap) Less(i int, j int) bool {
	return self.orderedItems[i].sequenceNumber < self.orderedItems[j].sequenceNumber
}

func (self *historyCacheMinHeap) Swap(i int, j int) {
	a := self.orderedItems[i]
	b := self.orderedItems[j]
	b.heapIndex = i
	self.orderedItems[i] = b
	a.heapIndex = j
	self.orderedItems[j] = a
}

// ordered by `sequenceNumber` descending
type historyCacheMaxHeap struct {
	orderedItems []*historyCacheItem
}

// heap.Interface

func (self *historyCacheMaxHeap) Push(x any) {
	item := x.(*historyCacheItem)
	item.maxHeapIndex = len(self.orderedItems)
	self.orderedItems = append(self.orderedItems, item)
}

func (self *historyCacheMaxHeap) Pop() any {
	n := len(self.orderedItems)
	i := n - 1
	item := self.orderedItems[i]
	self.orderedItems[i] = nil
	self.orderedItems = self.orderedItems[:n-1]
	return item
}

// sort.Interface

func (self *historyCacheMaxHeap) Len() int {
	return len(self.orderedItems)
}

func (self *historyCacheMaxHeap) Less(i int, j int) bool {
	return self.orderedItems[j].sequenceNumber < self.orderedItems[i].sequenceNumber
}

func (self *historyCacheMaxHeap) Swap(i int, j int) {
	a := self.orderedItems[i]
	b := self.orderedItems[j]
	b.maxHeapIndex = i
	self.orderedItems[i] = b
	a.maxHeapIndex = j
	self.orderedItems[j] = a
}

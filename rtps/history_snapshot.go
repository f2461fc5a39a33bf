package rtps

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Snapshots use the protobuf wire format:
//
//	message HistorySnapshot {
//	    uint64 next_sequence_number = 1;
//	    repeated Entry entries = 2;
//	}
//	message Entry {
//	    uint64 sequence_number = 1;
//	    uint32 kind = 2;
//	    bytes writer_guid = 3;
//	    bytes instance_guid = 4;
//	    bytes payload = 5;
//	}

const (
	snapshotFieldNextSequenceNumber protowire.Number = 1
	snapshotFieldEntry              protowire.Number = 2

	entryFieldSequenceNumber protowire.Number = 1
	entryFieldKind           protowire.Number = 2
	entryFieldWriterGuid     protowire.Number = 3
	entryFieldInstanceGuid   protowire.Number = 4
	entryFieldPayload        protowire.Number = 5
)

// EncodeHistorySnapshot captures the changes and the next sequence number,
// so that a restored cache never reuses a sequence number.
func EncodeHistorySnapshot(cache *MemoryHistoryCache) []byte {
	entries, nextSequenceNumber := cache.snapshot()

	var b []byte
	b = protowire.AppendTag(b, snapshotFieldNextSequenceNumber, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(nextSequenceNumber))
	for _, entry := range entries {
		b = protowire.AppendTag(b, snapshotFieldEntry, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeSnapshotEntry(entry))
	}
	return b
}

func encodeSnapshotEntry(entry HistoryCacheEntry) []byte {
	change := entry.Change

	var b []byte
	b = protowire.AppendTag(b, entryFieldSequenceNumber, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(entry.SequenceNumber))
	b = protowire.AppendTag(b, entryFieldKind, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(change.kind))
	b = protowire.AppendTag(b, entryFieldWriterGuid, protowire.BytesType)
	b = protowire.AppendBytes(b, change.writerGuid.Bytes())
	b = protowire.AppendTag(b, entryFieldInstanceGuid, protowire.BytesType)
	b = protowire.AppendBytes(b, change.instanceGuid.Bytes())
	if payload, ok := change.Payload(); ok {
		b = protowire.AppendTag(b, entryFieldPayload, protowire.BytesType)
		b = protowire.AppendBytes(b, payload)
	}
	return b
}

// DecodeHistorySnapshot restores a cache. Entries beyond the settings capacity
// fail with `ErrHistoryCacheFull`.
func DecodeHistorySnapshot(b []byte, settings *HistoryCacheSettings) (*MemoryHistoryCache, error) {
	var nextSequenceNumber SequenceNumber
	entries := []HistoryCacheEntry{}
	for 0 < len(b) {
		number, wireType, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: snapshot: %s", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case number == snapshotFieldNextSequenceNumber && wireType == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, fmt.Errorf("%w: snapshot: %s", ErrMalformed, protowire.ParseError(n))
			}
			nextSequenceNumber = SequenceNumber(v)
			b = b[n:]
		case number == snapshotFieldEntry && wireType == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("%w: snapshot: %s", ErrMalformed, protowire.ParseError(n))
			}
			entry, err := decodeSnapshotEntry(v)
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(number, wireType, b)
			if n < 0 {
				return nil, fmt.Errorf("%w: snapshot: %s", ErrMalformed, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}

	if nextSequenceNumber == 0 {
		return nil, fmt.Errorf("%w: snapshot has no next sequence number", ErrMalformed)
	}
	if 0 < settings.MaxChanges && settings.MaxChanges < len(entries) {
		return nil, fmt.Errorf("%w: snapshot has %d changes", ErrHistoryCacheFull, len(entries))
	}

	cache := newMemoryHistoryCache(settings, nextSequenceNumber)
	for _, entry := range entries {
		if entry.SequenceNumber == 0 || nextSequenceNumber <= entry.SequenceNumber {
			return nil, fmt.Errorf("%w: snapshot sequence number %d is not below %d", ErrMalformed, entry.SequenceNumber, nextSequenceNumber)
		}
		if _, ok := cache.sequenceNumberItems[entry.SequenceNumber]; ok {
			return nil, fmt.Errorf("%w: snapshot repeats sequence number %d", ErrMalformed, entry.SequenceNumber)
		}
		cache.add(entry.SequenceNumber, entry.Change)
	}
	return cache, nil
}

func decodeSnapshotEntry(b []byte) (HistoryCacheEntry, error) {
	var sequenceNumber SequenceNumber
	var kind ChangeKind
	var writerGuid Guid
	var instanceGuid Guid
	var payload []byte

	for 0 < len(b) {
		number, wireType, n := protowire.ConsumeTag(b)
		if n < 0 {
			return HistoryCacheEntry{}, fmt.Errorf("%w: snapshot entry: %s", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case wireType == protowire.VarintType && (number == entryFieldSequenceNumber || number == entryFieldKind):
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return HistoryCacheEntry{}, fmt.Errorf("%w: snapshot entry: %s", ErrMalformed, protowire.ParseError(n))
			}
			if number == entryFieldSequenceNumber {
				sequenceNumber = SequenceNumber(v)
			} else {
				kind = ChangeKind(v)
			}
			b = b[n:]
		case wireType == protowire.BytesType && (number == entryFieldWriterGuid || number == entryFieldInstanceGuid || number == entryFieldPayload):
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return HistoryCacheEntry{}, fmt.Errorf("%w: snapshot entry: %s", ErrMalformed, protowire.ParseError(n))
			}
			switch number {
			case entryFieldWriterGuid:
				guid, err := GuidFromBytes(v)
				if err != nil {
					return HistoryCacheEntry{}, fmt.Errorf("%w: snapshot writer guid: %s", ErrMalformed, err)
				}
				writerGuid = guid
			case entryFieldInstanceGuid:
				guid, err := GuidFromBytes(v)
				if err != nil {
					return HistoryCacheEntry{}, fmt.Errorf("%w: snapshot instance guid: %s", ErrMalformed, err)
				}
				instanceGuid = guid
			default:
				payload = v
			}
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(number, wireType, b)
			if n < 0 {
				return HistoryCacheEntry{}, fmt.Errorf("%w: snapshot entry: %s", ErrMalformed, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}

	change, err := newChange(kind, writerGuid, instanceGuid, payload)
	if err != nil {
		return HistoryCacheEntry{}, fmt.Errorf("%w: %s", ErrMalformed, err)
	}
	return HistoryCacheEntry{
		SequenceNumber: sequenceNumber,
		Change:         change,
	}, nil
}

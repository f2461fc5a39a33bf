package rtps

import (
	"encoding/binary"
	"fmt"
)

// ChangeFromData reads a change out of a data submessage from the writer
// `NewGuid(writerPrefix, data.WriterId)`.
// The kind comes from the status info inline qos and the instance from the key hash.
func ChangeFromData(writerPrefix GuidPrefix, data *Data) (*Change, error) {
	writerGuid := NewGuid(writerPrefix, data.WriterId)

	instanceGuid := GuidUnknown
	if keyHash, ok := data.InlineQos.Get(PidKeyHash); ok {
		var err error
		instanceGuid, err = GuidFromBytes(keyHash)
		if err != nil {
			return nil, fmt.Errorf("%w: key hash: %s", ErrMalformed, err)
		}
	}

	var statusInfo uint32
	if value, ok := data.InlineQos.Get(PidStatusInfo); ok {
		if len(value) != 4 {
			return nil, fmt.Errorf("%w: status info must be 4 bytes: %d", ErrMalformed, len(value))
		}
		// big endian regardless of the submessage
		statusInfo = binary.BigEndian.Uint32(value)
	}

	switch {
	case statusInfo&StatusInfoDisposed != 0:
		return NewDisposedChange(writerGuid, instanceGuid), nil
	case statusInfo&StatusInfoUnregistered != 0:
		return NewUnregisteredChange(writerGuid, instanceGuid), nil
	case statusInfo&StatusInfoFiltered != 0:
		return NewAliveFilteredChange(writerGuid, instanceGuid), nil
	default:
		return NewAliveChange(writerGuid, instanceGuid, data.SerializedPayload), nil
	}
}

// ToData is the data submessage that carries the change to `readerId`.
func (self *Change) ToData(readerId EntityId, sequenceNumber SequenceNumber) *Data {
	data := &Data{
		ReaderId: readerId,
		WriterId: self.writerGuid.EntityId,
		WriterSn: sequenceNumber,
	}

	var inlineQos ParameterList
	if !self.instanceGuid.IsUnknown() {
		inlineQos = inlineQos.With(PidKeyHash, self.instanceGuid.Bytes())
	}
	var statusInfo uint32
	switch self.kind {
	case ChangeKindNotAliveDisposed:
		statusInfo = StatusInfoDisposed
	case ChangeKindNotAliveUnregistered:
		statusInfo = StatusInfoUnregistered
	case ChangeKindAliveFiltered:
		statusInfo = StatusInfoFiltered
	}
	if statusInfo != 0 {
		inlineQos = inlineQos.With(PidStatusInfo, binary.BigEndian.AppendUint32(nil, statusInfo))
	}
	data.InlineQos = inlineQos

	if payload, ok := self.Payload(); ok {
		data.SerializedPayload = append([]byte{}, payload...)
	}
	return data
}

// HeartbeatFor announces the cache bounds.
// An empty cache announces `[next, next - 1]` so that readers see nothing is available.
func HeartbeatFor(cache *MemoryHistoryCache, readerId EntityId, writerId EntityId, count uint32) *Heartbeat {
	cache.stateLock.RLock()
	defer cache.stateLock.RUnlock()

	firstSn, ok := cache.min()
	lastSn, _ := cache.max()
	if !ok {
		firstSn = cache.nextSequenceNumber
		lastSn = cache.nextSequenceNumber - 1
	}
	return &Heartbeat{
		ReaderId: readerId,
		WriterId: writerId,
		FirstSn:  firstSn,
		LastSn:   lastSn,
		Count:    count,
	}
}

// MissingFrom lists the requested sequence numbers that the cache still holds, ascending.
// The rest of the requested numbers are irrelevant to the reader.
func MissingFrom(cache *MemoryHistoryCache, requested SequenceNumberSet) (held []SequenceNumber, irrelevant []SequenceNumber) {
	cache.stateLock.RLock()
	defer cache.stateLock.RUnlock()

	held = []SequenceNumber{}
	irrelevant = []SequenceNumber{}
	requested.Range(func(sequenceNumber SequenceNumber) bool {
		if _, ok := cache.sequenceNumberItems[sequenceNumber]; ok {
			held = append(held, sequenceNumber)
		} else {
			irrelevant = append(irrelevant, sequenceNumber)
		}
		return true
	})
	return
}

package rtps

import (
	"fmt"
)

type ChangeKind int

const (
	ChangeKindAlive ChangeKind = iota
	ChangeKindAliveFiltered
	ChangeKindNotAliveDisposed
	ChangeKindNotAliveUnregistered
)

func (self ChangeKind) String() string {
	switch self {
	case ChangeKindAlive:
		return "alive"
	case ChangeKindAliveFiltered:
		return "alive_filtered"
	case ChangeKindNotAliveDisposed:
		return "not_alive_disposed"
	case ChangeKindNotAliveUnregistered:
		return "not_alive_unregistered"
	default:
		return fmt.Sprintf("ChangeKind(%d)", int(self))
	}
}

// A change to one data instance by one writer.
// Only alive changes carry a payload. Changes are immutable.
type Change struct {
	kind         ChangeKind
	writerGuid   Guid
	instanceGuid Guid
	payload      []byte
}

func NewAliveChange(writerGuid Guid, instanceGuid Guid, payload []byte) *Change {
	return &Change{
		kind:         ChangeKindAlive,
		writerGuid:   writerGuid,
		instanceGuid: instanceGuid,
		payload:      append([]byte{}, payload...),
	}
}

func NewAliveFilteredChange(writerGuid Guid, instanceGuid Guid) *Change {
	return &Change{
		kind:         ChangeKindAliveFiltered,
		writerGuid:   writerGuid,
		instanceGuid: instanceGuid,
	}
}

func NewDisposedChange(writerGuid Guid, instanceGuid Guid) *Change {
	return &Change{
		kind:         ChangeKindNotAliveDisposed,
		writerGuid:   writerGuid,
		instanceGuid: instanceGuid,
	}
}

func NewUnregisteredChange(writerGuid Guid, instanceGuid Guid) *Change {
	return &Change{
		kind:         ChangeKindNotAliveUnregistered,
		writerGuid:   writerGuid,
		instanceGuid: instanceGuid,
	}
}

func newChange(kind ChangeKind, writerGuid Guid, instanceGuid Guid, payload []byte) (*Change, error) {
	switch kind {
	case ChangeKindAlive:
		return NewAliveChange(writerGuid, instanceGuid, payload), nil
	case ChangeKindAliveFiltered:
		return NewAliveFilteredChange(writerGuid, instanceGuid), nil
	case ChangeKindNotAliveDisposed:
		return NewDisposedChange(writerGuid, instanceGuid), nil
	case ChangeKindNotAliveUnregistered:
		return NewUnregisteredChange(writerGuid, instanceGuid), nil
	default:
		return nil, fmt.Errorf("Unknown change kind: %d", kind)
	}
}

func (self *Change) Kind() ChangeKind {
	return self.kind
}

func (self *Change) WriterGuid() Guid {
	return self.writerGuid
}

func (self *Change) InstanceGuid() Guid {
	return self.instanceGuid
}

// ok is false for every kind except alive
func (self *Change) Payload() (payload []byte, ok bool) {
	if self.kind != ChangeKindAlive {
		return nil, false
	}
	return self.payload, true
}

func (self *Change) String() string {
	return fmt.Sprintf("change(%s writer=%s instance=%s payload=%d)", self.kind, self.writerGuid, self.instanceGuid, len(self.payload))
}

package rtps

import (
	"fmt"
)

// wire values follow the RTPS topic kind enumeration
type TopicKind int32

const (
	TopicKindNoKey   TopicKind = 1
	TopicKindWithKey TopicKind = 2
)

func (self TopicKind) String() string {
	switch self {
	case TopicKindNoKey:
		return "no_key"
	case TopicKindWithKey:
		return "with_key"
	default:
		return fmt.Sprintf("TopicKind(%d)", int32(self))
	}
}

type ReliabilityKind int32

const (
	ReliabilityKindBestEffort ReliabilityKind = 1
	ReliabilityKindReliable   ReliabilityKind = 2
)

func (self ReliabilityKind) String() string {
	switch self {
	case ReliabilityKindBestEffort:
		return "best_effort"
	case ReliabilityKindReliable:
		return "reliable"
	default:
		return fmt.Sprintf("ReliabilityKind(%d)", int32(self))
	}
}

type EndpointSettings struct {
	// zero means take the topic kind from the entity id
	TopicKind       TopicKind
	ReliabilityKind ReliabilityKind
	// empty lists fall back to the participant defaults
	UnicastLocators   []Locator
	MulticastLocators []Locator
}

func DefaultEndpointSettings() *EndpointSettings {
	return &EndpointSettings{
		ReliabilityKind: ReliabilityKindBestEffort,
	}
}

// An endpoint is a reader or a writer, depending on its entity kind.
// Endpoints are created by their group and are immutable afterwards.
type Endpoint struct {
	guid              Guid
	unicastLocators   []Locator
	multicastLocators []Locator
	topicKind         TopicKind
	reliabilityKind   ReliabilityKind
}

func (self *Endpoint) Guid() Guid {
	return self.guid
}

func (self *Endpoint) IsWriter() bool {
	return self.guid.EntityId.IsWriter()
}

func (self *Endpoint) IsReader() bool {
	return self.guid.EntityId.IsReader()
}

func (self *Endpoint) TopicKind() TopicKind {
	return self.topicKind
}

func (self *Endpoint) ReliabilityKind() ReliabilityKind {
	return self.reliabilityKind
}

// may be empty
func (self *Endpoint) UnicastLocators() []Locator {
	return append([]Locator{}, self.unicastLocators...)
}

// may be empty
func (self *Endpoint) MulticastLocators() []Locator {
	return append([]Locator{}, self.multicastLocators...)
}

func (self *Endpoint) String() string {
	return fmt.Sprintf("endpoint(%s %s %s)", self.guid, self.topicKind, self.reliabilityKind)
}

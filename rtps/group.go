package rtps

import (
	"fmt"
	"sync"
)

type GroupRole int

const (
	// a group of writers
	GroupRolePublisher GroupRole = iota
	// a group of readers
	GroupRoleSubscriber
)

func (self GroupRole) String() string {
	switch self {
	case GroupRolePublisher:
		return "publisher"
	case GroupRoleSubscriber:
		return "subscriber"
	default:
		return fmt.Sprintf("GroupRole(%d)", int(self))
	}
}

// allows the endpoint entity id
func (self GroupRole) allows(entityId EntityId) bool {
	switch self {
	case GroupRolePublisher:
		return entityId.IsWriter()
	case GroupRoleSubscriber:
		return entityId.IsReader()
	default:
		return false
	}
}

// A group is either a publisher or a subscriber, never both.
// Groups are only created with `Participant.Publisher` and `Participant.Subscriber`,
// which copy the participant guid prefix into the group guid.
type Group struct {
	guid Guid
	role GroupRole

	stateLock sync.Mutex
	endpoints []*Endpoint
}

func newGroup(guid Guid, role GroupRole) *Group {
	return &Group{
		guid:      guid,
		role:      role,
		endpoints: []*Endpoint{},
	}
}

func (self *Group) Guid() Guid {
	return self.guid
}

func (self *Group) Role() GroupRole {
	return self.role
}

// NewEndpoint adds an endpoint with the group guid prefix.
// The entity kind must be a writer for a publisher and a reader for a subscriber,
// and a keyed entity kind must agree with the requested topic kind.
func (self *Group) NewEndpoint(entityId EntityId, settings *EndpointSettings) (*Endpoint, error) {
	if !self.role.allows(entityId) {
		return nil, fmt.Errorf("%w: %s in %s", ErrEndpointRole, entityId, self.role)
	}
	topicKind, _ := entityId.TopicKind()
	if settings.TopicKind != 0 && settings.TopicKind != topicKind {
		return nil, fmt.Errorf("%w: %s is not %s", ErrTopicKind, entityId, settings.TopicKind)
	}
	reliabilityKind := settings.ReliabilityKind
	if reliabilityKind == 0 {
		reliabilityKind = ReliabilityKindBestEffort
	}

	guid := NewGuid(self.guid.Prefix, entityId)

	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	for _, endpoint := range self.endpoints {
		if endpoint.guid == guid {
			return nil, fmt.Errorf("Endpoint already exists: %s", guid)
		}
	}

	endpoint := &Endpoint{
		guid:              guid,
		unicastLocators:   append([]Locator{}, settings.UnicastLocators...),
		multicastLocators: append([]Locator{}, settings.MulticastLocators...),
		topicKind:         topicKind,
		reliabilityKind:   reliabilityKind,
	}
	self.endpoints = append(self.endpoints, endpoint)
	return endpoint, nil
}

func (self *Group) NewEndpointWithDefaults(entityId EntityId) (*Endpoint, error) {
	return self.NewEndpoint(entityId, DefaultEndpointSettings())
}

// in creation order
func (self *Group) Endpoints() []*Endpoint {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	return append([]*Endpoint{}, self.endpoints...)
}

func (self *Group) Endpoint(entityId EntityId) (*Endpoint, bool) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	for _, endpoint := range self.endpoints {
		if endpoint.guid.EntityId == entityId {
			return endpoint, true
		}
	}
	return nil, false
}

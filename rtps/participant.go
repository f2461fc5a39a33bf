package rtps

// nil and empty fields are unset. Defaults are applied once, in `NewParticipant`.
type ParticipantSettings struct {
	ProtocolVersion          *ProtocolVersion
	VendorId                 *VendorId
	DefaultUnicastLocators   []Locator
	DefaultMulticastLocators []Locator
}

func DefaultParticipantSettings() *ParticipantSettings {
	return &ParticipantSettings{}
}

type Participant struct {
	guid                     Guid
	protocolVersion          ProtocolVersion
	vendorId                 VendorId
	defaultUnicastLocators   []Locator
	defaultMulticastLocators []Locator
}

func NewParticipantWithDefaults(guid Guid) *Participant {
	return NewParticipant(guid, DefaultParticipantSettings())
}

func NewParticipant(guid Guid, settings *ParticipantSettings) *Participant {
	protocolVersion := ProtocolVersionLatest
	if settings.ProtocolVersion != nil {
		protocolVersion = *settings.ProtocolVersion
	}
	vendorId := VendorIdUnknown
	if settings.VendorId != nil {
		vendorId = *settings.VendorId
	}
	return &Participant{
		guid:                     guid,
		protocolVersion:          protocolVersion,
		vendorId:                 vendorId,
		defaultUnicastLocators:   append([]Locator{}, settings.DefaultUnicastLocators...),
		defaultMulticastLocators: append([]Locator{}, settings.DefaultMulticastLocators...),
	}
}

func (self *Participant) Guid() Guid {
	return self.guid
}

func (self *Participant) ProtocolVersion() ProtocolVersion {
	return self.protocolVersion
}

func (self *Participant) VendorId() VendorId {
	return self.vendorId
}

func (self *Participant) DefaultUnicastLocators() []Locator {
	return append([]Locator{}, self.defaultUnicastLocators...)
}

func (self *Participant) DefaultMulticastLocators() []Locator {
	return append([]Locator{}, self.defaultMulticastLocators...)
}

func (self *Participant) Publisher(entityId EntityId) *Group {
	return newGroup(NewGuid(self.guid.Prefix, entityId), GroupRolePublisher)
}

func (self *Participant) Subscriber(entityId EntityId) *Group {
	return newGroup(NewGuid(self.guid.Prefix, entityId), GroupRoleSubscriber)
}

func (self *Participant) UnicastLocatorsFor(endpoint *Endpoint) []Locator {
	if 0 < len(endpoint.unicastLocators) {
		return endpoint.UnicastLocators()
	}
	return self.DefaultUnicastLocators()
}

func (self *Participant) MulticastLocatorsFor(endpoint *Endpoint) []Locator {
	if 0 < len(endpoint.multicastLocators) {
		return endpoint.MulticastLocators()
	}
	return self.DefaultMulticastLocators()
}

// Header returns the message header that identifies this participant as the sender.
func (self *Participant) Header() Header {
	return Header{
		ProtocolVersion: self.protocolVersion,
		VendorId:        self.vendorId,
		GuidPrefix:      self.guid.Prefix,
	}
}

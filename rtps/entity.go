package rtps

// Entity is any addressable actor: participant, group or endpoint.
type Entity interface {
	Guid() Guid
}

// shared by every entity of one participant
func GuidPrefixOf(entity Entity) GuidPrefix {
	return entity.Guid().Prefix
}

// unique within one participant
func EntityIdOf(entity Entity) EntityId {
	return entity.Guid().EntityId
}

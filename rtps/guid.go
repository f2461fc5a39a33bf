package rtps

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/oklog/ulid/v2"
)

const GuidPrefixLen = 12
const EntityIdLen = 4
const GuidLen = GuidPrefixLen + EntityIdLen

// entity kind is the last byte of an entity id
const (
	EntityKindMask          uint8 = 0x3f
	EntityKindUnknown       uint8 = 0x00
	EntityKindParticipant   uint8 = 0x01
	EntityKindWriterWithKey uint8 = 0x02
	EntityKindWriterNoKey   uint8 = 0x03
	EntityKindReaderNoKey   uint8 = 0x04
	EntityKindReaderWithKey uint8 = 0x07
	EntityKindWriterGroup   uint8 = 0x08
	EntityKindReaderGroup   uint8 = 0x09

	EntitySourceMask    uint8 = 0xc0
	EntitySourceUser    uint8 = 0x00
	EntitySourceVendor  uint8 = 0x40
	EntitySourceBuiltin uint8 = 0xc0
)

var (
	EntityIdUnknown                     = EntityId{0x00, 0x00, 0x00, 0x00}
	EntityIdParticipant                 = EntityId{0x00, 0x00, 0x01, 0xc1}
	EntityIdSedpTopicWriter             = EntityId{0x00, 0x00, 0x02, 0xc2}
	EntityIdSedpTopicReader             = EntityId{0x00, 0x00, 0x02, 0xc7}
	EntityIdSedpPublicationsWriter      = EntityId{0x00, 0x00, 0x03, 0xc2}
	EntityIdSedpPublicationsReader      = EntityId{0x00, 0x00, 0x03, 0xc7}
	EntityIdSedpSubscriptionsWriter     = EntityId{0x00, 0x00, 0x04, 0xc2}
	EntityIdSedpSubscriptionsReader     = EntityId{0x00, 0x00, 0x04, 0xc7}
	EntityIdSpdpParticipantWriter       = EntityId{0x00, 0x01, 0x00, 0xc2}
	EntityIdSpdpParticipantReader       = EntityId{0x00, 0x01, 0x00, 0xc7}
	EntityIdP2pParticipantMessageWriter = EntityId{0x00, 0x02, 0x00, 0xc2}
	EntityIdP2pParticipantMessageReader = EntityId{0x00, 0x02, 0x00, 0xc7}
)

var GuidPrefixUnknown = GuidPrefix{}

// comparable
type GuidPrefix [GuidPrefixLen]byte

// NewGuidPrefix returns a prefix led by the vendor id and filled with ulid entropy.
func NewGuidPrefix(vendorId VendorId) GuidPrefix {
	id := ulid.Make()
	var prefix GuidPrefix
	copy(prefix[0:2], vendorId[:])
	// the 10 trailing ulid bytes are the random component
	copy(prefix[2:], id[6:16])
	return prefix
}

func GuidPrefixFromBytes(b []byte) (GuidPrefix, error) {
	if len(b) != GuidPrefixLen {
		return GuidPrefix{}, fmt.Errorf("Guid prefix must be %d bytes: %d", GuidPrefixLen, len(b))
	}
	return GuidPrefix(b), nil
}

func ParseGuidPrefix(s string) (GuidPrefix, error) {
	b, err := hex.DecodeString(stripDashes(s))
	if err != nil {
		return GuidPrefix{}, err
	}
	return GuidPrefixFromBytes(b)
}

func (self GuidPrefix) Bytes() []byte {
	return self[:]
}

func (self GuidPrefix) String() string {
	return fmt.Sprintf("%x-%x-%x", self[0:4], self[4:8], self[8:12])
}

func (self GuidPrefix) EncodeCdr(w *CdrWriter) {
	w.WriteBytes(self[:])
}

func (self *GuidPrefix) DecodeCdr(r *CdrReader) error {
	offset := r.Offset()
	if err := r.ReadInto(self[:]); err != nil {
		return decodeError("guid_prefix", offset, err)
	}
	return nil
}

// comparable
// always raw bytes on the wire, regardless of the submessage endianness flag
type EntityId [EntityIdLen]byte

func EntityIdFromBytes(b []byte) (EntityId, error) {
	if len(b) != EntityIdLen {
		return EntityId{}, fmt.Errorf("Entity id must be %d bytes: %d", EntityIdLen, len(b))
	}
	return EntityId(b), nil
}

// NewEntityId joins a 3 byte key with an entity kind byte.
func NewEntityId(key [3]byte, kind uint8) EntityId {
	return EntityId{key[0], key[1], key[2], kind}
}

func (self EntityId) Key() [3]byte {
	return [3]byte{self[0], self[1], self[2]}
}

func (self EntityId) Kind() uint8 {
	return self[3]
}

func (self EntityId) IsWriter() bool {
	switch self.Kind() & EntityKindMask {
	case EntityKindWriterWithKey, EntityKindWriterNoKey:
		return true
	default:
		return false
	}
}

func (self EntityId) IsReader() bool {
	switch self.Kind() & EntityKindMask {
	case EntityKindReaderWithKey, EntityKindReaderNoKey:
		return true
	default:
		return false
	}
}

func (self EntityId) IsBuiltin() bool {
	return self.Kind()&EntitySourceMask == EntitySourceBuiltin
}

// the topic kind implied by the entity kind, for readers and writers only
func (self EntityId) TopicKind() (TopicKind, bool) {
	switch self.Kind() & EntityKindMask {
	case EntityKindWriterWithKey, EntityKindReaderWithKey:
		return TopicKindWithKey, true
	case EntityKindWriterNoKey, EntityKindReaderNoKey:
		return TopicKindNoKey, true
	default:
		return 0, false
	}
}

func (self EntityId) String() string {
	return fmt.Sprintf("%x", self[:])
}

func (self EntityId) EncodeCdr(w *CdrWriter) {
	w.WriteBytes(self[:])
}

func (self *EntityId) DecodeCdr(r *CdrReader) error {
	offset := r.Offset()
	if err := r.ReadInto(self[:]); err != nil {
		return decodeError("entity_id", offset, err)
	}
	return nil
}

// comparable
type Guid struct {
	Prefix   GuidPrefix
	EntityId EntityId
}

var GuidUnknown = Guid{}

func NewGuid(prefix GuidPrefix, entityId EntityId) Guid {
	return Guid{
		Prefix:   prefix,
		EntityId: entityId,
	}
}

func GuidFromBytes(b []byte) (Guid, error) {
	if len(b) != GuidLen {
		return Guid{}, errors.New("Guid must be 16 bytes")
	}
	return Guid{
		Prefix:   GuidPrefix(b[0:GuidPrefixLen]),
		EntityId: EntityId(b[GuidPrefixLen:GuidLen]),
	}, nil
}

func RequireGuidFromBytes(b []byte) Guid {
	guid, err := GuidFromBytes(b)
	if err != nil {
		panic(err)
	}
	return guid
}

func (self Guid) Bytes() []byte {
	b := make([]byte, GuidLen)
	copy(b[0:GuidPrefixLen], self.Prefix[:])
	copy(b[GuidPrefixLen:], self.EntityId[:])
	return b
}

func (self Guid) IsUnknown() bool {
	return self == GuidUnknown
}

func (self Guid) String() string {
	return fmt.Sprintf("%s:%s", self.Prefix, self.EntityId)
}

func (self Guid) EncodeCdr(w *CdrWriter) {
	self.Prefix.EncodeCdr(w)
	self.EntityId.EncodeCdr(w)
}

func (self *Guid) DecodeCdr(r *CdrReader) error {
	if err := self.Prefix.DecodeCdr(r); err != nil {
		return err
	}
	return self.EntityId.DecodeCdr(r)
}

func stripDashes(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i += 1 {
		if s[i] != '-' && s[i] != ':' {
			out = append(out, s[i])
		}
	}
	return string(out)
}

package rtps

import (
	"errors"
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestNewGuidPrefix(t *testing.T) {
	vendorId := VendorId{0x01, 0x0f}
	seen := map[GuidPrefix]bool{}
	for i := 0; i < 1000; i += 1 {
		prefix := NewGuidPrefix(vendorId)
		assert.Equal(t, vendorId[:], prefix[0:2])
		assert.Equal(t, false, seen[prefix])
		seen[prefix] = true
	}
}

func TestGuidBytes(t *testing.T) {
	guid := NewGuid(testPrefix, testWriterId)
	b := guid.Bytes()
	assert.Equal(t, GuidLen, len(b))

	guid2, err := GuidFromBytes(b)
	assert.Equal(t, nil, err)
	assert.Equal(t, guid, guid2)

	_, err = GuidFromBytes(b[1:])
	assert.NotEqual(t, nil, err)

	assert.Equal(t, guid, RequireGuidFromBytes(b))
	assert.Equal(t, true, GuidUnknown.IsUnknown())
	assert.Equal(t, false, guid.IsUnknown())

	for _, order := range []ByteOrder{BigEndian, LittleEndian} {
		// entity ids are raw bytes in either order
		assert.Equal(t, b, EncodeCdr(guid, order))
		var decoded Guid
		err := DecodeCdr(&decoded, order, b)
		assert.Equal(t, nil, err)
		assert.Equal(t, guid, decoded)
	}

	var decoded Guid
	err = DecodeCdr(&decoded, BigEndian, b[:10])
	assert.Equal(t, true, errors.Is(err, ErrTruncated))
}

func TestParseGuidPrefix(t *testing.T) {
	prefix, err := ParseGuidPrefix(testPrefix.String())
	assert.Equal(t, nil, err)
	assert.Equal(t, testPrefix, prefix)

	_, err = ParseGuidPrefix("010f")
	assert.NotEqual(t, nil, err)
	_, err = ParseGuidPrefix("not hex")
	assert.NotEqual(t, nil, err)
}

func TestEntityIdKind(t *testing.T) {
	assert.Equal(t, true, EntityIdSpdpParticipantWriter.IsWriter())
	assert.Equal(t, true, EntityIdSpdpParticipantWriter.IsBuiltin())
	assert.Equal(t, true, EntityIdSedpPublicationsReader.IsReader())
	assert.Equal(t, false, EntityIdParticipant.IsWriter())
	assert.Equal(t, false, EntityIdParticipant.IsReader())
	assert.Equal(t, true, EntityIdParticipant.IsBuiltin())

	assert.Equal(t, true, testWriterId.IsWriter())
	assert.Equal(t, false, testWriterId.IsBuiltin())
	assert.Equal(t, [3]byte{0, 0, 1}, testWriterId.Key())

	topicKind, ok := testWriterId.TopicKind()
	assert.Equal(t, true, ok)
	assert.Equal(t, TopicKindWithKey, topicKind)

	topicKind, ok = NewEntityId([3]byte{0, 0, 2}, EntityKindReaderNoKey).TopicKind()
	assert.Equal(t, true, ok)
	assert.Equal(t, TopicKindNoKey, topicKind)

	_, ok = EntityIdParticipant.TopicKind()
	assert.Equal(t, false, ok)
}

func TestVendorId(t *testing.T) {
	name, ok := VendorId{0x01, 0x0f}.Name()
	assert.Equal(t, true, ok)
	assert.Equal(t, "eProsima", name)

	_, ok = VendorIdUnknown.Name()
	assert.Equal(t, false, ok)
	assert.Equal(t, "0000", VendorIdUnknown.String())
}

func TestProtocolVersion(t *testing.T) {
	assert.Equal(t, "2.5", ProtocolVersionLatest.String())
	assert.Equal(t, true, ProtocolVersion{Major: 2, Minor: 1}.Less(ProtocolVersionLatest))
	assert.Equal(t, false, ProtocolVersionLatest.Less(ProtocolVersion{Major: 2, Minor: 1}))
	assert.Equal(t, true, ProtocolVersion{Major: 1, Minor: 9}.Less(ProtocolVersion{Major: 2, Minor: 0}))
}

package rtps

import (
	"bytes"
	"errors"
	"net/netip"
	"testing"

	"github.com/go-playground/assert/v2"
)

var testPrefix = GuidPrefix{0x01, 0x0f, 0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09}

var testReaderId = NewEntityId([3]byte{0x00, 0x00, 0x01}, EntityKindReaderWithKey)
var testWriterId = NewEntityId([3]byte{0x00, 0x00, 0x01}, EntityKindWriterWithKey)

func testHeader() Header {
	return NewHeader(testPrefix, VendorId{0x01, 0x0f})
}

func TestSubMessageHeaderIsLast(t *testing.T) {
	assert.Equal(t, true, SubMessageHeader{Kind: SubMessageKindData, Length: 0}.IsLast())
	assert.Equal(t, false, SubMessageHeader{Kind: SubMessageKindData, Length: 20}.IsLast())
}

func TestSubMessageHeaderEndianness(t *testing.T) {
	cases := []struct {
		flags uint8
		order ByteOrder
	}{
		{0x00, BigEndian},
		{0x01, LittleEndian},
		{0xfe, BigEndian},
		{0xff, LittleEndian},
		{0x03, LittleEndian},
		{0x02, BigEndian},
	}
	for _, c := range cases {
		assert.Equal(t, c.order, SubMessageHeader{Flags: c.flags}.Endianness())
	}
}

func TestSubMessageHeaderLengthOrder(t *testing.T) {
	for _, order := range []ByteOrder{BigEndian, LittleEndian} {
		header := SubMessageHeader{
			Kind:   SubMessageKindHeartbeat,
			Flags:  HeartbeatFlagFinal | order.FlagBit(),
			Length: 0x0102,
		}
		// the writer order does not matter, the flags do
		b := EncodeCdr(header, BigEndian)
		if order == LittleEndian {
			assert.Equal(t, []byte{0x07, 0x03, 0x02, 0x01}, b)
		} else {
			assert.Equal(t, []byte{0x07, 0x02, 0x01, 0x02}, b)
		}

		var decoded SubMessageHeader
		err := DecodeCdr(&decoded, BigEndian, b)
		assert.Equal(t, nil, err)
		assert.Equal(t, header, decoded)
	}
}

func TestHeaderWire(t *testing.T) {
	b := EncodeCdr(testHeader(), BigEndian)
	assert.Equal(t, HeaderLen, len(b))
	assert.Equal(t, []byte("RTPS"), b[0:4])
	assert.Equal(t, []byte{0x00, 0x02, 0x00, 0x05}, b[4:8])
	assert.Equal(t, []byte{0x01, 0x0f}, b[8:10])
	assert.Equal(t, testPrefix[:], b[10:22])

	var header Header
	err := DecodeCdr(&header, BigEndian, b)
	assert.Equal(t, nil, err)
	assert.Equal(t, testHeader(), header)
}

func TestMessageRoundTrip(t *testing.T) {
	message, err := NewMessage(
		testHeader(),
		nil,
		NewSubMessage(LittleEndian, &InfoTimestamp{Timestamp: Time{Seconds: 1700000000, Fraction: 0x80000000}}),
		NewSubMessage(BigEndian, &InfoDestination{GuidPrefix: testPrefix}),
		NewSubMessage(LittleEndian, &Data{
			ReaderId:          testReaderId,
			WriterId:          testWriterId,
			WriterSn:          7,
			SerializedPayload: []byte{0x00, 0x01, 0x00, 0x00, 0xaa, 0xbb},
		}),
		NewSubMessage(BigEndian, &Heartbeat{
			ReaderId: testReaderId,
			WriterId: testWriterId,
			FirstSn:  1,
			LastSn:   7,
			Count:    3,
			Final:    true,
		}),
		NewSubMessage(LittleEndian, &AckNack{
			ReaderId:      testReaderId,
			WriterId:      testWriterId,
			ReaderSnState: RequireSequenceNumberSet(100, 101, 110, 200),
			Count:         1,
		}),
	)
	assert.Equal(t, nil, err)

	b := Encode(message)
	decoded, err := Decode(b)
	assert.Equal(t, nil, err)
	assert.Equal(t, message.Header(), decoded.Header())
	assert.Equal(t, message.SubMessages(), decoded.SubMessages())
	_, ok := decoded.Extension()
	assert.Equal(t, false, ok)

	// encode is stable
	assert.Equal(t, b, Encode(decoded))
}

func TestMessageAckNackWire(t *testing.T) {
	message := RequireMessage(
		testHeader(),
		NewSubMessage(LittleEndian, &AckNack{
			ReaderId:      testReaderId,
			WriterId:      testWriterId,
			ReaderSnState: RequireSequenceNumberSet(100, 101, 110, 200),
			Count:         1,
			Final:         true,
		}),
	)
	b := Encode(message)

	// header, submessage header, ids, base, bit count, 4 words, count
	assert.Equal(t, HeaderLen+SubMessageHeaderLen+40, len(b))
	subMessage := b[HeaderLen:]
	assert.Equal(t, []byte{0x06, 0x03, 40, 0x00}, subMessage[0:4])
	assert.Equal(t, testReaderId[:], subMessage[4:8])
	assert.Equal(t, testWriterId[:], subMessage[8:12])
	assert.Equal(t, []byte{100, 0, 0, 0, 0, 0, 0, 0}, subMessage[12:20])
	assert.Equal(t, []byte{128, 0, 0, 0}, subMessage[20:24])
	assert.Equal(t, []byte{0x02, 0x04, 0x00, 0x00}, subMessage[24:28])
	assert.Equal(t, []byte{1, 0, 0, 0}, subMessage[40:44])
}

func TestNewMessageValidation(t *testing.T) {
	_, err := NewMessage(testHeader(), nil)
	assert.Equal(t, ErrNoSubmessages, err)

	_, err = NewMessage(
		testHeader(),
		nil,
		NewSubMessage(BigEndian, &Pad{}),
		NewSubMessage(BigEndian, &InfoDestination{}),
	)
	assert.Equal(t, true, errors.Is(err, ErrEmptyBody))

	large := &Data{
		ReaderId:          testReaderId,
		WriterId:          testWriterId,
		WriterSn:          1,
		SerializedPayload: bytes.Repeat([]byte{0x5a}, 70000),
	}
	_, err = NewMessage(
		testHeader(),
		nil,
		NewSubMessage(BigEndian, large),
		NewSubMessage(BigEndian, &InfoDestination{}),
	)
	assert.Equal(t, true, errors.Is(err, ErrBodyTooLarge))

	// an empty last submessage is fine
	_, err = NewMessage(
		testHeader(),
		nil,
		NewSubMessage(BigEndian, &InfoDestination{}),
		NewSubMessage(BigEndian, &Pad{}),
	)
	assert.Equal(t, nil, err)

	_, err = NewMessage(
		testHeader(),
		&SubMessage{Body: &Pad{Size: 4}},
		NewSubMessage(BigEndian, &InfoDestination{}),
	)
	assert.Equal(t, true, errors.Is(err, ErrMalformed))
}

func TestMessageLargeLastSubMessage(t *testing.T) {
	large := &Data{
		ReaderId:          testReaderId,
		WriterId:          testWriterId,
		WriterSn:          1,
		SerializedPayload: bytes.Repeat([]byte{0x5a}, 70000),
	}
	subMessage := NewSubMessage(LittleEndian, large)
	assert.Equal(t, true, subMessage.Header.IsLast())

	message := RequireMessage(
		testHeader(),
		NewSubMessage(BigEndian, &InfoDestination{GuidPrefix: testPrefix}),
		subMessage,
	)
	b := Encode(message)
	// the length sentinel
	lengthOffset := HeaderLen + SubMessageHeaderLen + GuidPrefixLen + 2
	assert.Equal(t, []byte{0x00, 0x00}, b[lengthOffset:lengthOffset+2])

	decoded, err := Decode(b)
	assert.Equal(t, nil, err)
	subMessages := decoded.SubMessages()
	assert.Equal(t, 2, len(subMessages))
	assert.Equal(t, large, subMessages[1].Body)
}

func TestDecodeLengthZeroConsumesRest(t *testing.T) {
	w := NewCdrWriter(BigEndian)
	testHeader().EncodeCdr(w)
	SubMessageHeader{Kind: SubMessageKindPad, Flags: 0x01, Length: 0}.EncodeCdr(w)
	w.WriteZeros(12)

	message, err := Decode(w.Bytes())
	assert.Equal(t, nil, err)
	subMessages := message.SubMessages()
	assert.Equal(t, 1, len(subMessages))
	assert.Equal(t, &Pad{Size: 12}, subMessages[0].Body)
}

func TestDecodeErrors(t *testing.T) {
	valid := Encode(RequireMessage(
		testHeader(),
		NewSubMessage(BigEndian, &InfoDestination{GuidPrefix: testPrefix}),
	))

	badId := append([]byte{}, valid...)
	badId[0] = 'X'
	_, err := Decode(badId)
	assert.Equal(t, true, errors.Is(err, ErrBadProtocolId))

	_, err = Decode(valid[:HeaderLen])
	assert.Equal(t, true, errors.Is(err, ErrNoSubmessages))

	_, err = Decode(valid[:HeaderLen-1])
	assert.Equal(t, true, errors.Is(err, ErrTruncated))

	// body shorter than the length
	_, err = Decode(valid[:len(valid)-1])
	assert.Equal(t, true, errors.Is(err, ErrTruncated))

	// partial submessage header
	_, err = Decode(valid[:HeaderLen+2])
	assert.Equal(t, true, errors.Is(err, ErrTruncated))

	unknown := append([]byte{}, valid...)
	unknown[HeaderLen] = 0x03
	_, err = Decode(unknown)
	assert.Equal(t, true, errors.Is(err, ErrUnknownSubmessageKind))

	// every prefix of a valid message fails without a panic
	for i := 0; i < len(valid); i += 1 {
		_, err := Decode(valid[:i])
		assert.NotEqual(t, nil, err)
	}
}

func TestDecodeVendorSubMessage(t *testing.T) {
	vendor := &VendorSubMessage{
		VendorKind:  0x80,
		VendorFlags: 0x40,
		Bytes:       []byte{0x01, 0x02, 0x03, 0x04},
	}
	message := RequireMessage(testHeader(), NewSubMessage(LittleEndian, vendor))

	decoded, err := Decode(Encode(message))
	assert.Equal(t, nil, err)
	assert.Equal(t, vendor, decoded.SubMessages()[0].Body)
	assert.Equal(t, uint8(0x41), decoded.SubMessages()[0].Header.Flags)
}

func TestMessageHeaderExtension(t *testing.T) {
	messageLength := uint32(1234)
	timestamp := Time{Seconds: 10, Fraction: 20}
	extension := &HeaderExtension{
		MessageLength: &messageLength,
		Timestamp:     &timestamp,
		UExtension4:   &[4]byte{1, 2, 3, 4},
		WExtension8:   &[8]byte{1, 2, 3, 4, 5, 6, 7, 8},
		Checksum:      []byte{0xde, 0xad, 0xbe, 0xef, 0xde, 0xad, 0xbe, 0xef},
		Parameters: ParameterList{
			{Id: PidVendorId, Value: []byte{0x01, 0x0f, 0x00, 0x00}},
		},
	}
	extensionSubMessage := NewSubMessage(LittleEndian, extension)
	assert.Equal(t, uint8(0x01|0x02|0x04|0x08|0x10|0x40|0x80), extensionSubMessage.Header.Flags)

	message, err := NewMessage(
		testHeader(),
		&extensionSubMessage,
		NewSubMessage(BigEndian, &InfoDestination{GuidPrefix: testPrefix}),
	)
	assert.Equal(t, nil, err)

	b := Encode(message)
	assert.Equal(t, uint8(SubMessageKindHeaderExtension), b[HeaderLen])

	decoded, err := Decode(b)
	assert.Equal(t, nil, err)
	decodedExtension, ok := decoded.Extension()
	assert.Equal(t, true, ok)
	assert.Equal(t, extension, decodedExtension)
	assert.Equal(t, 1, len(decoded.SubMessages()))

	badChecksum := &HeaderExtension{Checksum: []byte{1, 2, 3}}
	badSubMessage := NewSubMessage(BigEndian, badChecksum)
	_, err = NewMessage(testHeader(), &badSubMessage, NewSubMessage(BigEndian, &InfoDestination{}))
	assert.Equal(t, true, errors.Is(err, ErrMalformed))
}

func TestDecodeHeaderExtensionMustFollowHeader(t *testing.T) {
	messageLength := uint32(1)
	w := NewCdrWriter(BigEndian)
	testHeader().EncodeCdr(w)
	NewSubMessage(BigEndian, &InfoDestination{GuidPrefix: testPrefix}).encode(w, false)
	NewSubMessage(BigEndian, &HeaderExtension{MessageLength: &messageLength}).encode(w, true)

	_, err := Decode(w.Bytes())
	assert.Equal(t, true, errors.Is(err, ErrMalformed))
}

func TestEncodeTakesFlagsFromBody(t *testing.T) {
	data := &Data{
		ReaderId:          testReaderId,
		WriterId:          testWriterId,
		WriterSn:          1,
		SerializedPayload: []byte{1, 2, 3, 4},
	}
	subMessage := NewSubMessage(LittleEndian, data)
	// set after the header was derived
	data.InlineQos = ParameterList{}.With(PidStatusInfo, []byte{0, 0, 0, 1})
	message := RequireMessage(testHeader(), subMessage)

	decoded, err := Decode(Encode(message))
	assert.Equal(t, nil, err)
	decodedSubMessage := decoded.SubMessages()[0]
	assert.Equal(t, LittleEndian, decodedSubMessage.Endianness())
	assert.Equal(t, FlagEndianness|DataFlagInlineQos|DataFlagData, decodedSubMessage.Header.Flags)
	decodedData := decodedSubMessage.Body.(*Data)
	assert.Equal(t, data.InlineQos, decodedData.InlineQos)
	assert.Equal(t, []byte{1, 2, 3, 4}, decodedData.SerializedPayload)
}

func TestNewMessageKindMismatch(t *testing.T) {
	ackNack := &AckNack{
		ReaderId:      testReaderId,
		WriterId:      testWriterId,
		ReaderSnState: RequireSequenceNumberSet(1),
		Count:         1,
	}
	_, err := NewMessage(
		testHeader(),
		nil,
		SubMessage{
			Header: SubMessageHeader{Kind: SubMessageKindData},
			Body:   ackNack,
		},
	)
	assert.Equal(t, true, errors.Is(err, ErrMalformed))

	_, err = NewMessage(
		testHeader(),
		&SubMessage{
			Header: SubMessageHeader{Kind: SubMessageKindPad},
			Body:   &HeaderExtension{},
		},
		NewSubMessage(BigEndian, ackNack),
	)
	assert.Equal(t, true, errors.Is(err, ErrMalformed))
}

func TestNewMessageParameterLimits(t *testing.T) {
	data := func(parameters ParameterList) SubMessage {
		return NewSubMessage(BigEndian, &Data{
			ReaderId:          testReaderId,
			WriterId:          testWriterId,
			WriterSn:          1,
			InlineQos:         parameters,
			SerializedPayload: []byte{1, 2, 3, 4},
		})
	}

	_, err := NewMessage(testHeader(), nil, data(ParameterList{}.With(PidTopicName, make([]byte, 70000))))
	assert.Equal(t, true, errors.Is(err, ErrParameterTooLarge))

	_, err = NewMessage(testHeader(), nil, data(ParameterList{}.With(PidTopicName, make([]byte, MaxParameterValueLen+1))))
	assert.Equal(t, true, errors.Is(err, ErrParameterTooLarge))

	_, err = NewMessage(testHeader(), nil, data(ParameterList{{Id: PidSentinel, Value: []byte{1, 2, 3, 4}}}))
	assert.Equal(t, true, errors.Is(err, ErrMalformed))

	_, err = NewMessage(
		testHeader(),
		&SubMessage{
			Header: SubMessageHeader{Kind: SubMessageKindHeaderExtension},
			Body: &HeaderExtension{
				Parameters: ParameterList{}.With(PidTopicName, make([]byte, 70000)),
			},
		},
		NewSubMessage(BigEndian, &InfoDestination{}),
	)
	assert.Equal(t, true, errors.Is(err, ErrParameterTooLarge))

	// the largest value still round trips, in a last submessage
	largest := ParameterList{}.With(PidTopicName, bytes.Repeat([]byte{0x5a}, MaxParameterValueLen))
	message, err := NewMessage(testHeader(), nil, data(largest))
	assert.Equal(t, nil, err)
	decoded, err := Decode(Encode(message))
	assert.Equal(t, nil, err)
	assert.Equal(t, largest, decoded.SubMessages()[0].Body.(*Data).InlineQos)
}

func TestNewMessageZeroLocator(t *testing.T) {
	locator := RequireLocator(LocatorKindUdpv4, netip.MustParseAddrPort("10.0.0.9:7411"))

	_, err := NewMessage(testHeader(), nil, NewSubMessage(BigEndian, &InfoReply{
		UnicastLocators: []Locator{locator, {}},
	}))
	assert.Equal(t, true, errors.Is(err, ErrBadLocator))

	_, err = NewMessage(testHeader(), nil, NewSubMessage(BigEndian, &InfoReply{
		UnicastLocators:   []Locator{locator},
		MulticastLocators: []Locator{{}},
	}))
	assert.Equal(t, true, errors.Is(err, ErrBadLocator))

	assert.Equal(t, false, Locator{}.IsValid())
	assert.Equal(t, true, locator.IsValid())
}

package rtps

import (
	"fmt"
	"strings"
)

// A message is a header, an optional header extension and one or more submessages.
// Messages are only built with `NewMessage` or `Decode`, so every message can be encoded.
type Message struct {
	header      Header
	extension   *SubMessage
	subMessages []SubMessage
}

// NewMessage validates the framing of the submessages.
// `extension` may be nil. When present its body must be a `*HeaderExtension`.
// Only the last submessage may have an empty body or a body longer than `MaxSubMessageBodyLen`.
func NewMessage(header Header, extension *SubMessage, subMessages ...SubMessage) (*Message, error) {
	if len(subMessages) == 0 {
		return nil, ErrNoSubmessages
	}
	if extension != nil {
		if _, ok := extension.Body.(*HeaderExtension); !ok {
			return nil, fmt.Errorf("%w: header extension body is %T", ErrMalformed, extension.Body)
		}
		if err := extension.validate(); err != nil {
			return nil, err
		}
		if err := checkNotLast(*extension, -1); err != nil {
			return nil, err
		}
	}
	for i, subMessage := range subMessages {
		if err := subMessage.validate(); err != nil {
			return nil, fmt.Errorf("submessage %d: %w", i, err)
		}
		if _, ok := subMessage.Body.(*HeaderExtension); ok {
			return nil, fmt.Errorf("%w: header extension at submessage %d", ErrMalformed, i)
		}
		if i+1 < len(subMessages) {
			if err := checkNotLast(subMessage, i); err != nil {
				return nil, err
			}
		}
	}
	var extensionCopy *SubMessage
	if extension != nil {
		e := *extension
		extensionCopy = &e
	}
	return &Message{
		header:      header,
		extension:   extensionCopy,
		subMessages: append([]SubMessage{}, subMessages...),
	}, nil
}

func RequireMessage(header Header, subMessages ...SubMessage) *Message {
	message, err := NewMessage(header, nil, subMessages...)
	if err != nil {
		panic(err)
	}
	return message
}

// a submessage that is followed by another cannot use the length 0 sentinel
func checkNotLast(subMessage SubMessage, i int) error {
	n := len(subMessage.encodeBody())
	if n == 0 {
		return fmt.Errorf("%w: submessage %d (%s)", ErrEmptyBody, i, subMessage.Header.Kind)
	}
	if MaxSubMessageBodyLen < n {
		return fmt.Errorf("%w: submessage %d (%s) is %d bytes", ErrBodyTooLarge, i, subMessage.Header.Kind, n)
	}
	return nil
}

func (self *Message) Header() Header {
	return self.header
}

func (self *Message) Extension() (*HeaderExtension, bool) {
	if self.extension == nil {
		return nil, false
	}
	return self.extension.Body.(*HeaderExtension), true
}

func (self *Message) SubMessages() []SubMessage {
	return append([]SubMessage{}, self.subMessages...)
}

func (self *Message) String() string {
	parts := []string{self.header.String()}
	if self.extension != nil {
		parts = append(parts, self.extension.String())
	}
	for _, subMessage := range self.subMessages {
		parts = append(parts, subMessage.String())
	}
	return strings.Join(parts, "\n  ")
}

// Encode cannot fail. Lengths are derived from the encoded bodies.
func Encode(message *Message) []byte {
	w := NewCdrWriter(BigEndian)
	message.header.EncodeCdr(w)
	if message.extension != nil {
		message.extension.encode(w, false)
	}
	for i, subMessage := range message.subMessages {
		subMessage.encode(w, i+1 == len(message.subMessages))
	}
	return w.Bytes()
}

// Decode parses one message from one datagram.
// A header extension is only recognized immediately after the header.
// A submessage with length 0 takes the rest of the buffer.
func Decode(b []byte) (*Message, error) {
	r := NewCdrReader(BigEndian, b)

	var header Header
	if err := header.DecodeCdr(r); err != nil {
		return nil, err
	}

	message := &Message{
		header:      header,
		subMessages: []SubMessage{},
	}
	for 0 < r.Remaining() {
		offset := r.Offset()
		subMessage, err := decodeSubMessage(r)
		if err != nil {
			return nil, err
		}
		if subMessage.Header.Kind == SubMessageKindHeaderExtension {
			if message.extension != nil || 0 < len(message.subMessages) {
				return nil, decodeError("header_extension", offset, fmt.Errorf("%w: header extension must follow the header", ErrMalformed))
			}
			message.extension = &subMessage
			continue
		}
		message.subMessages = append(message.subMessages, subMessage)
	}
	if len(message.subMessages) == 0 {
		return nil, decodeError("message", r.Offset(), ErrNoSubmessages)
	}
	return message, nil
}

package rtps

// The receiver state while the submessages of one message are interpreted.
// Interpreter submessages update it. Entity submessages are delivered with a copy of it.
type ReceiveContext struct {
	SourceVersion          ProtocolVersion
	SourceVendorId         VendorId
	SourceGuidPrefix       GuidPrefix
	DestGuidPrefix         GuidPrefix
	UnicastReplyLocators   []Locator
	MulticastReplyLocators []Locator
	HaveTimestamp          bool
	Timestamp              Time
}

func (self *ReceiveContext) SourceGuid(entityId EntityId) Guid {
	return NewGuid(self.SourceGuidPrefix, entityId)
}

func (self *ReceiveContext) DestGuid(entityId EntityId) Guid {
	return NewGuid(self.DestGuidPrefix, entityId)
}

func (self *ReceiveContext) copy() *ReceiveContext {
	context := *self
	context.UnicastReplyLocators = append([]Locator{}, self.UnicastReplyLocators...)
	context.MulticastReplyLocators = append([]Locator{}, self.MulticastReplyLocators...)
	return &context
}

type ReceiveFunction func(context *ReceiveContext, subMessage SubMessage)

// Receiver walks decoded messages for one local participant.
// Entity submessages addressed to another participant are skipped.
type Receiver struct {
	localPrefix GuidPrefix
}

func NewReceiver(localPrefix GuidPrefix) *Receiver {
	return &Receiver{
		localPrefix: localPrefix,
	}
}

// returns the number of entity submessages delivered
func (self *Receiver) Receive(message *Message, receive ReceiveFunction) int {
	return self.receive(message, nil, receive)
}

// the source locator is the initial unicast reply locator
func (self *Receiver) ReceiveFrom(message *Message, source Locator, receive ReceiveFunction) int {
	return self.receive(message, []Locator{source}, receive)
}

func (self *Receiver) receive(message *Message, replyLocators []Locator, receive ReceiveFunction) int {
	header := message.Header()
	context := &ReceiveContext{
		SourceVersion:        header.ProtocolVersion,
		SourceVendorId:       header.VendorId,
		SourceGuidPrefix:     header.GuidPrefix,
		DestGuidPrefix:       self.localPrefix,
		UnicastReplyLocators: replyLocators,
		Timestamp:            TimeInvalid,
	}

	delivered := 0
	for _, subMessage := range message.subMessages {
		switch body := subMessage.Body.(type) {
		case *InfoSource:
			context.SourceVersion = body.ProtocolVersion
			context.SourceVendorId = body.VendorId
			context.SourceGuidPrefix = body.GuidPrefix
			context.UnicastReplyLocators = nil
			context.MulticastReplyLocators = nil
			context.HaveTimestamp = false
			context.Timestamp = TimeInvalid
		case *InfoDestination:
			if body.GuidPrefix == GuidPrefixUnknown {
				context.DestGuidPrefix = self.localPrefix
			} else {
				context.DestGuidPrefix = body.GuidPrefix
			}
		case *InfoTimestamp:
			if body.Invalidate {
				context.HaveTimestamp = false
				context.Timestamp = TimeInvalid
			} else {
				context.HaveTimestamp = true
				context.Timestamp = body.Timestamp
			}
		case *InfoReply:
			context.UnicastReplyLocators = body.UnicastLocators
			if body.MulticastLocators != nil {
				context.MulticastReplyLocators = body.MulticastLocators
			}
		case *Pad, *VendorSubMessage:
		default:
			if context.DestGuidPrefix != self.localPrefix {
				continue
			}
			receive(context.copy(), subMessage)
			delivered += 1
		}
	}
	return delivered
}

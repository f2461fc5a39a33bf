package rtps

import (
	"fmt"
)

type ParameterId uint16

const (
	PidPad                ParameterId = 0x0000
	PidSentinel           ParameterId = 0x0001
	PidTopicName          ParameterId = 0x0005
	PidTypeName           ParameterId = 0x0007
	PidProtocolVersion    ParameterId = 0x0015
	PidVendorId           ParameterId = 0x0016
	PidParticipantGuid    ParameterId = 0x0050
	PidOriginalWriterGuid ParameterId = 0x0061
	PidKeyHash            ParameterId = 0x0070
	PidStatusInfo         ParameterId = 0x0071
)

// status info flags, in the last byte of the big endian status info value
const (
	StatusInfoDisposed     uint32 = 0x01
	StatusInfoUnregistered uint32 = 0x02
	StatusInfoFiltered     uint32 = 0x04
)

// the largest value whose padded length fits the 16 bit length
const MaxParameterValueLen = 0xfffc

type Parameter struct {
	Id    ParameterId
	Value []byte
}

// Encoded as `pid u16, length u16, value` with each value padded to 4 bytes,
// terminated by a sentinel. Pad parameters are dropped on decode.
type ParameterList []Parameter

func (self ParameterList) Get(id ParameterId) ([]byte, bool) {
	for _, parameter := range self {
		if parameter.Id == id {
			return parameter.Value, true
		}
	}
	return nil, false
}

func (self ParameterList) With(id ParameterId, value []byte) ParameterList {
	out := make(ParameterList, 0, len(self)+1)
	for _, parameter := range self {
		if parameter.Id != id {
			out = append(out, parameter)
		}
	}
	return append(out, Parameter{Id: id, Value: value})
}

func (self ParameterList) String() string {
	return fmt.Sprintf("parameters(%d)", len(self))
}

// pad and sentinel ids are framing and cannot carry a value
func (self ParameterList) validate() error {
	for i, parameter := range self {
		switch parameter.Id {
		case PidPad, PidSentinel:
			return fmt.Errorf("%w: parameter %d has reserved id %04x", ErrMalformed, i, uint16(parameter.Id))
		}
		if MaxParameterValueLen < len(parameter.Value) {
			return fmt.Errorf("%w: parameter %d (%04x) is %d bytes", ErrParameterTooLarge, i, uint16(parameter.Id), len(parameter.Value))
		}
	}
	return nil
}

func (self ParameterList) EncodeCdr(w *CdrWriter) {
	for _, parameter := range self {
		padded := (len(parameter.Value) + 3) / 4 * 4
		w.WriteUint16(uint16(parameter.Id))
		w.WriteUint16(uint16(padded))
		w.WriteBytes(parameter.Value)
		w.WriteZeros(padded - len(parameter.Value))
	}
	w.WriteUint16(uint16(PidSentinel))
	w.WriteUint16(0)
}

func (self *ParameterList) DecodeCdr(r *CdrReader) error {
	parameters := ParameterList{}
	for {
		offset := r.Offset()
		id, err := r.ReadUint16()
		if err != nil {
			return decodeError("parameter_list", offset, err)
		}
		length, err := r.ReadUint16()
		if err != nil {
			return decodeError("parameter_list", offset, err)
		}
		if ParameterId(id) == PidSentinel {
			break
		}
		value, err := r.ReadBytes(int(length))
		if err != nil {
			return decodeError("parameter_list", offset, err)
		}
		if ParameterId(id) != PidPad {
			parameters = append(parameters, Parameter{
				Id:    ParameterId(id),
				Value: value,
			})
		}
	}
	*self = parameters
	return nil
}

package rtps

import (
	"errors"
	"fmt"
)

// Decode errors come from untrusted input. Validation errors come from the caller.
// Cache errors are returned to the caller and never retried here.

var (
	ErrTruncated             = errors.New("rtps: buffer truncated")
	ErrZeroBase              = errors.New("rtps: sequence number set base must be positive")
	ErrBitmapTooLarge        = errors.New("rtps: bitmap exceeds 256 bits")
	ErrBadProtocolId         = errors.New("rtps: protocol id is not RTPS")
	ErrNoSubmessages         = errors.New("rtps: message has no submessages")
	ErrUnknownSubmessageKind = errors.New("rtps: unknown submessage kind")
	ErrMalformed             = errors.New("rtps: malformed element")
)

var (
	ErrLessThanBase      = errors.New("rtps: value is less than the set base")
	ErrOffsetTooLarge    = errors.New("rtps: value is more than 255 past the set base")
	ErrEmptyBody         = errors.New("rtps: only the last submessage may have an empty body")
	ErrBodyTooLarge      = errors.New("rtps: only the last submessage may exceed 65535 bytes")
	ErrEndpointRole      = errors.New("rtps: endpoint kind does not match group role")
	ErrTopicKind         = errors.New("rtps: topic kind does not match entity id")
	ErrBadLocator        = errors.New("rtps: address does not match locator kind")
	ErrParameterTooLarge = errors.New("rtps: parameter value exceeds 65532 bytes")
)

var (
	ErrHistoryCacheFull = errors.New("rtps: history cache is full")
	ErrChangeNotFound   = errors.New("rtps: no change with that sequence number")
	ErrNilChange        = errors.New("rtps: change is nil")
)

// DecodeError locates a decode failure within the buffer.
type DecodeError struct {
	Field  string
	Offset int
	Err    error
}

func (self *DecodeError) Error() string {
	return fmt.Sprintf("decode %s at %d: %s", self.Field, self.Offset, self.Err)
}

func (self *DecodeError) Unwrap() error {
	return self.Err
}

func decodeError(field string, offset int, err error) error {
	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		// keep the innermost field
		return err
	}
	return &DecodeError{
		Field:  field,
		Offset: offset,
		Err:    err,
	}
}

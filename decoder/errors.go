package decoder

import (
	"errors"
	"fmt"

	"github.com/brightsparklabs/asanti-sub002/primitive"
)

var (
	// ErrUnknownTag means the tag is neither a decoded, unmapped nor raw tag
	// of the PDU.
	ErrUnknownTag = errors.New("unknown tag")
	// ErrNoDecoder means the resolved type has no registered decoder. Callers
	// usually fall back to the hex string.
	ErrNoDecoder = primitive.ErrNoCodec
	// ErrTypeMismatch means the decoded value is not of the requested Go type.
	ErrTypeMismatch = errors.New("type mismatch")
)

// DecodeError reports a query that could not turn the bytes of a tag into a
// value.
type DecodeError struct {
	Tag string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode %s: %v", e.Tag, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

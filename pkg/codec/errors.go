package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrFormatMismatch is returned when the stream does not carry the
	// ".FIT" marker. Decoding stops immediately.
	ErrFormatMismatch = errors.New("codec: not a FIT stream")
	// ErrDefinitionMismatch is returned by the encoder for a message whose
	// layout differs from the active definition of its local type.
	ErrDefinitionMismatch = errors.New("codec: message does not match its definition")
	// ErrLocalType is returned by the encoder for a local type that does not
	// fit the record header.
	ErrLocalType = errors.New("codec: local message type out of range")
)

// RecordDecodeError reports a record that could not be decoded. The decoder
// has already moved past it when the error is returned.
type RecordDecodeError struct {
	Offset int64
	Reason string
}

func (e *RecordDecodeError) Error() string {
	return fmt.Sprintf("codec: corrupt record at offset %d: %s", e.Offset, e.Reason)
}

// IntegrityError describes why a stream was decoded in degraded mode.
type IntegrityError struct {
	Reason string
}

func (e *IntegrityError) Error() string {
	return "codec: integrity check failed: " + e.Reason
}

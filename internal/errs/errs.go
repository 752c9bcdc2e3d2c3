// Package errs defines the error kinds connections and the chunk
// subsystems use to decide how to react to a failure: close the
// connection, quarantine a region, degrade admission, or drop a chunk
// request and keep serving everything else.
package errs

import "fmt"

// ProtocolViolation covers a malformed frame, an out-of-state packet, a
// bad palette, or an oversized string — anything that means the peer (or
// the bytes on the wire) cannot be trusted further.
type ProtocolViolation struct {
	Reason string
}

func (e *ProtocolViolation) Error() string {
	return fmt.Sprintf("protocol violation: %s", e.Reason)
}

// Authentication covers a verify-token mismatch or a session-service
// rejection during the login handshake.
type Authentication struct {
	Reason string
}

func (e *Authentication) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

// Io wraps a TCP or file I/O failure. Scope says whether the failure is
// connection-scoped, a flush, or region-file corruption so callers can
// decide whether to close, retry, or quarantine.
type Io struct {
	Scope string
	Err   error
}

func (e *Io) Error() string {
	return fmt.Sprintf("io error (%s): %v", e.Scope, e.Err)
}

func (e *Io) Unwrap() error { return e.Err }

// CapacityExhausted is returned by the chunk cache when admission would
// exceed the byte budget and no entry is evictable.
type CapacityExhausted struct {
	Pos any
}

func (e *CapacityExhausted) Error() string {
	return fmt.Sprintf("cache capacity exhausted admitting %v", e.Pos)
}

// GenerationFailed wraps an error returned by the external generate
// function.
type GenerationFailed struct {
	Pos any
	Err error
}

func (e *GenerationFailed) Error() string {
	return fmt.Sprintf("generation failed for %v: %v", e.Pos, e.Err)
}

func (e *GenerationFailed) Unwrap() error { return e.Err }

package adapter

import "fmt"

// ConnectError indicates the target was unreachable or the exchange timed
// out before completing. A timed-out call is a failed call, never
// success-with-unknown-state.
type ConnectError struct {
	Address string
	Err     error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("failed to connect to '%s': %v", e.Address, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// AuthError indicates the backend rejected the supplied credentials.
type AuthError struct {
	Address string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication rejected by '%s'", e.Address)
}

// UnsupportedError indicates the backend cannot perform the requested
// operation or sub-group. The job engine turns this into a per-sub-group
// skip, not a job failure.
type UnsupportedError struct {
	Op     string
	Reason string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("backend does not support %s: %s", e.Op, e.Reason)
}

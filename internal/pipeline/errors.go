// Package pipeline defines the error kinds the consumer dispatches on
// when deciding whether a message gets acknowledged.
package pipeline

import "fmt"

// ValidationError marks a message that can never be processed: it is
// logged and acknowledged without persistence so it cannot block the
// partition.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("validation failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("validation failed: %s", e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// RetryableError marks a transient infrastructure failure. The message
// stays unacknowledged and is redelivered after backoff.
type RetryableError struct {
	Op  string
	Err error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("%s: transient failure: %v", e.Op, e.Err)
}

func (e *RetryableError) Unwrap() error { return e.Err }

// ConflictError marks a non-transient store rejection (constraint or
// encoding violation). The message stays unacknowledged and is
// escalated to the operator instead of being silently dropped.
type ConflictError struct {
	Op  string
	Err error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: persistence conflict: %v", e.Op, e.Err)
}

func (e *ConflictError) Unwrap() error { return e.Err }

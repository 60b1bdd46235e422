package bank

import "fmt"

// RejectedError is an explicit rejection from the bank: a non-2xx status or
// an error payload. The game state behind the request is considered void;
// callers must not retry with the same game id or signature.
type RejectedError struct {
	Status int
	Reason string
}

func (e *RejectedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("bank: rejected (HTTP %d)", e.Status)
	}
	return fmt.Sprintf("bank: rejected (HTTP %d): %s", e.Status, e.Reason)
}

// NetworkError is an HTTP-transport failure. The user may retry the whole
// action manually; nothing retries on its own.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("bank: network: %v", e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

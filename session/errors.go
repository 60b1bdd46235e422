package session

import "errors"

// ErrInsufficientBalance means the last-known balance cannot cover the stake.
// The authoritative check still happens at payment time on the ledger.
var ErrInsufficientBalance = errors.New("session: insufficient balance for stake")

// InvariantError marks a protocol violation that correct UI wiring should
// never produce: a start over a live session, a game-id mismatch, an
// out-of-range or double intent. Treated as a programmer error.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string { return "session: invariant violated: " + e.Msg }

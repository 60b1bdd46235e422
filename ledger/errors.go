package ledger

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAccountNotFound means the account does not exist on the ledger yet
	// ("fund this account first"), distinct from transport failures.
	ErrAccountNotFound = errors.New("ledger: account not found")
	// ErrUnderfunded means the asset balance cannot cover the payment.
	ErrUnderfunded = errors.New("ledger: insufficient asset balance")
	// ErrInsufficientReserve means the native balance cannot cover the reserve
	// for a new trustline plus the fee. Nothing was submitted.
	ErrInsufficientReserve = errors.New("ledger: native balance below trustline reserve")
	// ErrDestinationUnavailable means the destination cannot receive the asset.
	ErrDestinationUnavailable = errors.New("ledger: destination cannot receive asset")
)

// NetworkError is a transport-level Horizon failure, safe for the user to
// retry the whole action manually.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("ledger: network: %v", e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// SubmissionError is a submission the ledger rejected for a reason with no
// dedicated mapping.
type SubmissionError struct {
	TxCode  string
	OpCodes []string
	Err     error
}

func (e *SubmissionError) Error() string {
	if e.TxCode == "" && len(e.OpCodes) == 0 {
		return fmt.Sprintf("ledger: submission failed: %v", e.Err)
	}
	return fmt.Sprintf("ledger: submission failed: %s [%s]", e.TxCode, strings.Join(e.OpCodes, ","))
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// Package wallet abstracts over transaction signers: a local keypair held in
// memory, or an out-of-process wallet extension reached through a bridge.
// Session logic is written against Signer, never against a concrete variant.
package wallet

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotConnected means no signer is available for the player.
	ErrNotConnected = errors.New("wallet: not connected")
	// ErrUserRejected means the human declined the signing request.
	ErrUserRejected = errors.New("wallet: signing request rejected")
	// ErrSignerBusy means a prior signing request is still pending. Callers
	// must surface it to the user, never retry automatically.
	ErrSignerBusy = errors.New("wallet: a signing request is already pending")
)

// SignerError wraps any other signer-level fault.
type SignerError struct {
	Err error
}

func (e *SignerError) Error() string {
	return fmt.Sprintf("wallet: signer fault: %v", e.Err)
}

func (e *SignerError) Unwrap() error { return e.Err }

// Signer turns an unsigned transaction envelope (base64 XDR) into a signed
// one and exposes the active public key.
type Signer interface {
	PublicKey() (string, error)
	SignTransaction(ctx context.Context, envelopeXDR string) (string, error)
}

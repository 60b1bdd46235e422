package wallet

import (
	"context"
	"fmt"

	"github.com/stellar/go/keypair"
	"github.com/stellar/go/txnbuild"
)

// LocalSigner holds a full keypair directly and signs synchronously. The
// secret never leaves process memory and is never written anywhere.
type LocalSigner struct {
	kp         *keypair.Full
	passphrase string
}

// NewLocalSigner parses a secret seed and binds it to a network passphrase.
func NewLocalSigner(secret, networkPassphrase string) (*LocalSigner, error) {
	kp, err := keypair.ParseFull(secret)
	if err != nil {
		return nil, fmt.Errorf("wallet: invalid secret key: %w", err)
	}
	return &LocalSigner{kp: kp, passphrase: networkPassphrase}, nil
}

func (s *LocalSigner) PublicKey() (string, error) {
	if s == nil || s.kp == nil {
		return "", ErrNotConnected
	}
	return s.kp.Address(), nil
}

func (s *LocalSigner) SignTransaction(_ context.Context, envelopeXDR string) (string, error) {
	if s == nil || s.kp == nil {
		return "", ErrNotConnected
	}
	generic, err := txnbuild.TransactionFromXDR(envelopeXDR)
	if err != nil {
		return "", &SignerError{Err: fmt.Errorf("parse envelope: %w", err)}
	}
	tx, ok := generic.Transaction()
	if !ok {
		return "", &SignerError{Err: fmt.Errorf("unsupported envelope type")}
	}
	signed, err := tx.Sign(s.passphrase, s.kp)
	if err != nil {
		return "", &SignerError{Err: err}
	}
	return signed.Base64()
}

package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stellar/go/keypair"
	"github.com/stellar/go/network"
	"github.com/stellar/go/txnbuild"
)

func unsignedEnvelope(t *testing.T, kp *keypair.Full) string {
	t.Helper()
	sa := txnbuild.SimpleAccount{AccountID: kp.Address(), Sequence: 1}
	tx, err := txnbuild.NewTransaction(txnbuild.TransactionParams{
		SourceAccount:        &sa,
		IncrementSequenceNum: true,
		BaseFee:              txnbuild.MinBaseFee,
		Preconditions:        txnbuild.Preconditions{TimeBounds: txnbuild.NewInfiniteTimeout()},
		Operations: []txnbuild.Operation{&txnbuild.Payment{
			Destination: kp.Address(),
			Amount:      "1",
			Asset:       txnbuild.NativeAsset{},
		}},
	})
	if err != nil {
		t.Fatalf("build tx: %v", err)
	}
	xdr, err := tx.Base64()
	if err != nil {
		t.Fatalf("encode tx: %v", err)
	}
	return xdr
}

func TestLocalSigner_SignTransaction(t *testing.T) {
	kp := keypair.MustRandom()
	s, err := NewLocalSigner(kp.Seed(), network.TestNetworkPassphrase)
	if err != nil {
		t.Fatalf("NewLocalSigner: %v", err)
	}
	pub, err := s.PublicKey()
	if err != nil {
		t.Fatalf("PublicKey: %v", err)
	}
	if pub != kp.Address() {
		t.Errorf("PublicKey = %s, want %s", pub, kp.Address())
	}

	signed, err := s.SignTransaction(context.Background(), unsignedEnvelope(t, kp))
	if err != nil {
		t.Fatalf("SignTransaction: %v", err)
	}
	generic, err := txnbuild.TransactionFromXDR(signed)
	if err != nil {
		t.Fatalf("parse signed envelope: %v", err)
	}
	tx, ok := generic.Transaction()
	if !ok {
		t.Fatal("signed envelope is not a simple transaction")
	}
	if got := len(tx.Signatures()); got != 1 {
		t.Errorf("signatures = %d, want 1", got)
	}
}

func TestLocalSigner_InvalidSecret(t *testing.T) {
	if _, err := NewLocalSigner("not-a-secret", network.TestNetworkPassphrase); err == nil {
		t.Fatal("expected error for invalid secret")
	}
}

func TestLocalSigner_GarbageEnvelope(t *testing.T) {
	kp := keypair.MustRandom()
	s, _ := NewLocalSigner(kp.Seed(), network.TestNetworkPassphrase)
	_, err := s.SignTransaction(context.Background(), "AAAA-not-xdr")
	var serr *SignerError
	if !errors.As(err, &serr) {
		t.Fatalf("expected SignerError, got %v", err)
	}
}

func TestBridgeSigner_UserRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "user declined"})
	}))
	defer srv.Close()

	s := NewBridgeSigner(srv.URL, time.Second)
	_, err := s.SignTransaction(context.Background(), "AAAA")
	if !errors.Is(err, ErrUserRejected) {
		t.Fatalf("expected ErrUserRejected, got %v", err)
	}
}

func TestBridgeSigner_SecondRequestWhilePending(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		_ = json.NewEncoder(w).Encode(map[string]string{"signedXdr": "AAAB"})
	}))
	defer srv.Close()

	s := NewBridgeSigner(srv.URL, 5*time.Second)
	done := make(chan error, 1)
	go func() {
		_, err := s.SignTransaction(context.Background(), "AAAA")
		done <- err
	}()
	<-entered

	if _, err := s.SignTransaction(context.Background(), "AAAA"); !errors.Is(err, ErrSignerBusy) {
		t.Fatalf("expected ErrSignerBusy, got %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first request failed: %v", err)
	}
}

func TestBridgeSigner_PublicKeyNotConnected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	s := NewBridgeSigner(srv.URL, time.Second)
	if _, err := s.PublicKey(); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

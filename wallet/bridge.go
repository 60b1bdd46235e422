package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// BridgeSigner delegates signing to an out-of-process wallet (a browser
// extension behind a local bridge). A call blocks until the human approves or
// rejects in the wallet UI, so the HTTP timeout is generous.
type BridgeSigner struct {
	baseURL string
	http    *http.Client
	pending atomic.Bool
}

func NewBridgeSigner(baseURL string, timeout time.Duration) *BridgeSigner {
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}
	return &BridgeSigner{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

func (s *BridgeSigner) PublicKey() (string, error) {
	if s == nil || s.baseURL == "" {
		return "", ErrNotConnected
	}
	resp, err := s.http.Get(s.baseURL + "/public_key")
	if err != nil {
		return "", &SignerError{Err: err}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	var data struct {
		PublicKey string `json:"publicKey"`
		Error     string `json:"error"`
	}
	_ = json.Unmarshal(body, &data)
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusUnauthorized {
		return "", ErrNotConnected
	}
	if resp.StatusCode != http.StatusOK {
		return "", &SignerError{Err: fmt.Errorf("bridge: %s", data.Error)}
	}
	if data.PublicKey == "" {
		return "", ErrNotConnected
	}
	return data.PublicKey, nil
}

func (s *BridgeSigner) SignTransaction(ctx context.Context, envelopeXDR string) (string, error) {
	if s == nil || s.baseURL == "" {
		return "", ErrNotConnected
	}
	// One human-facing prompt at a time. A second request while the first is
	// pending is surfaced, never queued.
	if !s.pending.CompareAndSwap(false, true) {
		return "", ErrSignerBusy
	}
	defer s.pending.Store(false)

	payload, _ := json.Marshal(map[string]string{"envelopeXdr": envelopeXDR})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/sign", bytes.NewReader(payload))
	if err != nil {
		return "", &SignerError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.http.Do(req)
	if err != nil {
		return "", &SignerError{Err: err}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	var data struct {
		SignedXDR string `json:"signedXdr"`
		Error     string `json:"error"`
	}
	_ = json.Unmarshal(body, &data)
	switch {
	case resp.StatusCode == http.StatusForbidden:
		return "", ErrUserRejected
	case resp.StatusCode == http.StatusConflict:
		return "", ErrSignerBusy
	case resp.StatusCode != http.StatusOK:
		return "", &SignerError{Err: fmt.Errorf("bridge: %s", data.Error)}
	}
	if data.SignedXDR == "" {
		return "", &SignerError{Err: fmt.Errorf("bridge: empty signed envelope")}
	}
	return data.SignedXDR, nil
}

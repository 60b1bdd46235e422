// Package bank is the HTTP client for the casino's external game authority.
// Every call is plain request/response JSON over HTTPS and carries the needed
// identifiers explicitly; there is no session or cookie state.
package bank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// ScratchInit is the bank's allocation for a scratch card. Seedlings is
// authoritative; the client never recomputes it from the cost.
type ScratchInit struct {
	GameID    string
	Seedlings int
}

// MonteInit is the bank's allocation for a monte round.
type MonteInit struct {
	GameID   string
	NumCards int
}

// SlotsResult is the bank-computed final reel outcome. The client only
// animates toward it.
type SlotsResult struct {
	GameID string
	Result []string
}

// GameToken is a short-lived, single-use signature bound to (gameID, cost),
// fetched immediately before payout.
type GameToken struct {
	GameID    string
	Cost      decimal.Decimal
	Signature string
}

type PayoutRequest struct {
	GameID      string
	Cost        decimal.Decimal
	Signature   string
	Destination string
	GameType    string
	Choices     any
}

type PayoutResult struct {
	Amount      decimal.Decimal
	FinalLayout []string
}

// Client calls the casino bank API.
type Client struct {
	baseURL string
	http    *http.Client
	log     *log.Entry
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		log:     log.WithField("component", "bank"),
	}
}

func num(d decimal.Decimal) json.Number { return json.Number(d.String()) }

// post sends one JSON request and decodes the response into out. Non-2xx
// responses are checked before any parsing of the success shape.
func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("bank: encode %s request: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("bank: build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		_ = json.Unmarshal(respBody, &apiErr)
		reason := apiErr.Error
		if reason == "" {
			reason = apiErr.Message
		}
		c.log.WithFields(log.Fields{"path": path, "status": resp.StatusCode}).Warn("bank rejected request")
		return &RejectedError{Status: resp.StatusCode, Reason: reason}
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("bank: decode %s response: %w", path, err)
		}
	}
	return nil
}

// InitScratchGame allocates a scratch game for the given stake.
func (c *Client) InitScratchGame(ctx context.Context, cost decimal.Decimal) (ScratchInit, error) {
	var resp struct {
		GameID    string `json:"gameId"`
		Seedlings int    `json:"seedlings"`
	}
	req := struct {
		Cost json.Number `json:"cost"`
	}{Cost: num(cost)}
	if err := c.post(ctx, "/init_scratch_game", req, &resp); err != nil {
		return ScratchInit{}, err
	}
	if resp.GameID == "" || resp.Seedlings <= 0 {
		return ScratchInit{}, &RejectedError{Status: http.StatusOK, Reason: "malformed init_scratch_game response"}
	}
	return ScratchInit{GameID: resp.GameID, Seedlings: resp.Seedlings}, nil
}

// InitMonteGame allocates a monte game for the given stake.
func (c *Client) InitMonteGame(ctx context.Context, cost decimal.Decimal) (MonteInit, error) {
	var resp struct {
		GameID   string `json:"gameId"`
		NumCards int    `json:"numCards"`
	}
	req := struct {
		Cost json.Number `json:"cost"`
	}{Cost: num(cost)}
	if err := c.post(ctx, "/init_monte_game", req, &resp); err != nil {
		return MonteInit{}, err
	}
	if resp.GameID == "" || resp.NumCards <= 0 {
		return MonteInit{}, &RejectedError{Status: http.StatusOK, Reason: "malformed init_monte_game response"}
	}
	return MonteInit{GameID: resp.GameID, NumCards: resp.NumCards}, nil
}

// RevealSpot uncovers one scratch spot. The bank is the sole source of the
// revealed symbol.
func (c *Client) RevealSpot(ctx context.Context, gameID string, index int) (string, error) {
	var resp struct {
		Symbol string `json:"symbol"`
	}
	req := struct {
		GameID string `json:"gameId"`
		Index  int    `json:"index"`
	}{GameID: gameID, Index: index}
	if err := c.post(ctx, "/reveal_spot", req, &resp); err != nil {
		return "", err
	}
	if resp.Symbol == "" {
		return "", &RejectedError{Status: http.StatusOK, Reason: "empty symbol in reveal_spot response"}
	}
	return resp.Symbol, nil
}

// PlaySlots asks the bank for the final reel outcome of a new slots game.
func (c *Client) PlaySlots(ctx context.Context, cost decimal.Decimal, reels int) (SlotsResult, error) {
	var resp struct {
		GameID string   `json:"gameId"`
		Result []string `json:"result"`
	}
	req := struct {
		Cost     json.Number `json:"cost"`
		NumReels int         `json:"num_reels"`
	}{Cost: num(cost), NumReels: reels}
	if err := c.post(ctx, "/play_slots", req, &resp); err != nil {
		return SlotsResult{}, err
	}
	if resp.GameID == "" || len(resp.Result) == 0 {
		return SlotsResult{}, &RejectedError{Status: http.StatusOK, Reason: "malformed play_slots response"}
	}
	return SlotsResult{GameID: resp.GameID, Result: resp.Result}, nil
}

// SignGame fetches the payout signature for a completed game. Call it only
// after all reveal/choice interactions are done.
func (c *Client) SignGame(ctx context.Context, gameID string, cost decimal.Decimal) (GameToken, error) {
	var resp struct {
		GameID    string `json:"game_id"`
		Signature string `json:"signature"`
	}
	req := struct {
		GameID string      `json:"game_id"`
		Cost   json.Number `json:"cost"`
	}{GameID: gameID, Cost: num(cost)}
	if err := c.post(ctx, "/sign_game", req, &resp); err != nil {
		return GameToken{}, err
	}
	if resp.Signature == "" {
		return GameToken{}, &RejectedError{Status: http.StatusOK, Reason: "empty signature in sign_game response"}
	}
	tokenID := resp.GameID
	if tokenID == "" {
		tokenID = gameID
	}
	return GameToken{GameID: tokenID, Cost: cost, Signature: resp.Signature}, nil
}

// Payout settles winnings for a signed game. A non-success status is a hard
// failure for the session; the signature is spent either way.
func (c *Client) Payout(ctx context.Context, p PayoutRequest) (PayoutResult, error) {
	var resp struct {
		Status      string      `json:"status"`
		Amount      json.Number `json:"amount"`
		FinalLayout []string    `json:"finalLayout"`
	}
	req := struct {
		GameID      string      `json:"game_id"`
		Cost        json.Number `json:"cost"`
		Signature   string      `json:"signature"`
		Destination string      `json:"destination"`
		GameType    string      `json:"game_type"`
		Choices     any         `json:"choices"`
	}{
		GameID:      p.GameID,
		Cost:        num(p.Cost),
		Signature:   p.Signature,
		Destination: p.Destination,
		GameType:    p.GameType,
		Choices:     p.Choices,
	}
	if err := c.post(ctx, "/payout", req, &resp); err != nil {
		return PayoutResult{}, err
	}
	if resp.Status != "success" {
		return PayoutResult{}, &RejectedError{Status: http.StatusOK, Reason: fmt.Sprintf("payout status %q", resp.Status)}
	}
	amount := decimal.Zero
	if resp.Amount != "" {
		var err error
		amount, err = decimal.NewFromString(resp.Amount.String())
		if err != nil {
			return PayoutResult{}, fmt.Errorf("bank: bad payout amount %q: %w", resp.Amount, err)
		}
	}
	return PayoutResult{Amount: amount, FinalLayout: resp.FinalLayout}, nil
}

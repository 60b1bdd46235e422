// Package ledger wraps Horizon account queries and transaction submission for
// the game currency. It builds and submits trustline and payment transactions,
// delegating all signing to the wallet.
package ledger

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/stellar/go/clients/horizonclient"
	hProtocol "github.com/stellar/go/protocols/horizon"
	"github.com/stellar/go/txnbuild"

	"github.com/kalefarm/kale-casino/wallet"
)

// Horizon is the subset of the horizonclient API the client uses. Narrow so
// tests can fake it.
type Horizon interface {
	AccountDetail(request horizonclient.AccountRequest) (hProtocol.Account, error)
	SubmitTransactionXDR(transactionXdr string) (hProtocol.Transaction, error)
}

// Asset identifies the in-game currency. Immutable, set at configuration time.
type Asset struct {
	Code   string
	Issuer string
}

const (
	// MemoTextLimit is the ledger's text-memo limit in bytes.
	MemoTextLimit = 28
	// txTimeoutSeconds bounds the envelope's validity window. Generous so a
	// human can approve the signature in a wallet UI.
	txTimeoutSeconds = 300
	// baseAccountEntries is the reserve multiplier every account carries
	// before subentries.
	baseAccountEntries = 2
)

// baseReserve is the per-entry native reserve.
var baseReserve = decimal.New(5, -1) // 0.5

// stroop is the smallest native unit, 1e-7.
var stroop = decimal.New(1, -7)

type Client struct {
	horizon    Horizon
	signer     wallet.Signer
	passphrase string
	asset      Asset
	baseFee    int64
	log        *log.Entry
}

func New(horizon Horizon, signer wallet.Signer, passphrase string, asset Asset, baseFee int64) *Client {
	if baseFee <= 0 {
		baseFee = txnbuild.MinBaseFee
	}
	return &Client{
		horizon:    horizon,
		signer:     signer,
		passphrase: passphrase,
		asset:      asset,
		baseFee:    baseFee,
		log:        log.WithField("component", "ledger"),
	}
}

// LoadAccount fetches the account record for pk.
func (c *Client) LoadAccount(pk string) (hProtocol.Account, error) {
	acct, err := c.horizon.AccountDetail(horizonclient.AccountRequest{AccountID: pk})
	if err != nil {
		if herr := asHorizonError(err); herr != nil && herr.Problem.Status == 404 {
			return hProtocol.Account{}, ErrAccountNotFound
		}
		return hProtocol.Account{}, &NetworkError{Err: err}
	}
	return acct, nil
}

// AssetBalance returns the player's balance of the game asset, zero when the
// account holds no trustline for it.
func (c *Client) AssetBalance(pk string) (decimal.Decimal, error) {
	acct, err := c.LoadAccount(pk)
	if err != nil {
		return decimal.Zero, err
	}
	for _, b := range acct.Balances {
		if b.Code == c.asset.Code && b.Issuer == c.asset.Issuer {
			return decimal.NewFromString(b.Balance)
		}
	}
	return decimal.Zero, nil
}

// EnsureTrustline establishes a trustline for the game asset if the account
// lacks one. Returns true when a trustline was created. The native balance is
// checked against the new entry's reserve plus the fee first; a doomed
// submission would waste a fee and a signing round trip.
func (c *Client) EnsureTrustline(ctx context.Context, pk string) (bool, error) {
	acct, err := c.LoadAccount(pk)
	if err != nil {
		return false, err
	}
	for _, b := range acct.Balances {
		if b.Code == c.asset.Code && b.Issuer == c.asset.Issuer {
			return false, nil
		}
	}

	native := decimal.Zero
	for _, b := range acct.Balances {
		if b.Type == "native" {
			native, err = decimal.NewFromString(b.Balance)
			if err != nil {
				return false, &NetworkError{Err: err}
			}
			break
		}
	}
	entries := int64(acct.SubentryCount) + baseAccountEntries + 1
	fee := decimal.NewFromInt(c.baseFee).Mul(stroop)
	required := baseReserve.Mul(decimal.NewFromInt(entries)).Add(fee)
	if native.LessThan(required) {
		c.log.WithFields(log.Fields{"native": native, "required": required}).Warn("trustline reserve check failed")
		return false, ErrInsufficientReserve
	}

	op := &txnbuild.ChangeTrust{
		Line: txnbuild.ChangeTrustAssetWrapper{
			Asset: txnbuild.CreditAsset{Code: c.asset.Code, Issuer: c.asset.Issuer},
		},
		Limit: txnbuild.MaxTrustlineLimit,
	}
	if _, err := c.signAndSubmit(ctx, acct, []txnbuild.Operation{op}, ""); err != nil {
		return false, err
	}
	c.log.WithField("account", pk).Info("trustline established")
	return true, nil
}

// SubmitPayment sends amount of the game asset from pk to destination with a
// text memo. A successful return means the payment is only probably settled;
// callers reconcile with a fresh balance fetch.
func (c *Client) SubmitPayment(ctx context.Context, pk, destination string, amount decimal.Decimal, memo string) error {
	acct, err := c.LoadAccount(pk)
	if err != nil {
		return err
	}
	op := &txnbuild.Payment{
		Destination: destination,
		Amount:      amount.StringFixed(7),
		Asset:       txnbuild.CreditAsset{Code: c.asset.Code, Issuer: c.asset.Issuer},
	}
	res, err := c.signAndSubmit(ctx, acct, []txnbuild.Operation{op}, TruncateMemo(memo))
	if err != nil {
		return err
	}
	c.log.WithFields(log.Fields{"amount": amount, "hash": res.Hash}).Info("payment submitted")
	return nil
}

// signAndSubmit builds an envelope, has the wallet sign it, and submits it.
// Wallet failures pass through untouched so callers can tell a rejection from
// a ledger fault.
func (c *Client) signAndSubmit(ctx context.Context, acct hProtocol.Account, ops []txnbuild.Operation, memo string) (hProtocol.Transaction, error) {
	params := txnbuild.TransactionParams{
		SourceAccount:        &acct,
		IncrementSequenceNum: true,
		BaseFee:              c.baseFee,
		Preconditions:        txnbuild.Preconditions{TimeBounds: txnbuild.NewTimeout(txTimeoutSeconds)},
		Operations:           ops,
	}
	if memo != "" {
		params.Memo = txnbuild.MemoText(memo)
	}
	tx, err := txnbuild.NewTransaction(params)
	if err != nil {
		return hProtocol.Transaction{}, &SubmissionError{Err: err}
	}
	unsigned, err := tx.Base64()
	if err != nil {
		return hProtocol.Transaction{}, &SubmissionError{Err: err}
	}
	signed, err := c.signer.SignTransaction(ctx, unsigned)
	if err != nil {
		return hProtocol.Transaction{}, err
	}
	res, err := c.horizon.SubmitTransactionXDR(signed)
	if err != nil {
		return hProtocol.Transaction{}, mapSubmitError(err)
	}
	return res, nil
}

// TruncateMemo cuts a memo to the ledger's text-memo byte limit without
// splitting a rune.
func TruncateMemo(memo string) string {
	if len(memo) <= MemoTextLimit {
		return memo
	}
	cut := MemoTextLimit
	for cut > 0 && memo[cut]&0xC0 == 0x80 {
		cut--
	}
	return memo[:cut]
}

func asHorizonError(err error) *horizonclient.Error {
	var herr *horizonclient.Error
	if errors.As(err, &herr) {
		return herr
	}
	return nil
}

// mapSubmitError turns the ledger's structured failure codes into the typed
// errors callers branch on.
func mapSubmitError(err error) error {
	herr := asHorizonError(err)
	if herr == nil {
		return &NetworkError{Err: err}
	}
	txCode, opCodes := resultCodes(herr)
	for _, code := range opCodes {
		switch code {
		case "op_underfunded":
			return ErrUnderfunded
		case "op_no_trust", "op_no_destination", "op_no_issuer", "op_line_full", "op_not_authorized":
			return ErrDestinationUnavailable
		}
	}
	return &SubmissionError{TxCode: txCode, OpCodes: opCodes, Err: err}
}

// resultCodes extracts transaction/operation result codes from a Horizon
// problem response.
func resultCodes(herr *horizonclient.Error) (string, []string) {
	raw, ok := herr.Problem.Extras["result_codes"]
	if !ok {
		return "", nil
	}
	m, ok := raw.(map[string]interface{})
	if !ok {
		return "", nil
	}
	txCode, _ := m["transaction"].(string)
	var opCodes []string
	if ops, ok := m["operations"].([]interface{}); ok {
		for _, op := range ops {
			if s, ok := op.(string); ok {
				opCodes = append(opCodes, s)
			}
		}
	}
	return txCode, opCodes
}

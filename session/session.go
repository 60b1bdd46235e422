// Package session drives a single game round from purchase to settlement.
// The bank decides outcomes and payouts; the session only sequences the
// protocol and keeps a last-known balance for display.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/kalefarm/kale-casino/bank"
	"github.com/kalefarm/kale-casino/games"
	"github.com/kalefarm/kale-casino/wallet"
)

// State is the lifecycle position of the current round.
type State int

const (
	Idle State = iota
	Initializing
	AwaitingPayment
	InProgress
	Resolving
	Settled
	Aborted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Initializing:
		return "initializing"
	case AwaitingPayment:
		return "awaiting_payment"
	case InProgress:
		return "in_progress"
	case Resolving:
		return "resolving"
	case Settled:
		return "settled"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// AbortReason says why a round ended in Aborted.
type AbortReason string

const (
	AbortNone          AbortReason = ""
	AbortInitFailed    AbortReason = "init_failed"
	AbortPaymentFailed AbortReason = "payment_failed"
	AbortRevealFailed  AbortReason = "reveal_failed"
	AbortPayoutFailed  AbortReason = "payout_failed"
	AbortInvariant     AbortReason = "invariant_violation"
	AbortAbandoned     AbortReason = "abandoned"
)

// Ledger is the slice of the horizon client the session needs.
type Ledger interface {
	AssetBalance(publicKey string) (decimal.Decimal, error)
	SubmitPayment(ctx context.Context, source, destination string, amount decimal.Decimal, memo string) error
}

// Bank is the slice of the casino API client the session needs.
type Bank interface {
	InitScratchGame(ctx context.Context, cost decimal.Decimal) (bank.ScratchInit, error)
	InitMonteGame(ctx context.Context, cost decimal.Decimal) (bank.MonteInit, error)
	RevealSpot(ctx context.Context, gameID string, index int) (string, error)
	PlaySlots(ctx context.Context, cost decimal.Decimal, reels int) (bank.SlotsResult, error)
	SignGame(ctx context.Context, gameID string, cost decimal.Decimal) (bank.GameToken, error)
	Payout(ctx context.Context, p bank.PayoutRequest) (bank.PayoutResult, error)
}

// Layout is the bank-reported shape of the current game.
type Layout struct {
	Spots int
	Reels int
	Cards int
}

// Options wires a session to its collaborators.
type Options struct {
	Signer         wallet.Signer
	Ledger         Ledger
	Bank           Bank
	Presenter      Presenter
	BankAddress    string
	ReconcileDelay time.Duration
	Logger         *logrus.Entry
}

// Session holds one player's current round. All exported methods are safe for
// concurrent use; the mutex is held across each full operation, so an
// in-flight settlement always completes before an abandon is processed.
type Session struct {
	mu             sync.Mutex
	signer         wallet.Signer
	ledger         Ledger
	bank           Bank
	presenter      Presenter
	bankAddress    string
	reconcileDelay time.Duration
	log            *logrus.Entry

	publicKey string
	balance   decimal.Decimal

	state    State
	reason   AbortReason
	gameType games.Type
	cost     decimal.Decimal
	gameID   string
	layout   Layout

	revealed    map[int]string
	revealOrder []int
	slotsResult []string
	choice      int

	payoutAmount decimal.Decimal
	spentGames   map[string]bool
}

func New(opts Options) (*Session, error) {
	if opts.Signer == nil || opts.Ledger == nil || opts.Bank == nil {
		return nil, errors.New("session: signer, ledger and bank are required")
	}
	if opts.BankAddress == "" {
		return nil, errors.New("session: bank address is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Session{
		signer:         opts.Signer,
		ledger:         opts.Ledger,
		bank:           opts.Bank,
		presenter:      opts.Presenter,
		bankAddress:    opts.BankAddress,
		reconcileDelay: opts.ReconcileDelay,
		log:            logger.WithField("component", "session"),
		state:          Idle,
		spentGames:     map[string]bool{},
	}, nil
}

// Refresh loads the signer's public key and its current token balance.
func (s *Session) Refresh() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pub, err := s.signer.PublicKey()
	if err != nil {
		return err
	}
	bal, err := s.ledger.AssetBalance(pub)
	if err != nil {
		return err
	}
	s.publicKey = pub
	s.balance = bal
	s.emit("balance refreshed")
	return nil
}

// Start buys one game of the given type at the given stake. It runs the
// round up to InProgress; for slots the bank's outcome arrives with the
// purchase, so the round settles immediately after payment.
func (s *Session) Start(ctx context.Context, gameType games.Type, cost decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Idle {
		// The running round is left untouched.
		return &InvariantError{Msg: fmt.Sprintf("start requested while %s", s.state)}
	}
	if s.publicKey == "" {
		return wallet.ErrNotConnected
	}
	if !cost.IsPositive() {
		return &InvariantError{Msg: "stake must be positive"}
	}
	if s.balance.LessThan(cost) {
		return fmt.Errorf("%w: stake %s, balance %s", ErrInsufficientBalance, cost, s.balance)
	}

	s.gameType = gameType
	s.cost = cost
	s.gameID = ""
	s.layout = Layout{}
	s.revealed = map[int]string{}
	s.revealOrder = nil
	s.slotsResult = nil
	s.choice = 0
	s.payoutAmount = decimal.Zero
	s.reason = AbortNone
	s.setState(Initializing, "buying "+gameType.String())

	switch gameType {
	case games.Scratch:
		init, err := s.bank.InitScratchGame(ctx, cost)
		if err != nil {
			return s.abort(AbortInitFailed, fmt.Errorf("init scratch: %w", err))
		}
		s.gameID = init.GameID
		s.layout.Spots = init.Seedlings
	case games.Monte:
		init, err := s.bank.InitMonteGame(ctx, cost)
		if err != nil {
			return s.abort(AbortInitFailed, fmt.Errorf("init monte: %w", err))
		}
		s.gameID = init.GameID
		s.layout.Cards = init.NumCards
	case games.Slots:
		reels, ok := games.SlotsReels(cost)
		if !ok {
			return s.abort(AbortInitFailed, fmt.Errorf("no slots tier for stake %s", cost))
		}
		result, err := s.bank.PlaySlots(ctx, cost, reels)
		if err != nil {
			return s.abort(AbortInitFailed, fmt.Errorf("play slots: %w", err))
		}
		s.gameID = result.GameID
		s.layout.Reels = reels
		s.slotsResult = result.Result
	default:
		return s.abort(AbortInitFailed, fmt.Errorf("unknown game type %v", gameType))
	}
	if s.spentGames[s.gameID] {
		return s.abort(AbortInvariant, fmt.Errorf("bank reissued game id %s", s.gameID))
	}

	s.setState(AwaitingPayment, "paying stake")
	memo := games.Memo(gameType, s.gameID)
	if err := s.ledger.SubmitPayment(ctx, s.publicKey, s.bankAddress, cost, memo); err != nil {
		// The submission may have hit the ledger before failing, so fall
		// back to ledger truth instead of local arithmetic.
		s.reconcile()
		return s.abort(AbortPaymentFailed, fmt.Errorf("stake payment: %w", err))
	}
	s.balance = s.balance.Sub(cost) // optimistic, reconciled after settlement
	s.setState(InProgress, "game on")

	if gameType == games.Slots {
		return s.resolve(ctx)
	}
	return nil
}

// Reveal uncovers one scratch spot (1-based). Revealing an already-uncovered
// spot returns its symbol without a backend call. When the last spot is
// revealed the round settles.
func (s *Session) Reveal(ctx context.Context, index int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != InProgress || s.gameType != games.Scratch {
		return "", &InvariantError{Msg: "reveal outside an active scratch game"}
	}
	if index < 1 || index > s.layout.Spots {
		return "", &InvariantError{Msg: fmt.Sprintf("spot %d out of range 1..%d", index, s.layout.Spots)}
	}
	if symbol, ok := s.revealed[index]; ok {
		return symbol, nil
	}

	symbol, err := s.bank.RevealSpot(ctx, s.gameID, index)
	if err != nil {
		var rejected *bank.RejectedError
		if errors.As(err, &rejected) {
			// The bank voided the game; the round cannot continue.
			return "", s.abort(AbortRevealFailed, fmt.Errorf("reveal spot %d: %w", index, err))
		}
		// Transport fault: state unchanged, the same reveal can be retried.
		return "", fmt.Errorf("reveal spot %d: %w", index, err)
	}
	s.revealed[index] = symbol
	s.revealOrder = append(s.revealOrder, index)
	s.emit(fmt.Sprintf("spot %d revealed", index))

	if len(s.revealed) == s.layout.Spots {
		if err := s.resolve(ctx); err != nil {
			return symbol, err
		}
	}
	return symbol, nil
}

// Choose picks one monte card (1-based) and settles the round.
func (s *Session) Choose(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != InProgress || s.gameType != games.Monte {
		return &InvariantError{Msg: "choose outside an active monte game"}
	}
	if index < 1 || index > s.layout.Cards {
		return &InvariantError{Msg: fmt.Sprintf("card %d out of range 1..%d", index, s.layout.Cards)}
	}
	s.choice = index
	s.emit(fmt.Sprintf("card %d chosen", index))
	return s.resolve(ctx)
}

// resolve settles the round with the bank. Caller holds the mutex. Each game
// id reaches the payout endpoint at most once, even across aborted retries.
func (s *Session) resolve(ctx context.Context) error {
	s.setState(Resolving, "settling with the bank")

	if s.spentGames[s.gameID] {
		return s.abort(AbortInvariant, fmt.Errorf("payout already attempted for game %s", s.gameID))
	}
	token, err := s.bank.SignGame(ctx, s.gameID, s.cost)
	if err != nil {
		s.reconcile()
		return s.abort(AbortPayoutFailed, fmt.Errorf("sign game: %w", err))
	}
	// The token must bind this round's own game. A mismatch aborts before
	// any payout request is constructed.
	if token.GameID != s.gameID || !token.Cost.Equal(s.cost) {
		s.reconcile()
		return s.abort(AbortInvariant, fmt.Errorf("signature bound to game %q stake %s, round is %q stake %s",
			token.GameID, token.Cost, s.gameID, s.cost))
	}

	s.spentGames[s.gameID] = true
	result, err := s.bank.Payout(ctx, bank.PayoutRequest{
		GameID:      s.gameID,
		Cost:        s.cost,
		Signature:   token.Signature,
		Destination: s.publicKey,
		GameType:    s.gameType.String(),
		Choices:     s.choicesPayload(),
	})
	if err != nil {
		s.reconcile()
		return s.abort(AbortPayoutFailed, fmt.Errorf("payout: %w", err))
	}

	s.payoutAmount = result.Amount
	s.balance = s.balance.Add(result.Amount) // optimistic credit
	if s.gameType == games.Slots && len(result.FinalLayout) > 0 {
		s.slotsResult = result.FinalLayout
	}
	s.setState(Settled, fmt.Sprintf("won %s", result.Amount))

	// Give the payout transaction a moment to land, then go back to
	// ledger truth.
	if s.reconcileDelay > 0 {
		time.Sleep(s.reconcileDelay)
	}
	s.reconcile()
	return nil
}

func (s *Session) choicesPayload() any {
	switch s.gameType {
	case games.Scratch:
		return append([]int(nil), s.revealOrder...)
	case games.Slots:
		return append([]string(nil), s.slotsResult...)
	case games.Monte:
		return []int{s.choice}
	default:
		return nil
	}
}

// Abandon ends a live round when the player walks away. Terminal and idle
// states are unaffected. Because operations hold the mutex end to end, an
// in-flight settlement finishes before the abandon applies.
func (s *Session) Abandon() {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case Idle, Settled, Aborted:
		return
	default:
		s.reason = AbortAbandoned
		s.setState(Aborted, "round abandoned")
	}
}

// Reset returns a finished round to Idle so a new game can start. Resetting
// a live round is a wiring bug; Abandon first.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case Idle:
		return nil
	case Settled, Aborted:
	default:
		return &InvariantError{Msg: fmt.Sprintf("reset requested while %s", s.state)}
	}
	s.state = Idle
	s.reason = AbortNone
	s.gameID = ""
	s.layout = Layout{}
	s.revealed = nil
	s.revealOrder = nil
	s.slotsResult = nil
	s.choice = 0
	s.payoutAmount = decimal.Zero
	s.emit("ready")
	return nil
}

// reconcile replaces the optimistic balance with ledger truth. On a fetch
// failure the optimistic value stands until the next refresh. Caller holds
// the mutex.
func (s *Session) reconcile() {
	bal, err := s.ledger.AssetBalance(s.publicKey)
	if err != nil {
		s.log.WithError(err).Warn("balance reconciliation failed")
		return
	}
	s.balance = bal
	s.emit("balance reconciled")
}

func (s *Session) abort(reason AbortReason, err error) error {
	s.reason = reason
	s.log.WithError(err).WithField("reason", string(reason)).Warn("round aborted")
	s.setState(Aborted, err.Error())
	return err
}

func (s *Session) setState(state State, msg string) {
	s.state = state
	s.log.WithFields(logrus.Fields{"state": state.String(), "game": s.gameID}).Debug(msg)
	s.emit(msg)
}

// emit pushes a state snapshot to the presenter. Caller holds the mutex.
func (s *Session) emit(msg string) {
	if s.presenter == nil {
		return
	}
	ev := Event{
		State:    s.state,
		Reason:   s.reason,
		Message:  msg,
		GameType: s.gameType,
		GameID:   s.gameID,
		Balance:  s.balance,
		Layout:   s.layout,
		Payout:   s.payoutAmount,
	}
	if len(s.revealed) > 0 {
		ev.Revealed = make(map[int]string, len(s.revealed))
		for k, v := range s.revealed {
			ev.Revealed[k] = v
		}
	}
	if len(s.slotsResult) > 0 {
		ev.Result = append([]string(nil), s.slotsResult...)
	}
	s.presenter.SessionChanged(ev)
}

// Accessors below return snapshots under the mutex.

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Reason() AbortReason {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

func (s *Session) Balance() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance
}

func (s *Session) PublicKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.publicKey
}

func (s *Session) GameID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gameID
}

func (s *Session) CurrentLayout() Layout {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layout
}

func (s *Session) RevealedSpots() map[int]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]string, len(s.revealed))
	for k, v := range s.revealed {
		out[k] = v
	}
	return out
}

func (s *Session) SlotsOutcome() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.slotsResult...)
}

func (s *Session) PayoutAmount() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payoutAmount
}

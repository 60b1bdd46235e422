package session

import (
	"github.com/shopspring/decimal"

	"github.com/kalefarm/kale-casino/games"
)

// Event is a snapshot of session state pushed to the presenter on every
// transition and balance update.
type Event struct {
	State    State
	Reason   AbortReason
	Message  string
	GameType games.Type
	GameID   string
	Balance  decimal.Decimal
	Layout   Layout
	Revealed map[int]string
	Result   []string
	Payout   decimal.Decimal
}

// Presenter renders session state to the player. It consumes events and
// forwards user intents back in; it never makes protocol decisions.
type Presenter interface {
	SessionChanged(Event)
}

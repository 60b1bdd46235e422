// Package games holds the catalog of game types, stake tiers and the symbol
// set shared by the session and the terminal front end.
package games

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Type identifies one of the three casino games.
type Type int

const (
	Scratch Type = iota
	Slots
	Monte
)

// String returns the wire name used by the bank's game_type field.
func (t Type) String() string {
	switch t {
	case Scratch:
		return "Scratch"
	case Slots:
		return "Slots"
	case Monte:
		return "Monte"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// Farm symbols. The last two are the win symbols: kale pays, the farmer pays
// big. The seedling marks a hidden spot.
var Symbols = []string{"🍅", "🥕", "🥒", "🥔", "🌽", "🥦", "🍆", "🍠", "🥬", "👩‍🌾"}

const (
	SymbolKale   = "🥬"
	SymbolFarmer = "👩‍🌾"
	SymbolHidden = "🌱"
)

// Tier is one purchasable stake level for a game.
type Tier struct {
	Cost  decimal.Decimal
	Count int // spots, reels or cards depending on the game
	Name  string
}

var (
	scratchTiers = []Tier{
		{Cost: decimal.NewFromInt(10), Count: 3, Name: "Tiny Plot"},
		{Cost: decimal.NewFromInt(100), Count: 9, Name: "Garden Bed"},
		{Cost: decimal.NewFromInt(1000), Count: 12, Name: "Farm Field"},
	}
	slotsTiers = []Tier{
		{Cost: decimal.NewFromInt(10), Count: 3, Name: "3 Reels"},
		{Cost: decimal.NewFromInt(100), Count: 6, Name: "6 Reels"},
		{Cost: decimal.NewFromInt(1000), Count: 9, Name: "9 Reels"},
	}
	monteTiers = []Tier{
		{Cost: decimal.NewFromInt(10), Count: 3, Name: "3 Cards"},
		{Cost: decimal.NewFromInt(100), Count: 4, Name: "4 Cards"},
		{Cost: decimal.NewFromInt(1000), Count: 5, Name: "5 Cards"},
	}
)

// Tiers returns the stake menu for a game type.
func Tiers(t Type) []Tier {
	switch t {
	case Scratch:
		return scratchTiers
	case Slots:
		return slotsTiers
	case Monte:
		return monteTiers
	default:
		return nil
	}
}

func lookup(tiers []Tier, cost decimal.Decimal) (int, bool) {
	for _, tier := range tiers {
		if tier.Cost.Equal(cost) {
			return tier.Count, true
		}
	}
	return 0, false
}

// SlotsReels maps a slots stake to its reel count. The reel count is part of
// the play_slots request contract; all other layout parameters come from the
// bank and are never recomputed client-side.
func SlotsReels(cost decimal.Decimal) (int, bool) { return lookup(slotsTiers, cost) }

// ScratchSpots and MonteCards map a stake to the expected layout size, used
// only for menu display. The authoritative values come from the init response.
func ScratchSpots(cost decimal.Decimal) (int, bool) { return lookup(scratchTiers, cost) }
func MonteCards(cost decimal.Decimal) (int, bool)   { return lookup(monteTiers, cost) }

// Memo tags a stake payment with the game it belongs to, e.g. "Slots 483920".
// The ledger client truncates it to the text-memo limit on submission.
func Memo(t Type, gameID string) string {
	return fmt.Sprintf("%s %s", t, gameID)
}

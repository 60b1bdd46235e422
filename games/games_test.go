package games

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestTiers(t *testing.T) {
	cases := []struct {
		game  Type
		cost  int64
		count int
	}{
		{Scratch, 10, 3},
		{Scratch, 100, 9},
		{Scratch, 1000, 12},
		{Slots, 10, 3},
		{Slots, 100, 6},
		{Slots, 1000, 9},
		{Monte, 10, 3},
		{Monte, 100, 4},
		{Monte, 1000, 5},
	}
	for _, c := range cases {
		var got int
		var ok bool
		switch c.game {
		case Scratch:
			got, ok = ScratchSpots(decimal.NewFromInt(c.cost))
		case Slots:
			got, ok = SlotsReels(decimal.NewFromInt(c.cost))
		case Monte:
			got, ok = MonteCards(decimal.NewFromInt(c.cost))
		}
		if !ok {
			t.Errorf("%s cost=%d: not found", c.game, c.cost)
			continue
		}
		if got != c.count {
			t.Errorf("%s cost=%d: count=%d want %d", c.game, c.cost, got, c.count)
		}
	}
}

func TestTiers_UnknownStake(t *testing.T) {
	if _, ok := SlotsReels(decimal.NewFromInt(42)); ok {
		t.Error("expected unknown stake for 42")
	}
}

func TestMemo(t *testing.T) {
	if got := Memo(Scratch, "123456"); got != "Scratch 123456" {
		t.Errorf("Memo = %q", got)
	}
}

func TestSpinFrames(t *testing.T) {
	frames := SpinFrames(6, 5)
	if len(frames) != 5 {
		t.Fatalf("frames = %d, want 5", len(frames))
	}
	valid := make(map[string]bool, len(Symbols))
	for _, s := range Symbols {
		valid[s] = true
	}
	for i, frame := range frames {
		if len(frame) != 6 {
			t.Fatalf("frame %d width = %d, want 6", i, len(frame))
		}
		for _, sym := range frame {
			if !valid[sym] {
				t.Errorf("frame %d has invalid symbol %q", i, sym)
			}
		}
	}
}

func TestShuffleFrames(t *testing.T) {
	frames := ShuffleFrames(4, 5)
	if len(frames) != 5 {
		t.Fatalf("frames = %d, want 5", len(frames))
	}
	for i, frame := range frames {
		var kale int
		for _, sym := range frame {
			switch sym {
			case SymbolKale:
				kale++
			case SymbolHidden:
			default:
				t.Errorf("frame %d has unexpected symbol %q", i, sym)
			}
		}
		if kale != 1 {
			t.Errorf("frame %d has %d kale markers, want 1", i, kale)
		}
	}
}

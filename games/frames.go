package games

import "math/rand"

// Cosmetic animation material. Frames use math/rand on purpose: the outcome
// shown last always comes from the bank, so this randomness is never
// authoritative.

// SpinFrames returns count frames of width random symbols for the slots
// spin-up animation.
func SpinFrames(width, count int) [][]string {
	if width <= 0 || count <= 0 {
		return nil
	}
	frames := make([][]string, count)
	for i := range frames {
		frame := make([]string, width)
		for j := range frame {
			frame[j] = Symbols[rand.Intn(len(Symbols))]
		}
		frames[i] = frame
	}
	return frames
}

// ShuffleFrames returns count frames of numCards hidden spots with the kale
// flashing at a random position, for the monte shuffle animation.
func ShuffleFrames(numCards, count int) [][]string {
	if numCards <= 0 || count <= 0 {
		return nil
	}
	frames := make([][]string, count)
	for i := range frames {
		frame := make([]string, numCards)
		for j := range frame {
			frame[j] = SymbolHidden
		}
		frame[rand.Intn(numCards)] = SymbolKale
		frames[i] = frame
	}
	return frames
}

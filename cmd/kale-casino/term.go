package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/kalefarm/kale-casino/bank"
	"github.com/kalefarm/kale-casino/config"
	"github.com/kalefarm/kale-casino/games"
	"github.com/kalefarm/kale-casino/keystore"
	"github.com/kalefarm/kale-casino/ledger"
	"github.com/kalefarm/kale-casino/session"
	"github.com/kalefarm/kale-casino/wallet"
)

const banner = `
  🥬🥬🥬  K A L E   C A S I N O  🥬🥬🥬
     scratch · slots · three-card monte
`

const frameDelay = 150 * time.Millisecond

// terminal is the line-oriented presenter. It renders session events and
// collects player intents; every decision stays in the session.
type terminal struct {
	in  *bufio.Reader
	out io.Writer
}

func newTerminal(in io.Reader, out io.Writer) *terminal {
	return &terminal{in: bufio.NewReader(in), out: out}
}

func (t *terminal) printf(format string, args ...any) {
	fmt.Fprintf(t.out, format, args...)
}

// SessionChanged keeps the player informed of the transitions that are not
// already part of an interactive exchange.
func (t *terminal) SessionChanged(ev session.Event) {
	switch ev.State {
	case session.Settled:
		if ev.Payout.IsPositive() {
			t.printf("\n💰 You won %s KALE!\n", ev.Payout)
		} else {
			t.printf("\n🌧  No luck this time.\n")
		}
	case session.Aborted:
		if ev.Reason != session.AbortAbandoned {
			t.printf("\n⚠️  Round ended: %s\n", ev.Message)
		}
	}
}

func (t *terminal) prompt(msg string) (string, error) {
	t.printf("%s", msg)
	line, err := t.in.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (t *terminal) promptSecret() (string, error) {
	return t.prompt("Enter your secret key (never stored): ")
}

func (t *terminal) promptInt(msg string) (int, bool, error) {
	line, err := t.prompt(msg)
	if err != nil {
		return 0, false, err
	}
	if line == "" || strings.EqualFold(line, "q") {
		return 0, false, nil
	}
	n, err := strconv.Atoi(line)
	if err != nil {
		t.printf("Not a number.\n")
		return 0, false, nil
	}
	return n, true, nil
}

func (t *terminal) animate(frames [][]string) {
	for _, frame := range frames {
		t.printf("\r  %s  ", strings.Join(frame, " "))
		time.Sleep(frameDelay)
	}
	t.printf("\r")
}

// App ties the terminal loop to the session and its collaborators.
type App struct {
	cfg      *config.Config
	ui       *terminal
	signer   wallet.Signer
	ledger   *ledger.Client
	session  *session.Session
	keystore *keystore.Store
}

func (a *App) Run() error {
	a.ui.printf("%s\n", banner)
	if err := a.login(); err != nil {
		return err
	}

	for {
		a.ui.printf("\nBalance: %s KALE\n", a.session.Balance())
		a.ui.printf("  1) Scratch card\n  2) Slots\n  3) Three-card monte\n  4) Quit\n")
		choice, err := a.ui.prompt("> ")
		if err != nil {
			return nil
		}
		switch choice {
		case "1":
			err = a.playScratch()
		case "2":
			err = a.playSlots()
		case "3":
			err = a.playMonte()
		case "4", "q":
			a.ui.printf("Come back soon! 👩‍🌾\n")
			return nil
		default:
			continue
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			a.ui.printf("%s\n", describe(err))
		}
		a.session.Abandon()
		if err := a.session.Reset(); err != nil {
			return err
		}
	}
}

// login resolves the player account, caches the public key for next time and
// makes sure the KALE trustline exists.
func (a *App) login() error {
	pub, err := a.signer.PublicKey()
	if err != nil {
		return fmt.Errorf("wallet: %w", err)
	}
	if cached, ok := a.keystore.Load(); ok && cached == pub {
		a.ui.printf("Welcome back, %s…%s\n", pub[:4], pub[len(pub)-4:])
	}
	if err := a.keystore.Save(pub); err != nil {
		log.WithError(err).Warn("could not cache public key")
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.SubmitTimeout)
	defer cancel()
	created, err := a.ledger.EnsureTrustline(ctx, pub)
	switch {
	case errors.Is(err, ledger.ErrAccountNotFound):
		return fmt.Errorf("account %s does not exist on the network; fund it with XLM first", pub)
	case errors.Is(err, ledger.ErrInsufficientReserve):
		return errors.New("not enough XLM to add the KALE trustline; top up the account's reserve first")
	case err != nil:
		return err
	}
	if created {
		a.ui.printf("KALE trustline established.\n")
	}
	return a.session.Refresh()
}

func (a *App) pickTier(t games.Type) (decimal.Decimal, bool, error) {
	tiers := games.Tiers(t)
	a.ui.printf("\nPick a stake:\n")
	for i, tier := range tiers {
		a.ui.printf("  %d) %s KALE (%s)\n", i+1, tier.Cost, tier.Name)
	}
	n, ok, err := a.ui.promptInt("> ")
	if err != nil || !ok {
		return decimal.Zero, false, err
	}
	if n < 1 || n > len(tiers) {
		a.ui.printf("No such stake.\n")
		return decimal.Zero, false, nil
	}
	return tiers[n-1].Cost, true, nil
}

func (a *App) playScratch() error {
	cost, ok, err := a.pickTier(games.Scratch)
	if err != nil || !ok {
		return err
	}
	ctx := context.Background()
	if err := a.session.Start(ctx, games.Scratch, cost); err != nil {
		return err
	}

	for a.session.State() == session.InProgress {
		a.printScratchBoard()
		n, ok, err := a.ui.promptInt("Scratch which spot? (q to walk away) ")
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		symbol, err := a.session.Reveal(ctx, n)
		if err != nil {
			var inv *session.InvariantError
			if errors.As(err, &inv) {
				a.ui.printf("Pick a spot between 1 and %d.\n", a.session.CurrentLayout().Spots)
				continue
			}
			var netErr *bank.NetworkError
			if errors.As(err, &netErr) {
				a.ui.printf("Connection hiccup, try that spot again.\n")
				continue
			}
			return err
		}
		a.ui.printf("Spot %d: %s\n", n, symbol)
	}
	return nil
}

func (a *App) printScratchBoard() {
	layout := a.session.CurrentLayout()
	revealed := a.session.RevealedSpots()
	var row []string
	for i := 1; i <= layout.Spots; i++ {
		if symbol, ok := revealed[i]; ok {
			row = append(row, symbol)
		} else {
			row = append(row, games.SymbolHidden)
		}
	}
	a.ui.printf("\n  %s\n", strings.Join(row, " "))
}

func (a *App) playSlots() error {
	cost, ok, err := a.pickTier(games.Slots)
	if err != nil || !ok {
		return err
	}
	reels, _ := games.SlotsReels(cost)
	if err := a.session.Start(context.Background(), games.Slots, cost); err != nil {
		return err
	}
	a.ui.animate(games.SpinFrames(reels, 10))
	a.ui.printf("  %s\n", strings.Join(a.session.SlotsOutcome(), " "))
	return nil
}

func (a *App) playMonte() error {
	cost, ok, err := a.pickTier(games.Monte)
	if err != nil || !ok {
		return err
	}
	ctx := context.Background()
	if err := a.session.Start(ctx, games.Monte, cost); err != nil {
		return err
	}
	layout := a.session.CurrentLayout()
	a.ui.printf("\nFind the kale! 🥬\n")
	a.ui.animate(games.ShuffleFrames(layout.Cards, 12))

	for a.session.State() == session.InProgress {
		n, ok, err := a.ui.promptInt(fmt.Sprintf("Which card, 1-%d? (q to walk away) ", layout.Cards))
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := a.session.Choose(ctx, n); err != nil {
			var inv *session.InvariantError
			if errors.As(err, &inv) {
				a.ui.printf("Pick a card between 1 and %d.\n", layout.Cards)
				continue
			}
			return err
		}
	}
	return nil
}

// describe turns the error taxonomy into one player-facing line.
func describe(err error) string {
	switch {
	case errors.Is(err, wallet.ErrUserRejected):
		return "Signature request declined in the wallet."
	case errors.Is(err, wallet.ErrNotConnected):
		return "No wallet connected."
	case errors.Is(err, wallet.ErrSignerBusy):
		return "The wallet is already showing a signature prompt."
	case errors.Is(err, session.ErrInsufficientBalance):
		return "Not enough KALE for that stake."
	case errors.Is(err, ledger.ErrUnderfunded):
		return "The ledger rejected the payment: not enough KALE."
	case errors.Is(err, ledger.ErrDestinationUnavailable):
		return "The casino's account cannot receive payments right now."
	case errors.Is(err, ledger.ErrAccountNotFound):
		return "Account not found on the network."
	default:
		return err.Error()
	}
}

package main

import (
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/stellar/go/clients/horizonclient"

	"github.com/kalefarm/kale-casino/bank"
	"github.com/kalefarm/kale-casino/config"
	"github.com/kalefarm/kale-casino/keystore"
	"github.com/kalefarm/kale-casino/ledger"
	"github.com/kalefarm/kale-casino/session"
	"github.com/kalefarm/kale-casino/wallet"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)

	ui := newTerminal(os.Stdin, os.Stdout)

	signer, err := selectSigner(cfg, ui)
	if err != nil {
		log.Fatal(err)
	}

	horizon := &horizonclient.Client{
		HorizonURL: cfg.HorizonURL,
		HTTP:       &http.Client{Timeout: 30 * time.Second},
	}
	ledgerClient := ledger.New(horizon, signer, cfg.NetworkPassphrase,
		ledger.Asset{Code: cfg.AssetCode, Issuer: cfg.AssetIssuer}, cfg.BaseFee)
	bankClient := bank.NewClient(cfg.BankAPIURL, cfg.BankTimeout)

	sess, err := session.New(session.Options{
		Signer:         signer,
		Ledger:         ledgerClient,
		Bank:           bankClient,
		Presenter:      ui,
		BankAddress:    cfg.BankPublicKey,
		ReconcileDelay: cfg.ReconcileDelay,
	})
	if err != nil {
		log.Fatal(err)
	}

	app := &App{
		cfg:      cfg,
		ui:       ui,
		signer:   signer,
		ledger:   ledgerClient,
		session:  sess,
		keystore: keystore.New(cfg.DataDir),
	}
	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}

// selectSigner picks the wallet backend: the extension bridge when configured,
// otherwise a keypair pasted into the terminal for this process only.
func selectSigner(cfg *config.Config, ui *terminal) (wallet.Signer, error) {
	if cfg.WalletBridgeURL != "" {
		log.WithField("bridge", cfg.WalletBridgeURL).Info("using wallet bridge")
		return wallet.NewBridgeSigner(cfg.WalletBridgeURL, cfg.SubmitTimeout), nil
	}
	secret, err := ui.promptSecret()
	if err != nil {
		return nil, err
	}
	return wallet.NewLocalSigner(secret, cfg.NetworkPassphrase)
}

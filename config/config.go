// Package config loads the client configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/stellar/go/network"
)

type Config struct {
	// --- Ledger ---
	HorizonURL        string `envconfig:"HORIZON_URL" default:"https://horizon.stellar.org"`
	NetworkPassphrase string `envconfig:"NETWORK_PASSPHRASE"`
	// BaseFee is the per-operation fee in stroops.
	BaseFee int64 `envconfig:"BASE_FEE" default:"100"`
	// SubmitTimeout covers build/sign/submit of one ledger transaction.
	// Generous because signing may wait on a human in a wallet UI.
	SubmitTimeout time.Duration `envconfig:"SUBMIT_TIMEOUT" default:"3m"`

	// --- Casino bank ---
	BankPublicKey string `envconfig:"BANK_PUBLIC_KEY" default:"GC5FWTU5MP4HUOFWCQGFHTPFERFFNBL2QOKMJJQINLAV2G4QVQ6PFDL7"`
	BankAPIURL    string `envconfig:"BANK_API_URL" default:"https://kalecasino.pythonanywhere.com"`
	// BankTimeout is the conventional short timeout for backend HTTP calls.
	BankTimeout time.Duration `envconfig:"BANK_TIMEOUT" default:"10s"`

	// --- KALE asset ---
	AssetCode   string `envconfig:"KALE_ASSET_CODE" default:"KALE"`
	AssetIssuer string `envconfig:"KALE_ISSUER" default:"GBDVX4VELCDSQ54KQJYTNHXAHFLBCA77ZY2USQBM4CSHTTV7DME7KALE"`

	// --- Session ---
	// ReconcileDelay is how long to wait after a payout before re-querying the
	// ledger balance, so settlement has a chance to land.
	ReconcileDelay time.Duration `envconfig:"RECONCILE_DELAY" default:"4s"`

	// --- Wallet ---
	// WalletBridgeURL, when set, selects the extension-bridge signer instead of
	// a local keypair.
	WalletBridgeURL string `envconfig:"WALLET_BRIDGE_URL"`

	// --- Application ---
	DataDir  string `envconfig:"DATA_DIR" default:"data"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads the environment and fills Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.NetworkPassphrase == "" {
		cfg.NetworkPassphrase = network.PublicNetworkPassphrase
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.BankPublicKey == "" {
		return fmt.Errorf("config: BANK_PUBLIC_KEY is required")
	}
	if c.BankAPIURL == "" {
		return fmt.Errorf("config: BANK_API_URL is required")
	}
	if c.AssetCode == "" || c.AssetIssuer == "" {
		return fmt.Errorf("config: KALE_ASSET_CODE and KALE_ISSUER are required")
	}
	if c.BaseFee <= 0 {
		return fmt.Errorf("config: BASE_FEE must be > 0")
	}
	return nil
}

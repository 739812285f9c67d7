// Package config carries the node's fixed identity and protocol
// parameters. The bank role is decided here and nowhere else: a
// process is the bank iff chain_id == bank_chain_id.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

type Config struct {
	// Identity of this process and of the settling authority.
	ChainID     string `toml:"chain_id"`
	BankChainID string `toml:"bank_chain_id"`
	// Account owner playing on this process (player chains).
	Owner string `toml:"owner"`

	// Bank parameters.
	MasterSeed   uint64 `toml:"master_seed"`
	FaucetAmount uint64 `toml:"faucet_amount"`
	HouseFloat   uint64 `toml:"house_float"`

	// Player parameters.
	StartingBalance uint64 `toml:"starting_balance"`

	// ABCI server.
	Listen    string `toml:"listen"`
	Transport string `toml:"transport"`
}

func Default() Config {
	return Config{
		ChainID:         "bank",
		BankChainID:     "bank",
		FaucetAmount:    100,
		HouseFloat:      1_000_000,
		StartingBalance: 1_000,
		Listen:          "tcp://127.0.0.1:26658",
		Transport:       "socket",
	}
}

// Load reads a TOML config file over the defaults. An empty path
// returns the defaults untouched.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode config %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.ChainID == "" {
		return fmt.Errorf("chain_id must be set")
	}
	if c.BankChainID == "" {
		return fmt.Errorf("bank_chain_id must be set")
	}
	if !c.IsBank() && c.Owner == "" {
		return fmt.Errorf("owner must be set on player chains")
	}
	switch c.Transport {
	case "socket", "grpc":
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	return nil
}

func (c Config) IsBank() bool {
	return c.ChainID == c.BankChainID
}

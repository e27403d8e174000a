// Package config loads the YAML configuration shared by the tools.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/manuochoa/metaplex/ledger"
	"gopkg.in/yaml.v3"
)

const (
	DefaultLogLevel        = "INFO"
	DefaultLedgerIdentity  = "ledger/default"
	DefaultContainer       = "slots"
	DefaultLoadConcurrency = 8
)

var (
	ErrProgramIDRequired  = errors.New("program_id is required")
	ErrInvalidAddress     = errors.New("the address is not 64 hex characters")
	ErrInvalidRent        = errors.New("the rent parameters are not usable")
	ErrInvalidConcurrency = errors.New("load_concurrency must be positive")
)

type BlobConfig struct {
	// Container holds the slot blobs
	Container string `yaml:"container"`
	// LedgerIdentity scopes the slot blob paths, so several ledgers can share
	// a container.
	LedgerIdentity string `yaml:"ledger_identity"`
}

type RentConfig struct {
	LamportsPerByteYear uint64  `yaml:"lamports_per_byte_year"`
	ExemptionThreshold  float64 `yaml:"exemption_threshold"`
	BurnPercent         uint8   `yaml:"burn_percent"`
}

type Config struct {
	// ProgramID is the hex address the store index program is registered at
	ProgramID string `yaml:"program_id"`
	// Store is the hex address of the store used when a command does not name one
	Store           string     `yaml:"store"`
	LogLevel        string     `yaml:"log_level"`
	LoadConcurrency int        `yaml:"load_concurrency"`
	Blob            BlobConfig `yaml:"blob"`
	Rent            RentConfig `yaml:"rent"`
}

// Default returns the configuration used for anything a file leaves out
func Default() Config {
	rent := ledger.DefaultRent()
	return Config{
		LogLevel:        DefaultLogLevel,
		LoadConcurrency: DefaultLoadConcurrency,
		Blob: BlobConfig{
			Container:      DefaultContainer,
			LedgerIdentity: DefaultLedgerIdentity,
		},
		Rent: RentConfig{
			LamportsPerByteYear: rent.LamportsPerByteYear,
			ExemptionThreshold:  rent.ExemptionThreshold,
			BurnPercent:         rent.BurnPercent,
		},
	}
}

// Load reads and validates the file at path. Values missing from the file
// keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.ProgramID == "" {
		return ErrProgramIDRequired
	}
	if _, err := ledger.AddressFromHex(c.ProgramID); err != nil {
		return fmt.Errorf("%w: program_id: %v", ErrInvalidAddress, err)
	}
	if c.Store != "" {
		if _, err := ledger.AddressFromHex(c.Store); err != nil {
			return fmt.Errorf("%w: store: %v", ErrInvalidAddress, err)
		}
	}
	if c.Rent.LamportsPerByteYear == 0 || c.Rent.ExemptionThreshold <= 0 || c.Rent.BurnPercent > 100 {
		return ErrInvalidRent
	}
	if c.LoadConcurrency <= 0 {
		return ErrInvalidConcurrency
	}
	return nil
}

// Program returns the program id. Only call on a validated Config.
func (c Config) Program() ledger.Address {
	return ledger.MustAddressFromHex(c.ProgramID)
}

// StoreAddress returns the configured store, if any
func (c Config) StoreAddress() (ledger.Address, bool) {
	if c.Store == "" {
		return ledger.Address{}, false
	}
	a, err := ledger.AddressFromHex(c.Store)
	return a, err == nil
}

func (c Config) LedgerRent() ledger.Rent {
	return ledger.Rent{
		LamportsPerByteYear: c.Rent.LamportsPerByteYear,
		ExemptionThreshold:  c.Rent.ExemptionThreshold,
		BurnPercent:         c.Rent.BurnPercent,
	}
}

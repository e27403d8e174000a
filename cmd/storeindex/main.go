// Command storeindex derives, inspects and inserts into the paginated store
// index.
package main

import (
	"fmt"
	"os"

	"github.com/datatrails/go-datatrails-common/azblob"
	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/manuochoa/metaplex/config"
	"github.com/manuochoa/metaplex/ledger"
	"github.com/spf13/cobra"
)

const serviceName = "storeindex"

var (
	configPath string
	storeHex   string
)

// openStore connects the commands to slot storage. Tests replace it.
var openStore = func(cfg config.Config, log logger.Logger) (ledger.SlotStore, error) {
	storer, err := azblob.NewDev(azblob.NewDevConfigFromEnv(), cfg.Blob.Container)
	if err != nil {
		return nil, err
	}
	return ledger.NewBlobStore(log, cfg.Blob.LedgerIdentity, storer), nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           serviceName,
		Short:         "Maintain the paginated index of a store's auction caches",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "storeindex.yaml", "configuration file")
	root.PersistentFlags().StringVar(&storeHex, "store", "", "store address, hex. defaults to the configured store")

	root.AddCommand(
		newDerivePageCmd(),
		newDeriveCacheCmd(),
		newInsertCmd(),
		newShowCmd(),
		newListCmd(),
	)
	return root
}

// env is what every command needs once flags are parsed
type env struct {
	cfg   config.Config
	log   logger.Logger
	store ledger.Address
}

func loadEnv() (env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return env{}, err
	}
	logger.New(cfg.LogLevel)
	e := env{cfg: cfg, log: logger.Sugar.WithServiceName(serviceName)}

	if storeHex != "" {
		e.store, err = ledger.AddressFromHex(storeHex)
		if err != nil {
			return env{}, fmt.Errorf("--store: %w", err)
		}
		return e, nil
	}
	store, ok := cfg.StoreAddress()
	if !ok {
		return env{}, fmt.Errorf("no store given and none configured")
	}
	e.store = store
	return e, nil
}

func main() {
	err := newRootCmd().Execute()
	if logger.Sugar != nil {
		logger.OnExit()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

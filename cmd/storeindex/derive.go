package main

import (
	"fmt"

	"github.com/manuochoa/metaplex/derivation"
	"github.com/manuochoa/metaplex/ledger"
	"github.com/spf13/cobra"
)

func newDerivePageCmd() *cobra.Command {
	var page uint64
	cmd := &cobra.Command{
		Use:   "derive-page",
		Short: "Print the address of an index page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			addr, bump, err := derivation.IndexPageAddress(e.cfg.Program(), e.store, page)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d\n", addr, bump)
			return nil
		},
	}
	cmd.Flags().Uint64Var(&page, "page", 0, "page number")
	return cmd
}

func newDeriveCacheCmd() *cobra.Command {
	var auctionHex string
	cmd := &cobra.Command{
		Use:   "derive-cache",
		Short: "Print the address of an auction's cache record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			auction, err := ledger.AddressFromHex(auctionHex)
			if err != nil {
				return fmt.Errorf("--auction: %w", err)
			}
			addr, bump, err := derivation.CacheAddress(e.cfg.Program(), e.store, auction)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d\n", addr, bump)
			return nil
		},
	}
	cmd.Flags().StringVar(&auctionHex, "auction", "", "auction address, hex")
	_ = cmd.MarkFlagRequired("auction")
	return cmd
}

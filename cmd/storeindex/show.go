package main

import (
	"fmt"
	"io"

	"github.com/manuochoa/metaplex/storeindex"
	"github.com/spf13/cobra"
)

func newShowCmd() *cobra.Command {
	var page uint64
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the entries of one index page, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			store, err := openStore(e.cfg, e.log)
			if err != nil {
				return err
			}
			reader := storeindex.NewPageReader(e.cfg.Program(), e.store, store)
			entries, err := reader.ReadEntries(cmd.Context(), page)
			if err != nil {
				return err
			}
			printEntries(cmd.OutOrStdout(), page, entries)
			return nil
		},
	}
	cmd.Flags().Uint64Var(&page, "page", 0, "page number")
	return cmd
}

func newListCmd() *cobra.Command {
	var limit uint64
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print every index page of the store, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			store, err := openStore(e.cfg, e.log)
			if err != nil {
				return err
			}
			reader := storeindex.NewPageReader(e.cfg.Program(), e.store, store)
			return reader.ListPages(cmd.Context(), func(page uint64, entries []storeindex.Entry) (bool, error) {
				printEntries(cmd.OutOrStdout(), page, entries)
				return limit == 0 || page+1 < limit, nil
			})
		},
	}
	cmd.Flags().Uint64Var(&limit, "limit", 0, "maximum number of pages, 0 for all")
	return cmd
}

func printEntries(w io.Writer, page uint64, entries []storeindex.Entry) {
	for i, entry := range entries {
		fmt.Fprintf(w, "%d %d %s %d\n", page, i, entry.Address, entry.Cache.Timestamp)
	}
}

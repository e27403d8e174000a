package main

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/manuochoa/metaplex/auth"
	"github.com/manuochoa/metaplex/host"
	"github.com/manuochoa/metaplex/ledger"
	"github.com/manuochoa/metaplex/records"
	"github.com/manuochoa/metaplex/storeindex"
	"github.com/manuochoa/metaplex/system"
	"github.com/spf13/cobra"
)

const defaultInsertAttempts = 5

// retryable codes are those a fresh read of the page can fix
var retryable = map[storeindex.Code]bool{
	storeindex.CodeInvalidOffset:        true,
	storeindex.CodeNeighborMismatch:     true,
	storeindex.CodeMissingAboveNeighbor: true,
	storeindex.CodeMissingBelowNeighbor: true,
	storeindex.CodeAboveIsNewer:         true,
	storeindex.CodeBelowIsOlder:         true,
	storeindex.CodePageFull:             true,
	storeindex.CodeConflict:             true,
}

type insertFlags struct {
	cacheHex string
	keyFile  string
	page     uint64
	attempts int
}

func newInsertCmd() *cobra.Command {
	var f insertFlags
	cmd := &cobra.Command{
		Use:   "insert",
		Short: "Insert a cache record into the index at its timestamp order",
		Long: `Plans the insert against the current page, then executes it as a
transaction signed by the payer key. A page that fills up moves the insert to
the next page, a stale plan is re-planned.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			store, err := openStore(e.cfg, e.log)
			if err != nil {
				return err
			}
			return runInsert(cmd.Context(), cmd, e, store, f)
		},
	}
	cmd.Flags().StringVar(&f.cacheHex, "cache", "", "cache record address, hex")
	cmd.Flags().StringVar(&f.keyFile, "key-file", "", "file holding the payer's hex ed25519 seed")
	cmd.Flags().Uint64Var(&f.page, "page", 0, "first page to try")
	cmd.Flags().IntVar(&f.attempts, "attempts", defaultInsertAttempts, "maximum submissions")
	_ = cmd.MarkFlagRequired("cache")
	_ = cmd.MarkFlagRequired("key-file")
	return cmd
}

func runInsert(ctx context.Context, cmd *cobra.Command, e env, store ledger.SlotStore, f insertFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cache, err := ledger.AddressFromHex(f.cacheHex)
	if err != nil {
		return fmt.Errorf("--cache: %w", err)
	}
	key, err := readKey(f.keyFile)
	if err != nil {
		return err
	}
	payer := auth.Identity(key.Public().(ed25519.PublicKey))

	h, err := host.New(e.log, store,
		host.WithLoadConcurrency(e.cfg.LoadConcurrency),
		host.WithRent(e.cfg.LedgerRent()),
		host.WithClock(host.NewWallClock()))
	if err != nil {
		return err
	}
	proc, err := storeindex.NewProcessor(e.log, system.NewAllocator(e.log))
	if err != nil {
		return err
	}
	h.Register(e.cfg.Program(), proc)
	codec, err := storeindex.NewInstructionCodec()
	if err != nil {
		return err
	}

	reader := storeindex.NewPageReader(e.cfg.Program(), e.store, store)
	si, err := ledger.LoadSlotInfo(ctx, store, cache)
	if err != nil {
		return err
	}
	record, err := records.AuctionCacheFromSlot(si)
	if err != nil {
		return err
	}

	page := f.page
	for attempt := 1; ; attempt++ {
		idx, capacity, err := reader.ReadPageCapacity(ctx, page)
		if ledger.IsSlotNotFound(err) {
			capacity = proc.PageCapacity()
		} else if err != nil {
			return err
		}
		plan, err := storeindex.PlanInsert(page, idx, capacity, record.Timestamp, reader.TimestampLookup(ctx))
		if errors.Is(err, storeindex.ErrPageFull) {
			page++
			continue
		}
		if err != nil {
			return err
		}

		slots, err := storeindex.InsertSlots(e.cfg.Program(), e.store, payer, cache, plan)
		if err != nil {
			return err
		}
		data, err := codec.EncodeSetStoreIndex(plan.Args())
		if err != nil {
			return err
		}
		nonce := uuid.New()
		tx, err := h.Codec().NewTransaction(host.Instruction{
			ProgramID: e.cfg.Program(), Slots: slots, Data: data, Nonce: nonce[:],
		}, key)
		if err != nil {
			return err
		}

		receipt, err := h.Execute(ctx, tx)
		if err == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "%s page %d offset %d\n", receipt.ID, plan.Page, plan.Offset)
			return nil
		}
		code := storeindex.CodeOf(err)
		if !retryable[code] || attempt >= f.attempts {
			return fmt.Errorf("insert failed, code %d (%s): %w", code, code, err)
		}
		e.log.Infof("attempt %d: %s, re-planning", attempt, code)
	}
}

func readKey(path string) (ed25519.PrivateKey, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	seed, err := hex.DecodeString(strings.TrimSpace(string(b)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("%s: the seed must be %d bytes", path, ed25519.SeedSize)
	}
	return ed25519.NewKeyFromSeed(seed), nil
}

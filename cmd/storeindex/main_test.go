package main

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"strings"
	"testing"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/manuochoa/metaplex/auth"
	"github.com/manuochoa/metaplex/config"
	"github.com/manuochoa/metaplex/derivation"
	"github.com/manuochoa/metaplex/ledger"
	"github.com/manuochoa/metaplex/records"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gotest.tools/v3/fs"
)

var (
	testProgram = ledger.MustAddressFromHex(strings.Repeat("0a", 32))
	testStore   = ledger.MustAddressFromHex(strings.Repeat("0b", 32))
)

type cliFixture struct {
	t     *testing.T
	dir   *fs.Dir
	slots *ledger.MemStore
	payer ledger.Address
}

// newCLIFixture seeds a store holding the store record and a funded payer.
// The sysvars are not seeded, the commands supply them from the config.
func newCLIFixture(t *testing.T, extraConfig ...string) *cliFixture {
	t.Helper()
	seed := bytes.Repeat([]byte{7}, ed25519.SeedSize)
	dir := fs.NewDir(t, "storeindex",
		fs.WithFile("storeindex.yaml", fmt.Sprintf(
			"program_id: %s\nstore: %s\nlog_level: NOOP\n%s",
			testProgram, testStore, strings.Join(extraConfig, ""))),
		fs.WithFile("payer.key", hex.EncodeToString(seed)+"\n"),
	)
	t.Cleanup(dir.Remove)

	slots := ledger.NewMemStore()
	storeData, err := records.Store{Key: records.KeyStoreV1}.MarshalBinary()
	require.NoError(t, err)
	slots.Put(testStore, ledger.Slot{Owner: testProgram, Data: storeData})
	payer := auth.Identity(ed25519.NewKeyFromSeed(seed).Public().(ed25519.PublicKey))
	slots.Put(payer, ledger.Slot{Lamports: 10_000_000_000})

	prev := openStore
	openStore = func(config.Config, logger.Logger) (ledger.SlotStore, error) { return slots, nil }
	t.Cleanup(func() { openStore = prev })

	return &cliFixture{t: t, dir: dir, slots: slots, payer: payer}
}

func (f *cliFixture) cache(name string, timestamp int64) ledger.Address {
	f.t.Helper()
	var auction ledger.Address
	copy(auction[:], name)
	addr, _, err := derivation.CacheAddress(testProgram, testStore, auction)
	require.NoError(f.t, err)
	data, err := records.AuctionCache{
		Key: records.KeyAuctionCacheV1, Store: testStore, Timestamp: timestamp, Auction: auction,
	}.MarshalBinary()
	require.NoError(f.t, err)
	f.slots.Put(addr, ledger.Slot{Owner: testProgram, Data: data})
	return addr
}

func (f *cliFixture) run(args ...string) (string, error) {
	f.t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs(append([]string{"--config", f.dir.Join("storeindex.yaml")}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestDeriveCommands(t *testing.T) {
	defer logger.OnExit()
	f := newCLIFixture(t)

	out, err := f.run("derive-page", "--page", "2")
	require.NoError(t, err)
	addr, bump, err := derivation.IndexPageAddress(testProgram, testStore, 2)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("%s %d\n", addr, bump), out)

	auction := strings.Repeat("0c", 32)
	out, err = f.run("derive-cache", "--auction", auction)
	require.NoError(t, err)
	addr, bump, err = derivation.CacheAddress(testProgram, testStore, ledger.MustAddressFromHex(auction))
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("%s %d\n", addr, bump), out)

	_, err = f.run("derive-cache", "--auction", "nothex")
	assert.Error(t, err)
}

func TestInsertShowList(t *testing.T) {
	defer logger.OnExit()
	f := newCLIFixture(t)
	key := f.dir.Join("payer.key")

	mid := f.cache("mid", 200)
	old := f.cache("old", 100)
	fresh := f.cache("new", 300)
	for _, c := range []ledger.Address{mid, old, fresh} {
		_, err := f.run("insert", "--cache", c.String(), "--key-file", key)
		require.NoError(t, err)
	}

	out, err := f.run("show", "--page", "0")
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("0 0 %s 300\n0 1 %s 200\n0 2 %s 100\n", fresh, mid, old), out)

	out, err = f.run("list")
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(out, "\n"))

	_, err = f.run("show", "--page", "1")
	assert.True(t, ledger.IsSlotNotFound(err))
}

func TestInsert_Rejected(t *testing.T) {
	defer logger.OnExit()
	f := newCLIFixture(t)

	// a cache record at an address that is not its derivation
	var stray ledger.Address
	stray[0] = 0x42
	data, err := records.AuctionCache{Key: records.KeyAuctionCacheV1, Store: testStore}.MarshalBinary()
	require.NoError(t, err)
	f.slots.Put(stray, ledger.Slot{Owner: testProgram, Data: data})

	_, err = f.run("insert", "--cache", stray.String(), "--key-file", f.dir.Join("payer.key"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "InvalidDerivation")
}

func TestInsert_RentFromConfig(t *testing.T) {
	defer logger.OnExit()
	f := newCLIFixture(t,
		"rent:\n  lamports_per_byte_year: 10\n  exemption_threshold: 1.0\n  burn_percent: 0\n")
	ctx := context.Background()

	c := f.cache("a", 1)
	_, err := f.run("insert", "--cache", c.String(), "--key-file", f.dir.Join("payer.key"))
	require.NoError(t, err)

	rent := ledger.Rent{LamportsPerByteYear: 10, ExemptionThreshold: 1.0}
	payer, _, err := f.slots.GetSlot(ctx, f.payer)
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000_000_000)-rent.MinimumBalance(records.MaxStoreIndexerSize), payer.Lamports)

	// the supplied sysvars are never written to the store
	for _, addr := range []ledger.Address{ledger.RentSysvarID, ledger.ClockSysvarID} {
		_, _, err := f.slots.GetSlot(ctx, addr)
		assert.True(t, ledger.IsSlotNotFound(err), addr.String())
	}
}

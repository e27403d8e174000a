// Package ledgertesting provides an Azurite backed test context for slot
// storage tests.
package ledgertesting

import (
	"context"
	"strings"
	"testing"

	"github.com/datatrails/go-datatrails-common/azblob"
	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/manuochoa/metaplex/ledger"
	"github.com/stretchr/testify/require"
)

type TestContext struct {
	Log    logger.Logger
	Storer *azblob.Storer
	T      *testing.T
	cfg    TestConfig
}

type TestConfig struct {
	TestLabelPrefix string
	LedgerIdentity  string // can be "" defaults to TestLabelPrefix
	Container       string // can be "" defaults to TestLabelPrefix
}

// NewAzuriteTestContext connects to the blob store emulator configured by the
// environment, see azblob.NewDevConfigFromEnv
func NewAzuriteTestContext(t *testing.T, testLabelPrefix string) TestContext {
	return NewTestContext(t, TestConfig{
		TestLabelPrefix: testLabelPrefix,
		Container:       strings.ReplaceAll(strings.ToLower(testLabelPrefix), "_", ""),
	})
}

func NewTestContext(t *testing.T, cfg TestConfig) TestContext {
	c := TestContext{
		T: t,
	}
	logger.New("INFO")
	c.Log = logger.Sugar.WithServiceName(cfg.TestLabelPrefix)

	if cfg.Container == "" {
		cfg.Container = strings.ToLower(cfg.TestLabelPrefix)
	}
	if cfg.LedgerIdentity == "" {
		cfg.LedgerIdentity = "ledger/" + strings.ToLower(cfg.TestLabelPrefix)
	}
	c.cfg = cfg

	var err error
	c.Storer, err = azblob.NewDev(azblob.NewDevConfigFromEnv(), cfg.Container)
	if err != nil {
		t.Fatalf("failed to connect to blob store emulator: %v", err)
	}
	client := c.Storer.GetServiceClient()
	// Note: we expect a 'already exists' error here and  ignore it.
	_, _ = client.CreateContainer(context.Background(), cfg.Container, nil)

	return c
}

func (c *TestContext) LedgerIdentity() string {
	return c.cfg.LedgerIdentity
}

// NewBlobStore returns a slot store over the test container, after removing
// any slots left by a previous run.
func (c *TestContext) NewBlobStore(opts ...ledger.BlobStoreOption) *ledger.BlobStore {
	c.DeleteBlobsByPrefix(ledger.LedgerSlotPrefix(c.cfg.LedgerIdentity))
	return ledger.NewBlobStore(c.Log, c.cfg.LedgerIdentity, c.Storer, opts...)
}

// Seed unconditionally establishes each slot, for test setup
func (c *TestContext) Seed(store *ledger.BlobStore, slots map[ledger.Address]ledger.Slot) {
	ctx := context.Background()
	for addr, slot := range slots {
		_, err := c.Storer.Put(
			ctx, ledger.SlotBlobPath(store.LedgerIdentity, addr),
			azblob.NewBytesReaderCloser(slot.Data),
			azblob.WithTags(ledger.SlotTags(slot)))
		require.NoError(c.T, err)
	}
}

func (c *TestContext) DeleteBlobsByPrefix(blobPrefixPath string) {
	var err error
	var r *azblob.ListerResponse
	var blobs []string

	var marker azblob.ListMarker
	for {
		r, err = c.Storer.List(
			context.Background(),
			azblob.WithListPrefix(blobPrefixPath), azblob.WithListMarker(marker))

		require.NoError(c.T, err)

		for _, i := range r.Items {
			blobs = append(blobs, *i.Name)
		}
		if len(r.Items) == 0 || r.Marker == nil {
			break
		}
		marker = r.Marker
	}
	for _, blobPath := range blobs {
		err = c.Storer.Delete(context.Background(), blobPath)
		require.NoError(c.T, err)
	}
}

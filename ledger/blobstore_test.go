package ledger

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"testing"

	"github.com/datatrails/go-datatrails-common/azblob"
	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSlotBlobs is an in memory stand in for the blob store. It can't see the
// etag conditions carried by the azblob options, the integration tests cover
// those against azurite.
type testSlotBlobs struct {
	blobs map[string][]byte
	tags  map[string]map[string]string
	puts  int
	// readOpts is the number of options passed to the last read
	readOpts int
}

func newTestSlotBlobs() *testSlotBlobs {
	return &testSlotBlobs{blobs: map[string][]byte{}, tags: map[string]map[string]string{}}
}

func (b *testSlotBlobs) Reader(
	ctx context.Context, identity string, opts ...azblob.Option,
) (*azblob.ReaderResponse, error) {
	b.readOpts = len(opts)
	data, ok := b.blobs[identity]
	if !ok {
		return nil, fmt.Errorf("%s: %w", identity, ErrSlotNotFound)
	}
	etag := strconv.Itoa(b.puts)
	return &azblob.ReaderResponse{
		Reader: io.NopCloser(bytes.NewReader(data)),
		Tags:   b.tags[identity],
		ETag:   &etag,
	}, nil
}

func (b *testSlotBlobs) Put(
	ctx context.Context, identity string, source io.ReadSeekCloser, opts ...azblob.Option,
) (*azblob.WriteResponse, error) {
	data, err := io.ReadAll(source)
	if err != nil {
		return nil, err
	}
	b.puts++
	b.blobs[identity] = data
	return &azblob.WriteResponse{}, nil
}

func TestBlobStore_GetSlotNotFound(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()

	s := NewBlobStore(logger.Sugar.WithServiceName("TestBlobStore"), "ledger", newTestSlotBlobs())
	_, _, err := s.GetSlot(context.Background(), testAddress(1))
	require.ErrorIs(t, err, ErrSlotNotFound)

	si, err := LoadSlotInfo(context.Background(), s, testAddress(1))
	require.NoError(t, err)
	assert.False(t, si.Exists())
}

func TestBlobStore_ReadTagsAndData(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()

	blobs := newTestSlotBlobs()
	addr := testAddress(1)
	owner := testAddress(7)
	path := SlotBlobPath("ledger", addr)
	blobs.blobs[path] = []byte{1, 2, 3}
	blobs.tags[path] = SlotTags(Slot{Owner: owner, Lamports: 99})

	s := NewBlobStore(logger.Sugar.WithServiceName("TestBlobStore"), "ledger", blobs)
	slot, version, err := s.GetSlot(context.Background(), addr)
	require.NoError(t, err)
	assert.Equal(t, "0", version)
	assert.Equal(t, owner, slot.Owner)
	assert.Equal(t, uint64(99), slot.Lamports)
	assert.Equal(t, []byte{1, 2, 3}, slot.Data)
}

func TestBlobStore_MissingTags(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()

	blobs := newTestSlotBlobs()
	addr := testAddress(1)
	blobs.blobs[SlotBlobPath("ledger", addr)] = []byte{1}

	s := NewBlobStore(logger.Sugar.WithServiceName("TestBlobStore"), "ledger", blobs)
	_, _, err := s.GetSlot(context.Background(), addr)
	require.ErrorIs(t, err, ErrSlotTagMissing)
}

func TestBlobStore_CommitWritesEveryChange(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()

	blobs := newTestSlotBlobs()
	s := NewBlobStore(logger.Sugar.WithServiceName("TestBlobStore"), "ledger", blobs)

	err := s.Commit(context.Background(), []SlotChange{
		{Address: testAddress(1), Slot: Slot{Data: []byte{1}}},
		{Address: testAddress(2), Slot: Slot{Data: []byte{2}}, Version: "3"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, blobs.puts)
	assert.Equal(t, []byte{2}, blobs.blobs[SlotBlobPath("ledger", testAddress(2))])
}

func TestSlotFromBlobContext(t *testing.T) {
	owner := testAddress(3)
	tests := []struct {
		name    string
		tags    map[string]string
		wantErr bool
	}{
		{"valid", SlotTags(Slot{Owner: owner, Lamports: 1}), false},
		{"no owner", map[string]string{TagKeyLamports: "1"}, true},
		{"bad owner", map[string]string{TagKeyOwner: "zz", TagKeyLamports: "1"}, true},
		{"no lamports", map[string]string{TagKeyOwner: owner.String()}, true},
		{"bad lamports", map[string]string{TagKeyOwner: owner.String(), TagKeyLamports: "-1"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SlotFromBlobContext(SlotBlobContext{Tags: tt.tags})
			if tt.wantErr {
				require.ErrorIs(t, err, ErrSlotTagMissing)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestBlobStore_RemoteReadOptions(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()
	blobs := newTestSlotBlobs()
	store := NewBlobStore(
		logger.Sugar.WithServiceName("TestBlobStore"), "ledger/test", blobs,
		WithRemoteReadOptions(azblob.WithGetTags()))

	_, _, err := store.GetSlot(context.Background(), testAddress(1))
	assert.True(t, IsSlotNotFound(err))
	// the tags option is always sent, the remote options follow it
	assert.Equal(t, 2, blobs.readOpts)
}

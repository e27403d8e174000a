package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/datatrails/go-datatrails-common/azblob"
	"github.com/datatrails/go-datatrails-common/logger"
)

const (
	TagKeyOwner    = "owner"
	TagKeyLamports = "lamports"
)

// slotBlobStore is the subset of the azblob Storer used for slot IO
type slotBlobStore interface {
	Reader(
		ctx context.Context,
		identity string,
		opts ...azblob.Option,
	) (*azblob.ReaderResponse, error)

	Put(
		ctx context.Context,
		identity string,
		source io.ReadSeekCloser,
		opts ...azblob.Option,
	) (*azblob.WriteResponse, error)
}

// SlotBlobContext carries the blob metadata for a slot read from, or written
// to, blob storage.
type SlotBlobContext struct {
	BlobPath     string
	ETag         string
	Tags         map[string]string
	LastRead     time.Time
	LastModified time.Time
	Data         []byte
}

type BlobStoreOptions struct {
	// remoteReadOpts are forwarded on every read blob call
	remoteReadOpts []azblob.Option
}

type BlobStoreOption func(*BlobStoreOptions)

// WithRemoteReadOptions forwards additional azblob options to every read
func WithRemoteReadOptions(opts ...azblob.Option) BlobStoreOption {
	return func(o *BlobStoreOptions) {
		o.remoteReadOpts = append(o.remoteReadOpts, opts...)
	}
}

// BlobStore keeps each slot in its own blob. The slot data is the blob
// content, the owner and lamports are blob tags.
//
// Every write is guarded by the etag read with the slot, or by a none-match
// on any etag when the slot is created. Azure gives no multi blob
// transaction, so Commit is atomic per slot and applies changes in the order
// given. A failure part way through leaves the earlier changes applied.
type BlobStore struct {
	Log            logger.Logger
	LedgerIdentity string
	Store          slotBlobStore
	opts           BlobStoreOptions
}

func NewBlobStore(
	log logger.Logger, ledgerIdentity string, store slotBlobStore, opts ...BlobStoreOption) *BlobStore {
	s := &BlobStore{
		Log:            log,
		LedgerIdentity: ledgerIdentity,
		Store:          store,
	}
	for _, o := range opts {
		o(&s.opts)
	}
	return s
}

func (s *BlobStore) GetSlot(ctx context.Context, addr Address) (Slot, string, error) {
	bc, err := s.ReadSlotBlob(ctx, addr)
	if err != nil {
		return Slot{}, "", err
	}
	slot, err := SlotFromBlobContext(bc)
	if err != nil {
		return Slot{}, "", err
	}
	return slot, bc.ETag, nil
}

// ReadSlotBlob reads the blob for addr, populating the context from the blob
// store response. Blob not found is reported as ErrSlotNotFound.
func (s *BlobStore) ReadSlotBlob(ctx context.Context, addr Address) (SlotBlobContext, error) {
	bc := SlotBlobContext{BlobPath: SlotBlobPath(s.LedgerIdentity, addr)}

	opts := append([]azblob.Option{azblob.WithGetTags()}, s.opts.remoteReadOpts...)
	rr, err := s.Store.Reader(ctx, bc.BlobPath, opts...)
	if err != nil {
		return bc, WrapBlobNotFound(err)
	}
	defer rr.Reader.Close()

	bc.Data, err = io.ReadAll(rr.Reader)
	if err != nil {
		return bc, err
	}
	bc.Tags = rr.Tags
	if rr.ETag != nil {
		bc.ETag = *rr.ETag
	}
	if rr.LastModified != nil {
		bc.LastModified = *rr.LastModified
	}
	bc.LastRead = time.Now()
	return bc, nil
}

func (s *BlobStore) Commit(ctx context.Context, changes []SlotChange) error {
	for _, c := range changes {
		if _, err := s.commitOne(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (s *BlobStore) commitOne(ctx context.Context, c SlotChange) (*azblob.WriteResponse, error) {

	blobPath := SlotBlobPath(s.LedgerIdentity, c.Address)

	opts := []azblob.Option{azblob.WithTags(SlotTags(c.Slot))}

	// CRITICAL: the etag guards against racy updates. It is absent only when
	// creating the slot, in which case we require that no blob matches *any*
	// etag, so a concurrent creator is never overwritten.
	if c.Version != "" {
		opts = append(opts, azblob.WithEtagMatch(c.Version))
	} else {
		opts = append(opts, azblob.WithEtagNoneMatch("*"))
	}

	wr, err := s.Store.Put(ctx, blobPath, azblob.NewBytesReaderCloser(c.Slot.Data), opts...)
	if err != nil {
		return wr, fmt.Errorf("%s: %w", blobPath, WrapPreconditionFailed(err))
	}
	s.Log.Debugf("slot committed: %s creating=%v", blobPath, c.Version == "")
	return wr, nil
}

// SlotTags encodes the slot metadata as blob index tags
func SlotTags(slot Slot) map[string]string {
	return map[string]string{
		TagKeyOwner:    slot.Owner.String(),
		TagKeyLamports: strconv.FormatUint(slot.Lamports, 10),
	}
}

// SlotFromBlobContext recovers the slot from blob content and tags. The tags
// read directly with the blob are the values last written, so they are
// consistent with the data.
func SlotFromBlobContext(bc SlotBlobContext) (Slot, error) {
	var err error
	slot := Slot{Data: bc.Data}

	ownerTag, ok := bc.Tags[TagKeyOwner]
	if !ok {
		return Slot{}, fmt.Errorf("%w: %s", ErrSlotTagMissing, TagKeyOwner)
	}
	slot.Owner, err = AddressFromHex(ownerTag)
	if err != nil {
		return Slot{}, errors.Join(ErrSlotTagMissing, err)
	}
	lamportsTag, ok := bc.Tags[TagKeyLamports]
	if !ok {
		return Slot{}, fmt.Errorf("%w: %s", ErrSlotTagMissing, TagKeyLamports)
	}
	slot.Lamports, err = strconv.ParseUint(lamportsTag, 10, 64)
	if err != nil {
		return Slot{}, errors.Join(ErrSlotTagMissing, err)
	}
	return slot, nil
}

package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAddress(seed byte) Address {
	var a Address
	for i := range a {
		a[i] = seed + byte(i)
	}
	return a
}

func TestMemStore_GetSlotNotFound(t *testing.T) {
	s := NewMemStore()
	_, _, err := s.GetSlot(context.Background(), testAddress(1))
	require.ErrorIs(t, err, ErrSlotNotFound)
	assert.True(t, IsSlotNotFound(err))
}

func TestMemStore_CommitCreateAndUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	addr := testAddress(1)
	owner := testAddress(2)

	err := s.Commit(ctx, []SlotChange{{Address: addr, Slot: Slot{Owner: owner, Lamports: 10, Data: []byte{1, 2, 3}}}})
	require.NoError(t, err)

	slot, version, err := s.GetSlot(ctx, addr)
	require.NoError(t, err)
	require.NotEmpty(t, version)
	assert.Equal(t, owner, slot.Owner)
	assert.Equal(t, uint64(10), slot.Lamports)
	assert.Equal(t, []byte{1, 2, 3}, slot.Data)

	// creating again must fail, the slot exists
	err = s.Commit(ctx, []SlotChange{{Address: addr, Slot: Slot{Owner: owner}}})
	require.ErrorIs(t, err, ErrExistsOC)

	err = s.Commit(ctx, []SlotChange{{Address: addr, Slot: Slot{Owner: owner, Lamports: 11}, Version: version}})
	require.NoError(t, err)

	// the version we used is now stale
	err = s.Commit(ctx, []SlotChange{{Address: addr, Slot: Slot{Owner: owner, Lamports: 12}, Version: version}})
	require.ErrorIs(t, err, ErrContentOC)

	slot, _, err = s.GetSlot(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, uint64(11), slot.Lamports)
}

func TestMemStore_CommitIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	existing := testAddress(1)
	fresh := testAddress(40)
	s.Put(existing, Slot{Lamports: 1})

	err := s.Commit(ctx, []SlotChange{
		{Address: fresh, Slot: Slot{Lamports: 5}},
		{Address: existing, Slot: Slot{Lamports: 6}, Version: "stale"},
	})
	require.ErrorIs(t, err, ErrContentOC)

	_, _, err = s.GetSlot(ctx, fresh)
	require.ErrorIs(t, err, ErrSlotNotFound, "the first change must not have been applied")
	assert.Equal(t, 1, s.Len())
}

func TestMemStore_GetSlotDoesNotAlias(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	addr := testAddress(1)
	s.Put(addr, Slot{Data: []byte{7}})

	slot, _, err := s.GetSlot(ctx, addr)
	require.NoError(t, err)
	slot.Data[0] = 9

	slot, _, err = s.GetSlot(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, []byte{7}, slot.Data)
}

func TestLoadSlotInfo(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	present := testAddress(1)
	absent := testAddress(2)
	s.Put(present, Slot{Owner: testAddress(3), Lamports: 4, Data: []byte{5}})

	si, err := LoadSlotInfo(ctx, s, present)
	require.NoError(t, err)
	assert.True(t, si.Exists())
	assert.False(t, si.DataIsEmpty())
	assert.Equal(t, testAddress(3), si.Owner)

	si, err = LoadSlotInfo(ctx, s, absent)
	require.NoError(t, err)
	assert.False(t, si.Exists())
	assert.True(t, si.DataIsEmpty())
	assert.Equal(t, SystemProgramID, si.Owner)
	assert.Equal(t, absent, si.Address)
}

package system

import (
	"testing"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/manuochoa/metaplex/derivation"
	"github.com/manuochoa/metaplex/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAddress(seed byte) ledger.Address {
	var a ledger.Address
	for i := range a {
		a[i] = seed + byte(i)
	}
	return a
}

type allocFixture struct {
	program ledger.Address
	seeds   [][]byte
	payer   *ledger.SlotInfo
	target  *ledger.SlotInfo
	rent    *ledger.SlotInfo
}

func newAllocFixture(t *testing.T) allocFixture {
	t.Helper()
	program := testAddress(1)
	seeds := derivation.IndexSeeds(program, testAddress(2), 0)
	addr, bump, err := derivation.FindProgramAddress(seeds, program)
	require.NoError(t, err)

	target := ledger.NewEmptySlotInfo(addr)
	target.IsWritable = true
	return allocFixture{
		program: program,
		seeds:   derivation.WithBump(seeds, bump),
		payer: &ledger.SlotInfo{
			Address: testAddress(50), IsSigner: true, IsWritable: true,
			Slot: ledger.Slot{Lamports: 1_000_000_000},
		},
		target: target,
		rent:   &ledger.SlotInfo{Address: ledger.RentSysvarID, Slot: ledger.NewRentSlot(ledger.DefaultRent())},
	}
}

func newTestAllocator() *Allocator {
	logger.New("NOOP")
	return NewAllocator(logger.Sugar.WithServiceName("TestAllocator"))
}

func TestAllocator_CreateSlot(t *testing.T) {
	defer logger.OnExit()
	f := newAllocFixture(t)
	a := newTestAllocator()

	err := a.CreateSlot(f.payer, f.target, f.rent, 64, f.program, f.seeds)
	require.NoError(t, err)

	want := ledger.DefaultRent().MinimumBalance(64)
	assert.Equal(t, f.program, f.target.Owner)
	assert.Equal(t, make([]byte, 64), f.target.Data)
	assert.Equal(t, want, f.target.Lamports)
	assert.Equal(t, uint64(1_000_000_000)-want, f.payer.Lamports)
}

func TestAllocator_ChargesOnlyTheShortfall(t *testing.T) {
	defer logger.OnExit()
	f := newAllocFixture(t)
	a := newTestAllocator()
	f.target.Lamports = 1000

	require.NoError(t, a.CreateSlot(f.payer, f.target, f.rent, 64, f.program, f.seeds))
	want := ledger.DefaultRent().MinimumBalance(64)
	assert.Equal(t, want, f.target.Lamports)
	assert.Equal(t, uint64(1_000_000_000)-(want-1000), f.payer.Lamports)
}

func TestAllocator_Rejections(t *testing.T) {
	defer logger.OnExit()
	a := newTestAllocator()

	tests := []struct {
		name    string
		mutate  func(f *allocFixture)
		size    uint64
		wantErr error
	}{
		{"seeds for another slot", func(f *allocFixture) { f.seeds[len(f.seeds)-1] = []byte{f.seeds[len(f.seeds)-1][0] - 1} }, 64, ErrSignerSeedsMismatch},
		{"target already owned", func(f *allocFixture) { f.target.Owner = f.program }, 64, ErrSlotAlreadyInUse},
		{"target has data", func(f *allocFixture) { f.target.Data = []byte{0} }, 64, ErrSlotAlreadyInUse},
		{"target read only", func(f *allocFixture) { f.target.IsWritable = false }, 64, ErrSlotNotWritable},
		{"payer did not sign", func(f *allocFixture) { f.payer.IsSigner = false }, 64, ErrPayerNotSigner},
		{"payer is poor", func(f *allocFixture) { f.payer.Lamports = 1 }, 64, ledger.ErrInsufficientFunds},
		{"wrong rent sysvar", func(f *allocFixture) { f.rent.Address = ledger.ClockSysvarID }, 64, ledger.ErrInvalidSysvar},
		{"too big", func(f *allocFixture) {}, MaxPermittedDataLength + 1, ErrInvalidDataLength},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAllocFixture(t)
			tt.mutate(&f)
			payerBefore := f.payer.Lamports
			err := a.CreateSlot(f.payer, f.target, f.rent, tt.size, f.program, f.seeds)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, payerBefore, f.payer.Lamports, "a failed allocation must not charge the payer")
		})
	}
}

package ledger

// Sysvar slots expose host state to instructions. They are read only and
// live at fixed, well known addresses.
//
// Clock layout
//
// .     | slot | epoch start ts | epoch | leader schedule epoch | unix ts |
// .     | 0  7 | 8           15 | 16 23 | 24                 31 | 32   39 |
//
// Rent layout
//
// .     | lamports per byte year | exemption threshold (float64 bits) | burn percent |
// .     | 0                    7 | 8                               15 |      16      |

import (
	"encoding/binary"
	"fmt"
	"math"
)

const (
	ClockSlotFirstByte                = 0
	ClockEpochStartTimestampFirstByte = 8
	ClockEpochFirstByte               = 16
	ClockLeaderScheduleEpochFirstByte = 24
	ClockUnixTimestampFirstByte       = 32
	ClockSize                         = 40

	RentLamportsPerByteYearFirstByte = 0
	RentExemptionThresholdFirstByte  = 8
	RentBurnPercentFirstByte         = 16
	RentSize                         = 17

	// SlotStorageOverhead is charged on top of the data size of every slot
	// when computing its rent exempt balance.
	SlotStorageOverhead = 128

	DefaultLamportsPerByteYear = 3480
	DefaultExemptionThreshold  = 2.0
	DefaultBurnPercent         = 50
)

type Clock struct {
	Slot                uint64
	EpochStartTimestamp int64
	Epoch               uint64
	LeaderScheduleEpoch uint64
	UnixTimestamp       int64
}

func (c Clock) MarshalBinary() ([]byte, error) {
	b := make([]byte, ClockSize)
	binary.BigEndian.PutUint64(b[ClockSlotFirstByte:], c.Slot)
	binary.BigEndian.PutUint64(b[ClockEpochStartTimestampFirstByte:], uint64(c.EpochStartTimestamp))
	binary.BigEndian.PutUint64(b[ClockEpochFirstByte:], c.Epoch)
	binary.BigEndian.PutUint64(b[ClockLeaderScheduleEpochFirstByte:], c.LeaderScheduleEpoch)
	binary.BigEndian.PutUint64(b[ClockUnixTimestampFirstByte:], uint64(c.UnixTimestamp))
	return b, nil
}

func (c *Clock) UnmarshalBinary(b []byte) error {
	if len(b) < ClockSize {
		return fmt.Errorf("%w: clock needs %d bytes, got %d", ErrSysvarDataInvalid, ClockSize, len(b))
	}
	c.Slot = binary.BigEndian.Uint64(b[ClockSlotFirstByte:])
	c.EpochStartTimestamp = int64(binary.BigEndian.Uint64(b[ClockEpochStartTimestampFirstByte:]))
	c.Epoch = binary.BigEndian.Uint64(b[ClockEpochFirstByte:])
	c.LeaderScheduleEpoch = binary.BigEndian.Uint64(b[ClockLeaderScheduleEpochFirstByte:])
	c.UnixTimestamp = int64(binary.BigEndian.Uint64(b[ClockUnixTimestampFirstByte:]))
	return nil
}

// ClockFromSlot decodes the clock sysvar, checking the slot is the clock.
func ClockFromSlot(si *SlotInfo) (Clock, error) {
	var c Clock
	if si.Address != ClockSysvarID {
		return c, fmt.Errorf("%w: %s is not the clock", ErrInvalidSysvar, si.Address)
	}
	return c, c.UnmarshalBinary(si.Data)
}

type Rent struct {
	LamportsPerByteYear uint64
	ExemptionThreshold  float64
	BurnPercent         uint8
}

func DefaultRent() Rent {
	return Rent{
		LamportsPerByteYear: DefaultLamportsPerByteYear,
		ExemptionThreshold:  DefaultExemptionThreshold,
		BurnPercent:         DefaultBurnPercent,
	}
}

// MinimumBalance returns the lamports a slot of dataLen bytes must hold to be
// exempt from rent collection.
func (r Rent) MinimumBalance(dataLen uint64) uint64 {
	bytesCharged := SlotStorageOverhead + dataLen
	return uint64(float64(bytesCharged*r.LamportsPerByteYear) * r.ExemptionThreshold)
}

func (r Rent) MarshalBinary() ([]byte, error) {
	b := make([]byte, RentSize)
	binary.BigEndian.PutUint64(b[RentLamportsPerByteYearFirstByte:], r.LamportsPerByteYear)
	binary.BigEndian.PutUint64(b[RentExemptionThresholdFirstByte:], math.Float64bits(r.ExemptionThreshold))
	b[RentBurnPercentFirstByte] = r.BurnPercent
	return b, nil
}

func (r *Rent) UnmarshalBinary(b []byte) error {
	if len(b) < RentSize {
		return fmt.Errorf("%w: rent needs %d bytes, got %d", ErrSysvarDataInvalid, RentSize, len(b))
	}
	r.LamportsPerByteYear = binary.BigEndian.Uint64(b[RentLamportsPerByteYearFirstByte:])
	r.ExemptionThreshold = math.Float64frombits(binary.BigEndian.Uint64(b[RentExemptionThresholdFirstByte:]))
	r.BurnPercent = b[RentBurnPercentFirstByte]
	return nil
}

// RentFromSlot decodes the rent sysvar, checking the slot is the rent sysvar.
func RentFromSlot(si *SlotInfo) (Rent, error) {
	var r Rent
	if si.Address != RentSysvarID {
		return r, fmt.Errorf("%w: %s is not the rent sysvar", ErrInvalidSysvar, si.Address)
	}
	return r, r.UnmarshalBinary(si.Data)
}

// NewClockSlot and NewRentSlot produce the persisted form of the sysvars, for
// hosts seeding a store.
func NewClockSlot(c Clock) Slot {
	data, _ := c.MarshalBinary()
	return Slot{Owner: SystemProgramID, Lamports: 1, Data: data}
}

func NewRentSlot(r Rent) Slot {
	data, _ := r.MarshalBinary()
	return Slot{Owner: SystemProgramID, Lamports: 1, Data: data}
}

package domain

const (
	// DefaultTxSize is the estimated size in bytes of a 1-input 2-outputs
	// P2PKH transaction, used when no better estimation is available.
	DefaultTxSize = 226
)

var defaultFeeSchedules = map[Asset]FeeSchedule{
	AssetBTC: {Slow: 5000, Normal: 15000, Fast: 30000},
	AssetLTC: {Slow: 1000, Normal: 2000, Fast: 3000},
}

// FeeSchedule holds the three fee tiers of an asset, expressed in satoshis
// per kilobyte.
type FeeSchedule struct {
	Slow   uint64
	Normal uint64
	Fast   uint64
}

// DefaultFeeSchedule returns the hardcoded floor for the given asset.
func DefaultFeeSchedule(asset Asset) FeeSchedule {
	return defaultFeeSchedules[asset]
}

// Validate makes sure tiers are non decreasing.
func (f FeeSchedule) Validate() error {
	if f.Slow > f.Normal || f.Normal > f.Fast {
		return ErrInvalidFeeSchedule
	}
	return nil
}

// NewFeeScheduleFromEstimate derives a schedule from a remote low/high
// estimate. Every tier is floored by the corresponding tier of the asset
// default and the result is always non decreasing.
func NewFeeScheduleFromEstimate(asset Asset, low, high uint64) FeeSchedule {
	normal := low/2 + high/2 + (low%2+high%2+1)/2
	return FeeSchedule{Slow: low, Normal: normal, Fast: high}.Normalize(asset)
}

// Normalize floors every tier by the corresponding tier of the asset default
// and makes the schedule non decreasing.
func (f FeeSchedule) Normalize(asset Asset) FeeSchedule {
	floor := DefaultFeeSchedule(asset)

	f.Slow = maxUint64(f.Slow, floor.Slow)
	f.Normal = maxUint64(f.Normal, floor.Normal)
	f.Fast = maxUint64(f.Fast, floor.Fast)
	f.Normal = maxUint64(f.Normal, f.Slow)
	f.Fast = maxUint64(f.Fast, f.Normal)
	return f
}

// ValidateOverride makes sure every non-zero tier of a custom schedule is at
// least the same tier of the asset default and that the overridden default
// schedule is non decreasing.
func (f FeeSchedule) ValidateOverride(asset Asset) error {
	floor := DefaultFeeSchedule(asset)
	if (f.Slow > 0 && f.Slow < floor.Slow) ||
		(f.Normal > 0 && f.Normal < floor.Normal) ||
		(f.Fast > 0 && f.Fast < floor.Fast) {
		return ErrFeeRateBelowFloor
	}
	return floor.Override(f).Validate()
}

// Override replaces the tiers of the schedule with the non-zero ones of the
// given schedule.
func (f FeeSchedule) Override(custom FeeSchedule) FeeSchedule {
	if custom.Slow > 0 {
		f.Slow = custom.Slow
	}
	if custom.Normal > 0 {
		f.Normal = custom.Normal
	}
	if custom.Fast > 0 {
		f.Fast = custom.Fast
	}
	return f
}

// TxFeeValue returns the fee in satoshis for a transaction of the given size
// at the given rate, rounded up.
func TxFeeValue(feeRatePerKb uint64, sizeBytes uint64) uint64 {
	return (feeRatePerKb*sizeBytes + 1023) / 1024
}

func maxUint64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

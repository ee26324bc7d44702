package domain_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/swaponline/swapd/internal/core/domain"
)

func TestNewFeeScheduleFromEstimate(t *testing.T) {
	t.Parallel()

	floor := domain.DefaultFeeSchedule(domain.AssetLTC)

	tests := []struct {
		name     string
		low      uint64
		high     uint64
		expected domain.FeeSchedule
	}{
		{
			name:     "above_floor",
			low:      10000,
			high:     20001,
			expected: domain.FeeSchedule{Slow: 10000, Normal: 15001, Fast: 20001},
		},
		{
			name:     "below_floor",
			low:      1,
			high:     2,
			expected: floor,
		},
		{
			name:     "only_high_above_floor",
			low:      0,
			high:     100000,
			expected: domain.FeeSchedule{Slow: floor.Slow, Normal: 50000, Fast: 100000},
		},
		{
			name:     "inverted_estimate",
			low:      50000,
			high:     10,
			expected: domain.FeeSchedule{Slow: 50000, Normal: 50000, Fast: 50000},
		},
	}

	for i := range tests {
		tt := tests[i]
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			schedule := domain.NewFeeScheduleFromEstimate(
				domain.AssetLTC, tt.low, tt.high,
			)
			require.Equal(t, tt.expected, schedule)
			require.NoError(t, schedule.Validate())
			require.GreaterOrEqual(t, schedule.Slow, floor.Slow)
			require.GreaterOrEqual(t, schedule.Normal, floor.Normal)
			require.GreaterOrEqual(t, schedule.Fast, floor.Fast)
		})
	}
}

func TestFeeScheduleFloorProperty(t *testing.T) {
	t.Parallel()

	for _, asset := range domain.SupportedAssets {
		floor := domain.DefaultFeeSchedule(asset)
		require.NoError(t, floor.Validate())

		for low := uint64(0); low <= 60000; low += 7919 {
			for high := uint64(0); high <= 60000; high += 6007 {
				s := domain.NewFeeScheduleFromEstimate(asset, low, high)
				require.NoError(t, s.Validate())
				require.GreaterOrEqual(t, s.Slow, floor.Slow)
				require.GreaterOrEqual(t, s.Normal, floor.Normal)
				require.GreaterOrEqual(t, s.Fast, floor.Fast)
			}
		}
	}
}

func TestFeeScheduleOverride(t *testing.T) {
	t.Parallel()

	s := domain.FeeSchedule{Slow: 1, Normal: 2, Fast: 3}
	got := s.Override(domain.FeeSchedule{Normal: 20})
	require.Equal(t, domain.FeeSchedule{Slow: 1, Normal: 20, Fast: 3}, got)
}

func TestTxFeeValue(t *testing.T) {
	t.Parallel()

	require.Equal(t, uint64(0), domain.TxFeeValue(0, domain.DefaultTxSize))
	require.Equal(t, uint64(1), domain.TxFeeValue(1, domain.DefaultTxSize))
	require.Equal(t, uint64(221), domain.TxFeeValue(1000, domain.DefaultTxSize))
	require.Equal(t, uint64(1024), domain.TxFeeValue(1024, 1024))

	t.Run("monotonic", func(t *testing.T) {
		t.Parallel()

		for rate := uint64(0); rate < 5000; rate += 37 {
			for size := uint64(0); size < 2000; size += 53 {
				fee := domain.TxFeeValue(rate, size)
				require.LessOrEqual(t, fee, domain.TxFeeValue(rate+1, size))
				require.LessOrEqual(t, fee, domain.TxFeeValue(rate, size+1))
			}
		}
	})
}

func TestFeeScheduleNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		schedule domain.FeeSchedule
		expected domain.FeeSchedule
	}{
		{
			name:     "below floor",
			schedule: domain.FeeSchedule{Slow: 1, Normal: 2, Fast: 3},
			expected: domain.FeeSchedule{Slow: 5000, Normal: 15000, Fast: 30000},
		},
		{
			name:     "non monotonic",
			schedule: domain.FeeSchedule{Slow: 50000, Normal: 60000, Fast: 35000},
			expected: domain.FeeSchedule{Slow: 50000, Normal: 60000, Fast: 60000},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := tt.schedule.Normalize(domain.AssetBTC)
			require.Equal(t, tt.expected, got)
			require.NoError(t, got.Validate())
		})
	}
}

func TestFeeScheduleValidateOverride(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		custom      domain.FeeSchedule
		expectedErr error
	}{
		{
			name:   "valid",
			custom: domain.FeeSchedule{Normal: 20000},
		},
		{
			name:        "below floor",
			custom:      domain.FeeSchedule{Fast: 20000},
			expectedErr: domain.ErrFeeRateBelowFloor,
		},
		{
			name:        "non monotonic",
			custom:      domain.FeeSchedule{Slow: 100000},
			expectedErr: domain.ErrInvalidFeeSchedule,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.custom.ValidateOverride(domain.AssetBTC)
			if tt.expectedErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.expectedErr)
		})
	}
}

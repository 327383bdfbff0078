// Package planner provides unit tests for part layout planning.
package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	osserrors "github.com/aa2013/ali-yun-oss/errors"
	"github.com/aa2013/ali-yun-oss/osstypes"
)

func TestComputePlan_DesiredCount(t *testing.T) {
	tests := []struct {
		name         string
		totalSize    int64
		desiredParts int
		wantCount    int
		wantSize     int64
	}{
		{
			name:         "even split",
			totalSize:    1_000_000,
			desiredParts: 4,
			wantCount:    4,
			wantSize:     250_000,
		},
		{
			name:         "uneven split rounds part size up",
			totalSize:    1_000_001,
			desiredParts: 4,
			wantCount:    4,
			wantSize:     250_001,
		},
		{
			name:         "single part",
			totalSize:    5 * 1024 * 1024,
			desiredParts: 1,
			wantCount:    1,
			wantSize:     5 * 1024 * 1024,
		},
		{
			name:         "count clamped to provider maximum",
			totalSize:    100 * 1024 * 1024 * 1024,
			desiredParts: 50_000,
			wantCount:    10_000,
			wantSize:     10_737_419,
		},
		{
			name:         "count reduced to keep parts above minimum size",
			totalSize:    1024 * 1024,
			desiredParts: 10_000,
			wantCount:    10,
			wantSize:     104_858,
		},
		{
			name:         "tiny file collapses to one part",
			totalSize:    50 * 1024,
			desiredParts: 4,
			wantCount:    1,
			wantSize:     50 * 1024,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := ComputePlan(tt.totalSize, tt.desiredParts)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, plan.NumberOfParts)
			assert.Equal(t, tt.wantSize, plan.PartSize)
		})
	}
}

func TestComputePlan_Adaptive(t *testing.T) {
	tests := []struct {
		name      string
		totalSize int64
		wantCount int
		wantSize  int64
	}{
		{
			name:      "small file uses 512KiB base",
			totalSize: 4 * 1024 * 1024,
			wantCount: 8,
			wantSize:  512 * 1024,
		},
		{
			name:      "mid file uses 1MiB base",
			totalSize: 50 * 1024 * 1024,
			wantCount: 50,
			wantSize:  1024 * 1024,
		},
		{
			name:      "large file uses 2MiB base",
			totalSize: 200 * 1024 * 1024,
			wantCount: 100,
			wantSize:  2 * 1024 * 1024,
		},
		{
			name:      "huge file uses 5MiB base",
			totalSize: 1024 * 1024 * 1024,
			wantCount: 205,
			wantSize:  5_237_765,
		},
		{
			name:      "file below one base part yields a single part",
			totalSize: 100 * 1024,
			wantCount: 1,
			wantSize:  100 * 1024,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := ComputePlan(tt.totalSize, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, plan.NumberOfParts)
			assert.Equal(t, tt.wantSize, plan.PartSize)
		})
	}
}

func TestComputePlan_Invariants(t *testing.T) {
	// Every plan for a non-empty file must cover the file exactly and keep
	// part size within provider limits whenever more than one part exists.
	sizes := []int64{
		1,
		100 * 1024,
		100*1024 + 1,
		1024 * 1024,
		10 * 1024 * 1024,
		100*1024*1024 - 1,
		500 * 1024 * 1024,
		3 * 1024 * 1024 * 1024,
	}
	desired := []int{0, 1, 3, 100, 10_000, 50_000}

	for _, totalSize := range sizes {
		for _, desiredParts := range desired {
			plan, err := ComputePlan(totalSize, desiredParts)
			require.NoError(t, err)

			assert.GreaterOrEqual(t, plan.NumberOfParts, 1)
			assert.LessOrEqual(t, plan.NumberOfParts, osstypes.MaxPartCount)
			assert.LessOrEqual(t, plan.PartSize, int64(osstypes.MaxPartSize))
			if plan.NumberOfParts > 1 {
				assert.GreaterOrEqual(t, plan.PartSize, int64(osstypes.MinPartSize),
					"size=%d desired=%d", totalSize, desiredParts)
			}

			// The last part holds the remainder; all full parts plus the
			// remainder must sum to the file size.
			full := int64(plan.NumberOfParts-1) * plan.PartSize
			assert.Less(t, full, totalSize, "size=%d desired=%d", totalSize, desiredParts)
			assert.GreaterOrEqual(t, full+plan.PartSize, totalSize, "size=%d desired=%d", totalSize, desiredParts)
		}
	}
}

func TestComputePlan_ZeroSize(t *testing.T) {
	plan, err := ComputePlan(0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, plan.NumberOfParts)
	assert.Equal(t, int64(0), plan.PartSize)
}

func TestComputePlan_InvalidArguments(t *testing.T) {
	_, err := ComputePlan(-1, 0)
	assert.True(t, osserrors.IsInvalidArgument(err))

	_, err = ComputePlan(1024, -2)
	assert.True(t, osserrors.IsInvalidArgument(err))
}

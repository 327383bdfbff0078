// Package planner computes the (part count, part size) layout for a
// multipart upload, honoring the provider's part limits.
package planner

import (
	osserrors "github.com/aa2013/ali-yun-oss/errors"
	"github.com/aa2013/ali-yun-oss/osstypes"
)

// Adaptive base part sizes by file-size bracket, used when the caller does
// not request a part count.
const (
	bracket10MiB  = 10 * 1024 * 1024
	bracket100MiB = 100 * 1024 * 1024
	bracket500MiB = 500 * 1024 * 1024

	base512KiB = 512 * 1024
	base1MiB   = 1024 * 1024
	base2MiB   = 2 * 1024 * 1024
	base5MiB   = 5 * 1024 * 1024
)

// ComputePlan returns a valid part layout for totalSize bytes.
// desiredParts of 0 means unset, letting the planner pick an adaptive base
// part size by file-size bracket.
//
// Clamping part count can push part size out of bounds and vice versa, so
// the algorithm fixes one dimension and re-derives the other, twice, rather
// than attempting a closed form.
//
// A zero totalSize yields the degenerate (1, 0) plan; callers must reject
// empty uploads before planning.
func ComputePlan(totalSize int64, desiredParts int) (osstypes.PartSizePlan, error) {
	if totalSize < 0 {
		return osstypes.PartSizePlan{}, osserrors.NewError("computePlan", osserrors.ErrInvalidArgument).
			WithMessage("total size cannot be negative")
	}
	if desiredParts < 0 {
		return osstypes.PartSizePlan{}, osserrors.NewError("computePlan", osserrors.ErrInvalidArgument).
			WithMessage("desired part count cannot be negative")
	}
	if totalSize == 0 {
		return osstypes.PartSizePlan{NumberOfParts: 1, PartSize: 0}, nil
	}

	if desiredParts > 0 {
		return planWithDesiredCount(totalSize, desiredParts), nil
	}
	return planAdaptive(totalSize), nil
}

// planWithDesiredCount derives the layout from a caller-requested part count.
func planWithDesiredCount(totalSize int64, desiredParts int) osstypes.PartSizePlan {
	count := clampCount(desiredParts)
	size := ceilDiv(totalSize, int64(count))

	if size > osstypes.MaxPartSize {
		count = clampCount(int(ceilDiv(totalSize, osstypes.MaxPartSize)))
	} else if size < osstypes.MinPartSize && count > 1 {
		// Floor, not ceil: rounding the count up here would re-derive a
		// part size back under the minimum.
		count = clampCount(int(totalSize / osstypes.MinPartSize))
	}

	size = ceilDiv(totalSize, int64(count))
	return osstypes.PartSizePlan{NumberOfParts: count, PartSize: size}
}

// planAdaptive picks a base part size by file-size bracket and derives the
// count from it.
func planAdaptive(totalSize int64) osstypes.PartSizePlan {
	var base int64
	switch {
	case totalSize < bracket10MiB:
		base = base512KiB
	case totalSize < bracket100MiB:
		base = base1MiB
	case totalSize < bracket500MiB:
		base = base2MiB
	default:
		base = base5MiB
	}

	count := clampCount(int(ceilDiv(totalSize, base)))
	size := ceilDiv(totalSize, int64(count))

	if size < osstypes.MinPartSize && count > 1 {
		count = clampCount(int(totalSize / osstypes.MinPartSize))
		size = ceilDiv(totalSize, int64(count))
	}

	return osstypes.PartSizePlan{NumberOfParts: count, PartSize: size}
}

// clampCount bounds a part count to [1, MaxPartCount].
func clampCount(n int) int {
	if n < 1 {
		return 1
	}
	if n > osstypes.MaxPartCount {
		return osstypes.MaxPartCount
	}
	return n
}

// ceilDiv is ceiling division for positive operands.
func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}

package octree

import "math"

// CanSubdivide reports whether candidate should be refined into its children
// for a focus point located in the level 0 cell focus.
//
// The children of candidate, grown by a margin of detail cells scaled to the
// level difference, must contain the focus point. The comparison runs in
// doubled coordinates so that the focus cell center can be tested against
// half-node boundaries. Every int32 coordinate shifted by at most 32 bits fits
// in an int64, so the bounds are computed there and only saturate past the
// int64 range, where the comparison result cannot change.
func CanSubdivide(focus, candidate Address, detail int32) bool {
	if candidate.Level < focus.Level {
		return false
	}

	delta := uint(candidate.Level - focus.Level)
	margin := saturatingShl(saturatingAdd(int64(detail), 1), delta)
	unit := saturatingShl(1, delta)
	below := saturatingSub(margin, unit)
	above := saturatingAdd(margin, unit)

	f := focus.Coord.Array()
	n := candidate.Coord.Array()
	for axis := 0; axis < 3; axis++ {
		origin := saturatingShl(int64(n[axis]), delta+1)
		low := saturatingSub(origin, below)
		high := saturatingAdd(origin, above)
		local := int64(f[axis]) << 1

		if local < low || local >= high {
			return false
		}
	}
	return true
}

func saturatingAdd(a, b int64) int64 {
	s := a + b
	switch {
	case b > 0 && s < a:
		return math.MaxInt64
	case b < 0 && s > a:
		return math.MinInt64
	}
	return s
}

func saturatingSub(a, b int64) int64 {
	if b == math.MinInt64 {
		if a >= 0 {
			return math.MaxInt64
		}
		return a - b
	}
	return saturatingAdd(a, -b)
}

func saturatingShl(v int64, s uint) int64 {
	switch {
	case v == 0:
		return 0
	case s < 63 && (v<<s)>>s == v:
		return v << s
	case v > 0:
		return math.MaxInt64
	}
	return math.MinInt64
}

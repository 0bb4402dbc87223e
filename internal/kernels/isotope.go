package kernels

import (
	"fmt"

	"github.com/maagusrm/esbmtk/internal/boxmodel"
)

// Split partitions a derived mass m with the isotope ratio of the
// pool it derives from. The light/heavy form c = L/(M-L),
// l = m*c/(c+1) stays finite as the heavy mass approaches zero,
// where a direct ratio multiplication would not. A pool with no
// heavy mass at all (L >= M) has no defined ratio; that is a domain
// error surfaced to the caller, not clamped to the all-light limit.
func Split(m, poolM, poolL float64) (float64, error) {
	h := poolM - poolL
	if h <= 0 {
		return 0, fmt.Errorf(
			"isotope split: pool has no heavy mass (M=%g L=%g): %w",
			poolM, poolL, boxmodel.ErrNonPhysical)
	}
	c := poolL / h
	return m * c / (c + 1), nil
}

// RatioFromAlpha returns the light-isotope fraction of a mass drawn
// from pool (M, L) under fractionation factor alpha, where
// alpha = 1 + epsilon/1000. The degenerate pool is rejected the same
// way as in Split.
func RatioFromAlpha(poolM, poolL, alpha float64) (float64, error) {
	h := poolM - poolL
	if h <= 0 {
		return 0, fmt.Errorf(
			"isotope ratio: pool has no heavy mass (M=%g L=%g): %w",
			poolM, poolL, boxmodel.ErrNonPhysical)
	}
	c := poolL / h / alpha
	return c / (c + 1), nil
}

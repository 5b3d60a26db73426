package calculator

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"PullbackLens/internal/model"
)

// DefaultBinCount is the default number of bin edges (49 bins).
const DefaultBinCount = 50

var (
	ErrInvalidBinCount = errors.New("bin count must be at least 2 edges")
	ErrLengthMismatch  = errors.New("prices and volumes differ in length")
	ErrNegativeVolume  = errors.New("volume must not be negative")
)

// ComputeVolumeProfile buckets prices into edgeCount evenly spaced edges over
// [min, max] (edgeCount-1 bins) and sums each observation's volume into its bin.
// Bins are half-open except the last, which also takes the maximum price.
// Empty input yields an empty profile.
func ComputeVolumeProfile(prices, volumes []decimal.Decimal, edgeCount int) (model.VolumeProfile, error) {
	if edgeCount < 2 {
		return model.VolumeProfile{}, fmt.Errorf("%w: got %d", ErrInvalidBinCount, edgeCount)
	}
	if len(prices) != len(volumes) {
		return model.VolumeProfile{}, fmt.Errorf("%w: %d prices, %d volumes", ErrLengthMismatch, len(prices), len(volumes))
	}
	if len(prices) == 0 {
		return model.VolumeProfile{}, nil
	}
	for i, v := range volumes {
		if v.IsNegative() {
			return model.VolumeProfile{}, fmt.Errorf("%w: %s at index %d", ErrNegativeVolume, v, i)
		}
	}

	lo, hi := decimal.Min(prices[0], prices[1:]...), decimal.Max(prices[0], prices[1:]...)
	edges := linspace(lo, hi, edgeCount)
	bins := make([]decimal.Decimal, edgeCount-1)
	for i, p := range prices {
		k := binIndex(edges, p)
		bins[k] = bins[k].Add(volumes[i])
	}
	return model.VolumeProfile{Edges: edges, Volumes: bins}, nil
}

// ProfileFromBars builds a profile over bar closes and volumes.
func ProfileFromBars(bars []model.DailyBar, edgeCount int) (model.VolumeProfile, error) {
	prices, vols := model.CloseVolumes(bars)
	return ComputeVolumeProfile(prices, vols, edgeCount)
}

// linspace returns n evenly spaced points from lo to hi; both ends are exact.
func linspace(lo, hi decimal.Decimal, n int) []decimal.Decimal {
	edges := make([]decimal.Decimal, n)
	step := hi.Sub(lo).Div(decimal.NewFromInt(int64(n - 1)))
	for i := range edges {
		edges[i] = lo.Add(step.Mul(decimal.NewFromInt(int64(i))))
	}
	edges[n-1] = hi
	return edges
}

// binIndex locates p in [edges[i], edges[i+1]), folding the top edge into the last bin.
func binIndex(edges []decimal.Decimal, p decimal.Decimal) int {
	i := sort.Search(len(edges), func(i int) bool { return edges[i].GreaterThan(p) }) - 1
	if last := len(edges) - 2; i > last {
		i = last
	}
	if i < 0 {
		i = 0
	}
	return i
}

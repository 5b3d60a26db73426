package model

import "github.com/shopspring/decimal"

// VolumeProfile is a volume-at-price histogram. Edges holds len(Volumes)+1
// ascending price levels; bin i covers [Edges[i], Edges[i+1]) and the last
// bin is closed on both ends.
type VolumeProfile struct {
	Edges   []decimal.Decimal
	Volumes []decimal.Decimal
}

// Bins returns the number of bins.
func (p VolumeProfile) Bins() int { return len(p.Volumes) }

// TotalVolume sums every bin.
func (p VolumeProfile) TotalVolume() decimal.Decimal {
	total := decimal.Zero
	for _, v := range p.Volumes {
		total = total.Add(v)
	}
	return total
}

package gamemath

import (
	"fmt"
	"strings"

	"github.com/Ashenafi-pixel/canister-games-gateway/rng"
)

// Risk selects the probability bands a wheel draws multipliers from.
type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// ParseRisk maps s to a Risk. Unrecognized values are treated as medium.
func ParseRisk(s string) Risk {
	switch Risk(strings.ToLower(strings.TrimSpace(s))) {
	case RiskLow:
		return RiskLow
	case RiskHigh:
		return RiskHigh
	default:
		return RiskMedium
	}
}

// Band covers positions up to Until (a cumulative fraction of the wheel) and
// yields a multiplier uniformly in [Min, Max). Min == Max is a fixed multiplier.
type Band struct {
	Until float64 `json:"until" yaml:"until"`
	Min   float64 `json:"min" yaml:"min"`
	Max   float64 `json:"max" yaml:"max"`
}

// Draw returns a multiplier from the band. Fixed bands consume no randomness.
func (b Band) Draw(src rng.Source) float64 {
	if b.Max <= b.Min {
		return b.Min
	}
	return b.Min + src.Float64()*(b.Max-b.Min)
}

// Table is an ordered list of bands whose last Until is 1.
type Table []Band

// Band returns the band containing index on a wheel of count segments.
func (t Table) Band(index, count int) Band {
	for _, b := range t {
		if float64(index) < float64(count)*b.Until {
			return b
		}
	}
	return t[len(t)-1]
}

// Expected is the mean multiplier for a wheel with many segments:
// each band contributes its width times its midpoint.
func (t Table) Expected() float64 {
	var prev, sum float64
	for _, b := range t {
		sum += (b.Until - prev) * (b.Min + b.Max) / 2
		prev = b.Until
	}
	return sum
}

// ZeroShare is the fraction of the wheel that pays nothing.
func (t Table) ZeroShare() float64 {
	var prev, share float64
	for _, b := range t {
		if b.Max == 0 {
			share += b.Until - prev
		}
		prev = b.Until
	}
	return share
}

func (t Table) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("table has no bands")
	}
	prev := 0.0
	for i, b := range t {
		if b.Until <= prev {
			return fmt.Errorf("band %d: until %.4f must be greater than %.4f", i, b.Until, prev)
		}
		if b.Min < 0 || b.Max < b.Min {
			return fmt.Errorf("band %d: invalid range [%.2f, %.2f)", i, b.Min, b.Max)
		}
		prev = b.Until
	}
	if prev != 1 {
		return fmt.Errorf("last band ends at %.4f, want 1", prev)
	}
	return nil
}

// Tables holds one table per risk level.
type Tables map[Risk]Table

// DefaultTables returns the stock bands:
//
//	low:    10% zero, 70% [0.5,1.5), 20% [1.5,2.0)
//	medium: 20% zero, 60% [0.5,2.0), 20% [2.0,3.0)
//	high:   50% zero, 25% [1.0,3.0), 25% [3.0,10.0)
func DefaultTables() Tables {
	return Tables{
		RiskLow: {
			{Until: 0.10, Min: 0, Max: 0},
			{Until: 0.80, Min: 0.5, Max: 1.5},
			{Until: 1, Min: 1.5, Max: 2.0},
		},
		RiskMedium: {
			{Until: 0.20, Min: 0, Max: 0},
			{Until: 0.80, Min: 0.5, Max: 2.0},
			{Until: 1, Min: 2.0, Max: 3.0},
		},
		RiskHigh: {
			{Until: 0.50, Min: 0, Max: 0},
			{Until: 0.75, Min: 1.0, Max: 3.0},
			{Until: 1, Min: 3.0, Max: 10.0},
		},
	}
}

// Lookup returns the table for risk, falling back to medium and then to the defaults.
func (ts Tables) Lookup(risk Risk) Table {
	if t, ok := ts[risk]; ok && len(t) > 0 {
		return t
	}
	if t, ok := ts[RiskMedium]; ok && len(t) > 0 {
		return t
	}
	return DefaultTables()[RiskMedium]
}

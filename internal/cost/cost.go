// Package cost prices purchasable items from their base cost and how many
// units are already owned.
package cost

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNegativeCount is returned when the owned count is below zero.
	ErrNegativeCount = errors.New("owned count must be >= 0")
	// ErrInvalidBase is returned for a base cost that is not a positive finite number.
	ErrInvalidBase = errors.New("base cost must be a positive finite number")
	// ErrNonFinite is returned when a curve overflows.
	ErrNonFinite = errors.New("cost is not finite")
)

// Curve prices the next unit of an item. owned is the number of units
// already purchased, so Cost(base, 0) is the price of the first unit.
type Curve interface {
	Cost(base float64, owned int) (float64, error)
	Name() string
}

// Milestone is a one-time multiplicative jump applied to every price once
// the owned count reaches Threshold.
type Milestone struct {
	Threshold  int
	Multiplier float64
}

// Tiered grows by GrowthRate per unit up to RampThreshold and by
// RampGrowthRate beyond it, with milestone jumps on top. Prices are whole
// numbers and strictly increase with every unit.
type Tiered struct {
	GrowthRate     float64
	RampThreshold  int
	RampGrowthRate float64
	Milestones     []Milestone
}

// Name implements Curve.
func (Tiered) Name() string { return "tiered" }

// Cost implements Curve.
func (t Tiered) Cost(base float64, owned int) (float64, error) {
	if err := checkArgs(base, owned); err != nil {
		return 0, err
	}

	var price float64
	if t.GrowthRate == 1 && t.RampGrowthRate == 1 {
		price = t.stepped(base, owned)
	} else {
		price = t.guarded(base, owned)
	}

	if math.IsInf(price, 0) || math.IsNaN(price) {
		return 0, fmt.Errorf("tiered cost at %d owned: %w", owned, ErrNonFinite)
	}
	return price, nil
}

// guarded carries the +1 guard forward from zero. It stops at the first
// non-finite step, and once raw growth alone exceeds one per unit the guard
// can no longer bind, so the raw price is returned directly.
func (t Tiered) guarded(base float64, owned int) float64 {
	price := t.raw(base, 0)
	for n := 1; n <= owned; n++ {
		r := t.raw(base, n)
		price = math.Max(r, price+1)
		if math.IsInf(price, 0) || math.IsNaN(price) {
			return price
		}
		if price == r && t.outgrowsGuard(r, n) {
			return t.raw(base, owned)
		}
	}
	return price
}

// outgrowsGuard reports whether every raw step after n rises by at least one.
func (t Tiered) outgrowsGuard(r float64, n int) bool {
	rate := t.RampGrowthRate
	if n < t.RampThreshold {
		rate = math.Min(t.GrowthRate, t.RampGrowthRate)
	}
	if rate <= 1 || r < 1 {
		return false
	}
	for _, m := range t.Milestones {
		if m.Multiplier < 1 {
			return false
		}
	}
	return r*(rate-1) >= 4
}

// stepped prices a curve without growth, where raw only changes at
// milestones: the guarded price is the best of raw(k)+(owned-k) over the
// segment starts k.
func (t Tiered) stepped(base float64, owned int) float64 {
	price := t.raw(base, 0) + float64(owned)
	for _, m := range t.Milestones {
		if m.Threshold > 0 && m.Threshold <= owned {
			price = math.Max(price, t.raw(base, m.Threshold)+float64(owned-m.Threshold))
		}
	}
	return price
}

// raw is the unguarded tiered price.
func (t Tiered) raw(base float64, n int) float64 {
	flat := n
	ramp := 0
	if n > t.RampThreshold {
		flat = t.RampThreshold
		ramp = n - t.RampThreshold
	}

	price := base * math.Pow(t.GrowthRate, float64(flat)) * math.Pow(t.RampGrowthRate, float64(ramp))
	for _, m := range t.Milestones {
		if n >= m.Threshold {
			price *= m.Multiplier
		}
	}
	return math.Round(price)
}

// Validate checks the curve parameters.
func (t Tiered) Validate() error {
	if t.GrowthRate < 1 || t.RampGrowthRate < 1 {
		return fmt.Errorf("tiered growth rates must be >= 1 (got %g, %g)", t.GrowthRate, t.RampGrowthRate)
	}
	if t.RampThreshold < 0 {
		return fmt.Errorf("tiered ramp threshold must be >= 0, got %d", t.RampThreshold)
	}
	for _, m := range t.Milestones {
		if m.Threshold < 1 || m.Multiplier < 1 {
			return fmt.Errorf("invalid milestone (%d, %g)", m.Threshold, m.Multiplier)
		}
	}
	return nil
}

// Exponential is round(base * GrowthRate^owned).
type Exponential struct {
	GrowthRate float64
}

// Name implements Curve.
func (Exponential) Name() string { return "exponential" }

// Cost implements Curve.
func (e Exponential) Cost(base float64, owned int) (float64, error) {
	if err := checkArgs(base, owned); err != nil {
		return 0, err
	}
	price := math.Round(base * math.Pow(e.GrowthRate, float64(owned)))
	if math.IsInf(price, 0) || math.IsNaN(price) {
		return 0, fmt.Errorf("exponential cost at %d owned: %w", owned, ErrNonFinite)
	}
	return price, nil
}

// Validate checks the curve parameters.
func (e Exponential) Validate() error {
	if e.GrowthRate < 1 {
		return fmt.Errorf("exponential growth rate must be >= 1, got %g", e.GrowthRate)
	}
	return nil
}

// Flat always costs base.
type Flat struct{}

// Name implements Curve.
func (Flat) Name() string { return "flat" }

// Cost implements Curve.
func (Flat) Cost(base float64, owned int) (float64, error) {
	if err := checkArgs(base, owned); err != nil {
		return 0, err
	}
	return base, nil
}

func checkArgs(base float64, owned int) error {
	if owned < 0 {
		return fmt.Errorf("owned=%d: %w", owned, ErrNegativeCount)
	}
	if base <= 0 || math.IsInf(base, 0) || math.IsNaN(base) {
		return fmt.Errorf("base=%g: %w", base, ErrInvalidBase)
	}
	return nil
}

// Price is Cost with errors folded into +Inf, so an item with a broken
// curve is simply never affordable.
func Price(c Curve, base float64, owned int) float64 {
	if c == nil {
		return math.Inf(1)
	}
	price, err := c.Cost(base, owned)
	if err != nil {
		return math.Inf(1)
	}
	return price
}

// Bulk returns the total price of buying k more units starting at owned.
func Bulk(c Curve, base float64, owned, k int) (float64, error) {
	if k < 0 {
		return 0, fmt.Errorf("bulk quantity %d: %w", k, ErrNegativeCount)
	}
	if c == nil {
		return 0, errors.New("nil cost curve")
	}
	total := 0.0
	for i := 0; i < k; i++ {
		price, err := c.Cost(base, owned+i)
		if err != nil {
			return 0, err
		}
		total += price
	}
	return total, nil
}

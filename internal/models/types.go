package models

import (
	"fmt"
	"math"

	"github.com/napolitain/clicker/internal/cost"
	"github.com/napolitain/clicker/internal/ledger"
)

// ItemID identifies a generator or upgrade. IDs are unique across both.
type ItemID string

// UpgradeKind is the closed set of upgrade behaviours
type UpgradeKind string

const (
	KindClickMultiplier     UpgradeKind = "click_multiplier"
	KindGlobalMultiplier    UpgradeKind = "global_multiplier"
	KindGeneratorMultiplier UpgradeKind = "generator_multiplier"
	KindOther               UpgradeKind = "other"
)

// AllUpgradeKinds returns all upgrade kinds in deterministic order
func AllUpgradeKinds() []UpgradeKind {
	return []UpgradeKind{KindClickMultiplier, KindGlobalMultiplier, KindGeneratorMultiplier, KindOther}
}

// String returns the kind name
func (k UpgradeKind) String() string {
	return string(k)
}

// ParseUpgradeKind validates a kind name
func ParseUpgradeKind(s string) (UpgradeKind, error) {
	for _, k := range AllUpgradeKinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown upgrade kind %q", s)
}

// Item holds the fields shared by generators and upgrades.
// Only Count changes during a session.
type Item struct {
	ID           ItemID
	Name         string
	Description  string
	Icon         string
	BaseCost     float64
	Curve        cost.Curve
	MaxPurchases int // 0 = unbounded
	Count        int
	Modifiers    []ledger.Modifier
}

// Limit returns the purchase bound, +Inf when unbounded
func (i *Item) Limit() float64 {
	if i.MaxPurchases <= 0 {
		return math.Inf(1)
	}
	return float64(i.MaxPurchases)
}

// AtLimit reports whether no further units can be bought
func (i *Item) AtLimit() bool {
	return float64(i.Count) >= i.Limit()
}

// Owned implements ledger.Holder
func (i *Item) Owned() int {
	return i.Count
}

// Effects implements ledger.Holder
func (i *Item) Effects() []ledger.Modifier {
	return i.Modifiers
}

// Price returns the cost of the next unit, +Inf when it cannot be priced
func (i *Item) Price() float64 {
	return cost.Price(i.Curve, i.BaseCost, i.Count)
}

// Generator produces passive yield per owned unit
type Generator struct {
	Item
	BaseYield    float64
	CurrentYield float64 // derived; written only by recalculation
}

// Effect is the tagged union of upgrade behaviours. The concrete types are
// ClickMultiplier, GlobalMultiplier, GeneratorMultiplier and NoEffect.
type Effect interface {
	Kind() UpgradeKind
	isEffect()
}

// ClickMultiplier adds Value to the click multiplier per owned unit
type ClickMultiplier struct{ Value float64 }

// GlobalMultiplier multiplies all passive yield by Value per owned unit
type GlobalMultiplier struct{ Value float64 }

// GeneratorMultiplier multiplies one generator's yield by Value per owned unit
type GeneratorMultiplier struct {
	Target ItemID
	Value  float64
}

// NoEffect is used by upgrades that only carry declared modifiers
type NoEffect struct{}

func (ClickMultiplier) Kind() UpgradeKind     { return KindClickMultiplier }
func (GlobalMultiplier) Kind() UpgradeKind    { return KindGlobalMultiplier }
func (GeneratorMultiplier) Kind() UpgradeKind { return KindGeneratorMultiplier }
func (NoEffect) Kind() UpgradeKind            { return KindOther }

func (ClickMultiplier) isEffect()     {}
func (GlobalMultiplier) isEffect()    {}
func (GeneratorMultiplier) isEffect() {}
func (NoEffect) isEffect()            {}

// ConditionKind names a visibility predicate
type ConditionKind string

const (
	CondMinGeneratorCount ConditionKind = "min_generator_count"
	CondMaxSelfCount      ConditionKind = "max_self_count"
	CondMinTotalYield     ConditionKind = "min_total_yield"
)

// Condition gates whether an upgrade is offered. Unknown kinds are kept as-is
// and always hold.
type Condition struct {
	Kind   ConditionKind
	Target ItemID  // min_generator_count
	Count  int     // min_generator_count, max_self_count
	Yield  float64 // min_total_yield
}

// Upgrade modifies click power, global yield or one generator
type Upgrade struct {
	Item
	Effect       Effect
	Prerequisite ItemID // empty = none
	Conditions   []Condition
}

// Kind returns the kind of the upgrade's effect
func (u *Upgrade) Kind() UpgradeKind {
	if u.Effect == nil {
		return KindOther
	}
	return u.Effect.Kind()
}

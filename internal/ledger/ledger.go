// Package ledger aggregates the modifiers of every owned item into
// per-(target, type) multiplier and additive terms.
//
// The ledger is a projection of current owned counts, never a running
// accumulator: Recalculate always starts from an empty ledger.
package ledger

import (
	"math"
	"sort"
)

// Action says how a modifier folds into its ledger entry.
type Action string

const (
	// Multiply compounds: multiplier *= value^owned.
	Multiply Action = "multiply"
	// AddMultiplier scales linearly: multiplier += value*owned.
	AddMultiplier Action = "add_multiplier"
	// Add increments the additive term: add += value*owned.
	Add Action = "add"
)

// Well-known targets and types.
const (
	TargetClick  = "click"
	TargetGlobal = "global"

	TypeYield = "yield"
	TypePower = "power"
)

// Modifier is a declared effect attached to an item, applied once per owned unit.
type Modifier struct {
	Target string  `yaml:"target" json:"target"`
	Type   string  `yaml:"type" json:"type"`
	Action Action  `yaml:"action" json:"action"`
	Value  float64 `yaml:"value" json:"value"`
}

// Holder is anything that owns units and declares modifiers.
type Holder interface {
	Owned() int
	Effects() []Modifier
}

// Key identifies a ledger entry.
type Key struct {
	Target string
	Type   string
}

// Entry is the aggregate for one key.
type Entry struct {
	Key        Key
	Multiplier float64
	Add        float64
}

// Ledger holds the aggregated modifier state. The zero value is empty and
// ready to use.
type Ledger struct {
	entries map[Key]*Entry
	skipped int
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{entries: make(map[Key]*Entry)}
}

// Recalculate rebuilds the ledger from scratch.
func (l *Ledger) Recalculate(holders []Holder) {
	l.entries = make(map[Key]*Entry)
	l.skipped = 0

	for _, h := range holders {
		if h == nil {
			continue
		}
		owned := h.Owned()
		if owned <= 0 {
			continue
		}
		for _, m := range h.Effects() {
			l.fold(m, owned)
		}
	}
}

func (l *Ledger) fold(m Modifier, owned int) {
	if math.IsNaN(m.Value) || math.IsInf(m.Value, 0) {
		l.skipped++
		return
	}

	switch m.Action {
	case Multiply:
		l.entry(m).Multiplier *= math.Pow(m.Value, float64(owned))
	case AddMultiplier:
		l.entry(m).Multiplier += m.Value * float64(owned)
	case Add:
		l.entry(m).Add += m.Value * float64(owned)
	default:
		l.skipped++
	}
}

func (l *Ledger) entry(m Modifier) *Entry {
	key := Key{Target: m.Target, Type: m.Type}
	e, ok := l.entries[key]
	if !ok {
		e = &Entry{Key: key, Multiplier: 1}
		l.entries[key] = e
	}
	return e
}

// Multiplier returns the aggregated multiplier, 1 if nothing applies.
func (l *Ledger) Multiplier(target, typ string) float64 {
	if e, ok := l.entries[Key{target, typ}]; ok {
		return e.Multiplier
	}
	return 1
}

// AddTerm returns the aggregated additive term, 0 if nothing applies.
func (l *Ledger) AddTerm(target, typ string) float64 {
	if e, ok := l.entries[Key{target, typ}]; ok {
		return e.Add
	}
	return 0
}

// Apply returns (base + add) * multiplier for the key.
func (l *Ledger) Apply(base float64, target, typ string) float64 {
	return (base + l.AddTerm(target, typ)) * l.Multiplier(target, typ)
}

// Skipped reports how many modifiers the last Recalculate ignored because
// their action was unknown or their value not finite.
func (l *Ledger) Skipped() int {
	return l.skipped
}

// Entries returns a copy of all entries sorted by target then type.
func (l *Ledger) Entries() []Entry {
	out := make([]Entry, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.Target != out[j].Key.Target {
			return out[i].Key.Target < out[j].Key.Target
		}
		return out[i].Key.Type < out[j].Key.Type
	})
	return out
}

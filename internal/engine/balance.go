package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/napolitain/clicker/internal/models"
)

// ErrInvalidAmount is returned for credits/debits that are not positive finite numbers
var ErrInvalidAmount = errors.New("amount must be a positive finite number")

// ErrInsufficientFunds is returned when a debit exceeds the balance
var ErrInsufficientFunds = errors.New("insufficient funds")

// minCredit is the smallest passive credit that is not rounded away
const minCredit = 0.005

// Source says where a credit came from
type Source int

const (
	SourceManual Source = iota
	SourcePassive
)

// String returns a readable source name
func (s Source) String() string {
	switch s {
	case SourceManual:
		return "manual"
	case SourcePassive:
		return "passive"
	default:
		return "unknown"
	}
}

// Balance is the currency balance plus running income statistics
type Balance struct {
	state models.BalanceState
}

// NewBalance returns a balance holding start. Negative or non-finite
// starting amounts are treated as zero.
func NewBalance(start float64) Balance {
	if start < 0 || math.IsNaN(start) || math.IsInf(start, 0) {
		start = 0
	}
	return Balance{state: models.BalanceState{Current: start}}
}

// State returns a copy of the balance fields
func (b *Balance) State() models.BalanceState {
	return b.state
}

// Current returns the spendable amount
func (b *Balance) Current() float64 {
	return b.state.Current
}

// Credit adds amount from src. Passive credits keep the balance on a
// two-decimal grid.
func (b *Balance) Credit(amount float64, src Source) error {
	if !validAmount(amount) {
		return fmt.Errorf("credit %g: %w", amount, ErrInvalidAmount)
	}

	switch src {
	case SourcePassive:
		b.state.Current = round2(b.state.Current + amount)
		b.state.TotalPassive = round2(b.state.TotalPassive + amount)
		b.state.TotalEarned = round2(b.state.TotalEarned + amount)
	default:
		b.state.Current += amount
		b.state.TotalManual += amount
		b.state.TotalEarned += amount
	}
	return nil
}

// Debit removes amount. Callers check affordability first; Debit still
// refuses to go negative.
func (b *Balance) Debit(amount float64) error {
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return fmt.Errorf("debit %g: %w", amount, ErrInvalidAmount)
	}
	if amount > b.state.Current {
		return fmt.Errorf("debit %g from %g: %w", amount, b.state.Current, ErrInsufficientFunds)
	}
	b.state.Current -= amount
	return nil
}

// RoundCredit rounds a passive credit to cents; anything under half a cent
// is dropped.
func RoundCredit(amount float64) float64 {
	if amount < minCredit || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0
	}
	return round2(amount)
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func validAmount(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

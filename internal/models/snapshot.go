package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// BalanceState is the persisted part of the currency balance
type BalanceState struct {
	Current      float64 `json:"current"`
	TotalEarned  float64 `json:"total_earned"`
	TotalManual  float64 `json:"total_manual"`
	TotalPassive float64 `json:"total_passive"`
	Clicks       int     `json:"clicks"`
}

// Snapshot is everything needed to restore a session against the same catalog
type Snapshot struct {
	SaveID  string         `json:"save_id"`
	SavedAt time.Time      `json:"saved_at"`
	Balance BalanceState   `json:"balance"`
	Counts  map[ItemID]int `json:"counts"`
}

// ErrMalformedSnapshot wraps every snapshot validation failure
var ErrMalformedSnapshot = errors.New("malformed snapshot")

// Validate rejects snapshots that cannot be restored as-is
func (s *Snapshot) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil", ErrMalformedSnapshot)
	}
	b := s.Balance
	for name, v := range map[string]float64{
		"current":       b.Current,
		"total_earned":  b.TotalEarned,
		"total_manual":  b.TotalManual,
		"total_passive": b.TotalPassive,
	} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: balance %s=%g", ErrMalformedSnapshot, name, v)
		}
	}
	if b.Clicks < 0 {
		return fmt.Errorf("%w: clicks=%d", ErrMalformedSnapshot, b.Clicks)
	}
	for id, n := range s.Counts {
		if n < 0 {
			return fmt.Errorf("%w: count for %s=%d", ErrMalformedSnapshot, id, n)
		}
	}
	return nil
}

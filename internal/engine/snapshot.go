package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/napolitain/clicker/internal/cost"
	"github.com/napolitain/clicker/internal/models"
)

// Snapshot captures balance and owned counts for persistence
func (e *Engine) Snapshot() *models.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	counts := make(map[models.ItemID]int, len(e.catalog.Generators)+len(e.catalog.Upgrades))
	for _, id := range e.catalog.IDs() {
		if item, ok := e.catalog.Lookup(id); ok {
			counts[id] = item.Count
		}
	}

	return &models.Snapshot{
		SaveID:  e.saveID,
		SavedAt: time.Now().UTC(),
		Balance: e.balance.State(),
		Counts:  counts,
	}
}

// Load restores a snapshot and recalculates every derived value. Unknown
// IDs are ignored and missing IDs start at zero; counts above an item's
// limit are clamped. A nil or malformed snapshot, or one holding a count
// whose next unit has no finite price, resets to a fresh game and the
// returned error says why; the engine is usable either way.
func (e *Engine) Load(snap *models.Snapshot) error {
	e.mu.Lock()
	err := snap.Validate()
	if err == nil {
		err = e.checkPricesLocked(snap)
	}
	if err != nil {
		e.resetLocked()
	} else {
		e.restoreLocked(snap)
	}
	balance := e.balance.Current()
	e.mu.Unlock()

	if err != nil {
		e.log.Warn("Snapshot rejected, starting fresh", zap.Error(err))
		e.notify(Event{Type: EventReset, Balance: balance})
		return fmt.Errorf("load snapshot: %w", err)
	}

	e.notify(Event{Type: EventLoad, Balance: balance})
	return nil
}

func (e *Engine) checkPricesLocked(snap *models.Snapshot) error {
	for id, n := range snap.Counts {
		item, ok := e.catalog.Lookup(id)
		if !ok || (item.MaxPurchases > 0 && n >= item.MaxPurchases) {
			continue
		}
		if math.IsInf(cost.Price(item.Curve, item.BaseCost, n), 1) {
			return fmt.Errorf("%s: no finite price at %d owned: %w", id, n, models.ErrMalformedSnapshot)
		}
	}
	return nil
}

func (e *Engine) restoreLocked(snap *models.Snapshot) {
	e.catalog.ResetCounts()

	for id, n := range snap.Counts {
		item, ok := e.catalog.Lookup(id)
		if !ok {
			e.log.Debug("Ignoring unknown item in snapshot", zap.String("item", string(id)))
			continue
		}
		if item.MaxPurchases > 0 && n > item.MaxPurchases {
			e.log.Warn("Clamping saved count to limit",
				zap.String("item", string(id)),
				zap.Int("saved", n),
				zap.Int("limit", item.MaxPurchases))
			n = item.MaxPurchases
		}
		item.Count = n
	}

	e.balance = Balance{state: snap.Balance}
	e.saveID = snap.SaveID
	if e.saveID == "" {
		e.saveID = uuid.NewString()
	}
	e.recalculateAll()

	e.log.Info("Snapshot restored",
		zap.String("save_id", e.saveID),
		zap.Float64("balance", snap.Balance.Current))
}

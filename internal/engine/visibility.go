package engine

import (
	"go.uber.org/zap"

	"github.com/napolitain/clicker/internal/models"
)

// Visible reports whether id is currently offered to the player.
// Generators are always offered until they reach their limit.
func (e *Engine) Visible(id models.ItemID) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if u, ok := e.catalog.Upgrade(id); ok {
		return e.visibleLocked(u)
	}
	if g, ok := e.catalog.Generator(id); ok {
		return !g.AtLimit()
	}
	return false
}

// visibleLocked: not at limit, prerequisite maxed, every condition holds
func (e *Engine) visibleLocked(u *models.Upgrade) bool {
	if u.AtLimit() {
		return false
	}

	if u.Prerequisite != "" {
		// A dangling prerequisite gates nothing.
		if pre, ok := e.catalog.Upgrade(u.Prerequisite); ok && !pre.AtLimit() {
			return false
		}
	}

	for _, c := range u.Conditions {
		if !e.holdsLocked(u, c) {
			return false
		}
	}
	return true
}

func (e *Engine) holdsLocked(u *models.Upgrade, c models.Condition) bool {
	switch c.Kind {
	case models.CondMinGeneratorCount:
		owned := 0
		if item, ok := e.catalog.Lookup(c.Target); ok {
			owned = item.Count
		}
		return owned >= c.Count
	case models.CondMaxSelfCount:
		return u.Count < c.Count
	case models.CondMinTotalYield:
		return e.totalYieldLocked() >= c.Yield
	default:
		e.log.Debug("Unknown visibility condition treated as satisfied",
			zap.String("upgrade", string(u.ID)),
			zap.String("kind", string(c.Kind)))
		return true
	}
}

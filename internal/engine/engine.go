// Package engine owns the game economy: the catalog of generators and
// upgrades, the currency balance and the modifier ledger. Every mutation goes
// through an Engine method; collaborators only read views and snapshots.
package engine

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/napolitain/clicker/internal/ledger"
	"github.com/napolitain/clicker/internal/models"
)

// DefaultClickPower is the base value of one manual click
const DefaultClickPower = 1.0

// Engine is the progression engine
type Engine struct {
	mu      sync.RWMutex
	catalog *models.Catalog
	balance Balance
	ledger  *ledger.Ledger
	saveID  string

	startingBalance  float64
	clickPower       float64
	clickMultiplier  float64
	globalMultiplier float64

	// purchasing is set for the whole purchase transaction, notification
	// included; a purchase attempted while it is set is rejected.
	purchasing atomic.Bool

	obsMu     sync.Mutex
	observers map[int]Observer
	nextObsID int

	log *zap.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the logger (default: no-op)
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithStartingBalance sets the balance of a fresh game
func WithStartingBalance(v float64) Option {
	return func(e *Engine) {
		e.startingBalance = v
	}
}

// WithClickPower sets the base value of a click before modifiers
func WithClickPower(v float64) Option {
	return func(e *Engine) {
		if v > 0 && !math.IsInf(v, 0) {
			e.clickPower = v
		}
	}
}

// New creates an engine over a private copy of catalog. Catalog problems
// are logged, not fatal: broken references simply have no effect.
func New(catalog *models.Catalog, opts ...Option) *Engine {
	e := &Engine{
		catalog:    catalog.Clone(),
		ledger:     ledger.New(),
		clickPower: DefaultClickPower,
		observers:  make(map[int]Observer),
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if err := e.catalog.Validate(); err != nil {
		e.log.Warn("Catalog has problems", zap.Error(err))
	}

	e.balance = NewBalance(e.startingBalance)
	e.saveID = uuid.NewString()
	e.recalculateAll()
	return e
}

// Subscribe registers an observer and returns a function that removes it
func (e *Engine) Subscribe(obs Observer) (cancel func()) {
	e.obsMu.Lock()
	id := e.nextObsID
	e.nextObsID++
	e.observers[id] = obs
	e.obsMu.Unlock()

	return func() {
		e.obsMu.Lock()
		delete(e.observers, id)
		e.obsMu.Unlock()
	}
}

func (e *Engine) notify(ev Event) {
	e.obsMu.Lock()
	ids := make([]int, 0, len(e.observers))
	for id := range e.observers {
		ids = append(ids, id)
	}
	e.obsMu.Unlock()

	for _, id := range ids {
		e.obsMu.Lock()
		obs, ok := e.observers[id]
		e.obsMu.Unlock()
		if !ok {
			continue
		}
		e.callObserver(obs, ev)
	}
}

func (e *Engine) callObserver(obs Observer, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("Observer panicked", zap.Stringer("event", ev.Type), zap.Any("panic", r))
		}
	}()
	if err := obs(ev); err != nil {
		e.log.Warn("Observer failed", zap.Stringer("event", ev.Type), zap.Error(err))
	}
}

// Purchase tries to buy one unit of id. It returns false, without changing
// anything, when the item is unknown, at its limit, not yet offered, too
// expensive, or another purchase is still in progress.
func (e *Engine) Purchase(id models.ItemID) bool {
	if !e.purchasing.CompareAndSwap(false, true) {
		e.log.Debug("Purchase rejected: another purchase in progress", zap.String("item", string(id)))
		return false
	}
	defer e.purchasing.Store(false)

	ev, ok := e.purchase(id)
	if !ok {
		return false
	}
	e.notify(ev)
	return true
}

func (e *Engine) purchase(id models.ItemID) (Event, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	item, ok := e.catalog.Lookup(id)
	if !ok {
		e.log.Debug("Purchase of unknown item", zap.String("item", string(id)))
		return Event{}, false
	}
	if item.AtLimit() {
		return Event{}, false
	}
	if u, isUpgrade := e.catalog.Upgrade(id); isUpgrade && !e.visibleLocked(u) {
		return Event{}, false
	}

	price := item.Price()
	if math.IsInf(price, 1) {
		e.log.Warn("Item cannot be priced", zap.String("item", string(id)), zap.Int("owned", item.Count))
		return Event{}, false
	}
	if e.balance.Current() < price {
		return Event{}, false
	}

	if err := e.balance.Debit(price); err != nil {
		e.log.Error("Debit failed after affordability check", zap.String("item", string(id)), zap.Error(err))
		return Event{}, false
	}
	item.Count++
	e.applyPurchase(id, item)

	e.log.Debug("Purchased",
		zap.String("item", string(id)),
		zap.Int("owned", item.Count),
		zap.Float64("cost", price))

	return Event{Type: EventPurchase, Item: id, Amount: price, Balance: e.balance.Current()}, true
}

// applyPurchase refreshes the derived values a purchase of id can affect
func (e *Engine) applyPurchase(id models.ItemID, item *models.Item) {
	e.ledger.Recalculate(e.catalog.Holders())

	if len(item.Modifiers) > 0 {
		e.recalculateDerived()
		return
	}

	u, isUpgrade := e.catalog.Upgrade(id)
	if !isUpgrade {
		// More units of a generator: total yield is computed on demand.
		return
	}

	switch eff := u.Effect.(type) {
	case models.ClickMultiplier:
		e.recomputeClick()
	case models.GlobalMultiplier:
		e.recomputeGlobal()
	case models.GeneratorMultiplier:
		e.recomputeGenerator(eff.Target)
	case models.NoEffect, nil:
	}
}

// recalculateAll rebuilds the ledger and every derived value from the
// current counts
func (e *Engine) recalculateAll() {
	e.ledger.Recalculate(e.catalog.Holders())
	if n := e.ledger.Skipped(); n > 0 {
		e.log.Warn("Ignored malformed modifiers", zap.Int("count", n))
	}
	e.recalculateDerived()
}

func (e *Engine) recalculateDerived() {
	e.recomputeClick()
	e.recomputeGlobal()
	for _, g := range e.catalog.Generators {
		e.recomputeGenerator(g.ID)
	}
}

// recomputeClick: 1 + sum(value * owned), additive stacking
func (e *Engine) recomputeClick() {
	m := 1.0
	for _, u := range e.catalog.Upgrades {
		if eff, ok := u.Effect.(models.ClickMultiplier); ok && u.Count > 0 {
			m += eff.Value * float64(u.Count)
		}
	}
	e.clickMultiplier = m
}

// recomputeGlobal: product(value ^ owned), compounding, times ledger "global"
func (e *Engine) recomputeGlobal() {
	m := 1.0
	for _, u := range e.catalog.Upgrades {
		if eff, ok := u.Effect.(models.GlobalMultiplier); ok && u.Count > 0 {
			m *= math.Pow(eff.Value, float64(u.Count))
		}
	}
	e.globalMultiplier = m * e.ledger.Multiplier(ledger.TargetGlobal, ledger.TypeYield)
}

// recomputeGenerator: baseYield * product(value ^ owned) over upgrades
// targeting it, then the generator's ledger entry. Unknown targets are a no-op.
func (e *Engine) recomputeGenerator(id models.ItemID) {
	g, ok := e.catalog.Generator(id)
	if !ok {
		e.log.Debug("Upgrade targets unknown generator", zap.String("target", string(id)))
		return
	}

	m := 1.0
	for _, u := range e.catalog.Upgrades {
		if eff, ok := u.Effect.(models.GeneratorMultiplier); ok && eff.Target == id && u.Count > 0 {
			m *= math.Pow(eff.Value, float64(u.Count))
		}
	}
	g.CurrentYield = e.ledger.Apply(g.BaseYield*m, string(g.ID), ledger.TypeYield)
}

// Click credits one manual click and returns the amount credited
func (e *Engine) Click() float64 {
	e.mu.Lock()
	value := e.clickValueLocked()
	if err := e.balance.Credit(value, SourceManual); err != nil {
		e.mu.Unlock()
		e.log.Warn("Click not credited", zap.Stringer("source", SourceManual), zap.Error(err))
		return 0
	}
	e.balance.state.Clicks++
	balance := e.balance.Current()
	e.mu.Unlock()

	e.notify(Event{Type: EventClick, Amount: value, Balance: balance})
	return value
}

// AccruePassive credits yield for an elapsed interval and returns the
// amount credited. Credits are rounded to cents; sub-half-cent credits are
// dropped.
func (e *Engine) AccruePassive(elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}

	e.mu.Lock()
	amount := RoundCredit(e.totalYieldLocked() * elapsed.Seconds())
	if amount == 0 {
		e.mu.Unlock()
		return 0
	}
	if err := e.balance.Credit(amount, SourcePassive); err != nil {
		e.mu.Unlock()
		e.log.Warn("Passive credit rejected", zap.Stringer("source", SourcePassive), zap.Float64("amount", amount), zap.Error(err))
		return 0
	}
	balance := e.balance.Current()
	e.mu.Unlock()

	e.notify(Event{Type: EventPassive, Amount: amount, Balance: balance})
	return amount
}

// Reset returns the game to a fresh state
func (e *Engine) Reset() {
	e.mu.Lock()
	e.resetLocked()
	balance := e.balance.Current()
	e.mu.Unlock()

	e.log.Info("Game reset")
	e.notify(Event{Type: EventReset, Balance: balance})
}

func (e *Engine) resetLocked() {
	e.catalog.ResetCounts()
	e.balance = NewBalance(e.startingBalance)
	e.saveID = uuid.NewString()
	e.recalculateAll()
}

// Cost returns the price of the next unit of id, +Inf if unknown or unpriceable
func (e *Engine) Cost(id models.ItemID) float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	item, ok := e.catalog.Lookup(id)
	if !ok {
		return math.Inf(1)
	}
	return item.Price()
}

// CanAfford reports whether the balance covers the next unit of id
func (e *Engine) CanAfford(id models.ItemID) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	item, ok := e.catalog.Lookup(id)
	if !ok {
		return false
	}
	return e.balance.Current() >= item.Price()
}

// Count returns how many units of id are owned
func (e *Engine) Count(id models.ItemID) int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if item, ok := e.catalog.Lookup(id); ok {
		return item.Count
	}
	return 0
}

// Balance returns the balance fields
func (e *Engine) Balance() models.BalanceState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.balance.State()
}

// TotalYield returns passive income per second
func (e *Engine) TotalYield() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.totalYieldLocked()
}

func (e *Engine) totalYieldLocked() float64 {
	sum := 0.0
	for _, g := range e.catalog.Generators {
		sum += g.CurrentYield * float64(g.Count)
	}
	return sum * e.globalMultiplier
}

// ClickValue returns what the next click will credit
func (e *Engine) ClickValue() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.clickValueLocked()
}

func (e *Engine) clickValueLocked() float64 {
	return e.ledger.Apply(e.clickPower, ledger.TargetClick, ledger.TypePower) * e.clickMultiplier
}

// ClickMultiplier returns the multiplier from click upgrades
func (e *Engine) ClickMultiplier() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.clickMultiplier
}

// GlobalMultiplier returns the multiplier applied to all passive yield
func (e *Engine) GlobalMultiplier() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.globalMultiplier
}

// GeneratorYield returns the current per-unit yield of a generator
func (e *Engine) GeneratorYield(id models.ItemID) (float64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	g, ok := e.catalog.Generator(id)
	if !ok {
		return 0, fmt.Errorf("generator %q not found", id)
	}
	return g.CurrentYield, nil
}

// Ledger returns a copy of the aggregated modifier entries
func (e *Engine) Ledger() []ledger.Entry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.Entries()
}

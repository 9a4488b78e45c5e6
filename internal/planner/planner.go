// Package planner simulates a game forward and greedily buys the item with
// the best return on investment at each step.
package planner

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/napolitain/clicker/internal/engine"
	"github.com/napolitain/clicker/internal/models"
	"github.com/napolitain/clicker/internal/ticker"
)

// StopReason says why a plan ended
type StopReason string

const (
	StopTarget  StopReason = "target yield reached"
	StopSteps   StopReason = "step limit reached"
	StopHorizon StopReason = "time horizon reached"
	StopStalled StopReason = "nothing left to buy"
)

const defaultSteps = 50

// Options bounds the simulation
type Options struct {
	StartingBalance float64
	ClickPower      float64
	ClicksPerSecond float64
	Interval        time.Duration // tick length, default ticker.DefaultInterval
	TargetYield     float64       // stop once passive yield reaches this; 0 = no target
	MaxSteps        int           // default 50
	Horizon         time.Duration // default one hour of game time
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = ticker.DefaultInterval
	}
	if o.MaxSteps <= 0 {
		o.MaxSteps = defaultSteps
	}
	if o.Horizon <= 0 {
		o.Horizon = time.Hour
	}
	if o.ClicksPerSecond < 0 {
		o.ClicksPerSecond = 0
	}
	return o
}

// Step is one purchase in a plan
type Step struct {
	At         time.Duration // simulated time of the purchase
	ItemID     models.ItemID
	Name       string
	Cost       float64
	YieldAfter float64
	ClickAfter float64
	ROI        float64
}

// Plan is the outcome of a simulation
type Plan struct {
	Steps      []Step
	Elapsed    time.Duration
	FinalYield float64
	Balance    float64
	Reason     StopReason
}

// Planner produces purchase plans for a catalog
type Planner struct {
	catalog *models.Catalog
	log     *zap.Logger
}

// New creates a planner. The catalog is never mutated.
func New(catalog *models.Catalog, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{catalog: catalog, log: logger}
}

type candidate struct {
	id     models.ItemID
	name   string
	metric ROIMetric
	roi    float64
}

// Plan simulates from start (nil = a fresh game) until one of the bounds in
// opts is hit
func (p *Planner) Plan(ctx context.Context, start *models.Snapshot, opts Options) (*Plan, error) {
	opts = opts.withDefaults()

	e := p.newEngine(opts)
	if start != nil {
		if err := e.Load(start); err != nil {
			return nil, fmt.Errorf("planner start state: %w", err)
		}
	}
	tk := ticker.New(e, opts.Interval, p.log)

	sim := &simulation{engine: e, ticker: tk, opts: opts}
	plan := &Plan{}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if opts.TargetYield > 0 && e.TotalYield() >= opts.TargetYield {
			plan.Reason = StopTarget
			break
		}
		if len(plan.Steps) >= opts.MaxSteps {
			plan.Reason = StopSteps
			break
		}

		best, ok := p.best(e, opts)
		if !ok {
			plan.Reason = StopStalled
			break
		}

		if !sim.waitFor(best.id) {
			plan.Reason = StopHorizon
			break
		}

		cost := e.Cost(best.id)
		if !e.Purchase(best.id) {
			// Visibility only widens while waiting.
			return nil, fmt.Errorf("planned purchase of %s was refused", best.id)
		}

		step := Step{
			At:         sim.elapsed,
			ItemID:     best.id,
			Name:       best.name,
			Cost:       cost,
			YieldAfter: e.TotalYield(),
			ClickAfter: e.ClickValue(),
			ROI:        best.roi,
		}
		plan.Steps = append(plan.Steps, step)
		p.log.Debug("Planned purchase",
			zap.String("item", string(step.ItemID)),
			zap.Duration("at", step.At),
			zap.Float64("cost", step.Cost),
			zap.Float64("yield", step.YieldAfter))
	}

	plan.Elapsed = sim.elapsed
	plan.FinalYield = e.TotalYield()
	plan.Balance = e.Balance().Current
	return plan, nil
}

func (p *Planner) newEngine(opts Options) *engine.Engine {
	engineOpts := []engine.Option{engine.WithStartingBalance(opts.StartingBalance)}
	if opts.ClickPower > 0 {
		engineOpts = append(engineOpts, engine.WithClickPower(opts.ClickPower))
	}
	return engine.New(p.catalog, engineOpts...)
}

// best returns the visible item with the highest ROI. Ties go to the item
// listed first in the catalog.
func (p *Planner) best(e *engine.Engine, opts Options) (candidate, bool) {
	snap := e.Snapshot()
	income := e.TotalYield() + opts.ClicksPerSecond*e.ClickValue()
	balance := e.Balance().Current

	var best candidate
	found := false

	for _, id := range p.catalog.IDs() {
		if !e.Visible(id) {
			continue
		}
		cost := e.Cost(id)
		if math.IsInf(cost, 1) {
			continue
		}

		wait := 0.0
		if cost > balance {
			if income <= 0 {
				continue
			}
			wait = (cost - balance) / income
		}

		gain, ok := p.gain(snap, id, cost, opts)
		if !ok {
			continue
		}

		metric := ROIMetric{GainPerSecond: gain, TotalCost: cost, WaitSeconds: wait}
		roi := metric.Calculate()
		if roi <= 0 {
			continue
		}
		if !found || roi > best.roi {
			item, _ := p.catalog.Lookup(id)
			best = candidate{id: id, name: item.Name, metric: metric, roi: roi}
			found = true
		}
	}
	return best, found
}

// gain measures the income a purchase adds by replaying it on a probe engine
func (p *Planner) gain(snap *models.Snapshot, id models.ItemID, cost float64, opts Options) (float64, bool) {
	probe := p.newEngine(opts)
	s := *snap
	s.Balance.Current = cost
	if err := probe.Load(&s); err != nil {
		return 0, false
	}

	yieldBefore, clickBefore := probe.TotalYield(), probe.ClickValue()
	if !probe.Purchase(id) {
		return 0, false
	}

	gain := probe.TotalYield() - yieldBefore
	gain += opts.ClicksPerSecond * (probe.ClickValue() - clickBefore)
	return gain, true
}

type simulation struct {
	engine  *engine.Engine
	ticker  *ticker.Ticker
	opts    Options
	elapsed time.Duration
	clicks  float64
}

// waitFor ticks until id is affordable. It returns false when the horizon
// is reached first.
func (s *simulation) waitFor(id models.ItemID) bool {
	for !s.engine.CanAfford(id) {
		if s.elapsed+s.opts.Interval > s.opts.Horizon {
			return false
		}
		s.ticker.Tick()
		s.clicks += s.opts.ClicksPerSecond * s.opts.Interval.Seconds()
		for s.clicks >= 1 {
			s.engine.Click()
			s.clicks--
		}
		s.elapsed += s.opts.Interval
	}
	return true
}

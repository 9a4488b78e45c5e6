package engine

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// The first cursor is charged at its zero-owned price, so 1000 - 10 leaves 990.
func TestPurchaseEndToEnd(t *testing.T) {
	e := New(testCatalog(), WithStartingBalance(1000), WithLogger(zaptest.NewLogger(t)))

	require.Equal(t, 10.0, e.Cost("cursor"))
	require.True(t, e.Purchase("cursor"))

	assert.Equal(t, 1, e.Count("cursor"))
	assert.Equal(t, 990.0, e.Balance().Current)
	assert.Equal(t, 11.0, e.Cost("cursor"), "next price is round(10*1.1)")
	assert.Equal(t, 1.0, e.TotalYield())
}

func TestPurchaseInsufficientFundsLeavesStateUntouched(t *testing.T) {
	e := New(testCatalog(), WithStartingBalance(5))

	assert.False(t, e.CanAfford("cursor"))
	assert.False(t, e.Purchase("cursor"))
	assert.Equal(t, 0, e.Count("cursor"))
	assert.Equal(t, 5.0, e.Balance().Current)
}

func TestPurchaseUnknownItem(t *testing.T) {
	e := New(testCatalog(), WithStartingBalance(1000))

	assert.False(t, e.Purchase("does_not_exist"))
	assert.False(t, e.CanAfford("does_not_exist"))
	assert.False(t, e.Visible("does_not_exist"))
	assert.Equal(t, 1000.0, e.Balance().Current)
}

func TestClickMultiplierStacksAdditively(t *testing.T) {
	e := New(testCatalog(), WithStartingBalance(1000))

	require.True(t, e.Purchase("better_clicks"))
	require.True(t, e.Purchase("better_clicks"))
	assert.Equal(t, 1000.0-50-100, e.Balance().Current)
	assert.Equal(t, 3.0, e.ClickMultiplier())

	credited := e.Click()
	assert.Equal(t, 3.0, credited)

	b := e.Balance()
	assert.Equal(t, 1, b.Clicks)
	assert.Equal(t, 3.0, b.TotalManual)
	assert.Equal(t, 3.0, b.TotalEarned)
}

func TestGlobalMultiplierCompounds(t *testing.T) {
	e := New(testCatalog(), WithStartingBalance(10000))

	require.True(t, e.Purchase("cursor"))
	require.True(t, e.Purchase("golden_touch"))

	assert.Equal(t, 2.0, e.GlobalMultiplier())
	assert.Equal(t, 2.0, e.TotalYield())
	assert.False(t, e.Purchase("golden_touch"), "limited to one purchase")
	assert.False(t, e.Visible("golden_touch"))
}

func TestGeneratorMultiplierTargetsOneGenerator(t *testing.T) {
	e := New(testCatalog(), WithStartingBalance(10000))

	require.True(t, e.Purchase("cursor_boost"))
	require.True(t, e.Purchase("cursor_boost"))

	cursor, err := e.GeneratorYield("cursor")
	require.NoError(t, err)
	assert.Equal(t, 4.0, cursor)

	farm, err := e.GeneratorYield("farm")
	require.NoError(t, err)
	assert.Equal(t, 8.0, farm)
}

func TestDanglingGeneratorTargetIsNoOp(t *testing.T) {
	e := New(testCatalog(), WithStartingBalance(1000))
	require.True(t, e.Purchase("cursor"))
	before := e.TotalYield()

	require.True(t, e.Purchase("ghost"))
	assert.Equal(t, before, e.TotalYield())
	assert.Equal(t, 1, e.Count("ghost"))
}

func TestVisibilityNeedsPrerequisiteAndCondition(t *testing.T) {
	t.Run("condition unmet, prerequisite met", func(t *testing.T) {
		e := New(testCatalog(), WithStartingBalance(1e6))
		require.True(t, e.Purchase("golden_touch"))
		for i := 0; i < 4; i++ {
			require.True(t, e.Purchase("farm"))
		}
		assert.False(t, e.Visible("farm_boost"))
		assert.False(t, e.Purchase("farm_boost"))
	})

	t.Run("prerequisite unmet, condition met", func(t *testing.T) {
		e := New(testCatalog(), WithStartingBalance(1e6))
		for i := 0; i < 5; i++ {
			require.True(t, e.Purchase("farm"))
		}
		assert.False(t, e.Visible("farm_boost"))
		assert.False(t, e.Purchase("farm_boost"))
	})

	t.Run("both met", func(t *testing.T) {
		e := New(testCatalog(), WithStartingBalance(1e6))
		require.True(t, e.Purchase("golden_touch"))
		for i := 0; i < 5; i++ {
			require.True(t, e.Purchase("farm"))
		}
		assert.True(t, e.Visible("farm_boost"))
		require.True(t, e.Purchase("farm_boost"))

		farm, err := e.GeneratorYield("farm")
		require.NoError(t, err)
		assert.Equal(t, 24.0, farm)
		assert.False(t, e.Visible("farm_boost"), "maxed upgrades are hidden")
	})
}

func TestVisibilityConditionKinds(t *testing.T) {
	e := New(testCatalog(), WithStartingBalance(1e6))

	assert.True(t, e.Visible("mystery"), "unknown condition kinds fail open")
	assert.True(t, e.Visible("first_steps"))
	assert.False(t, e.Visible("tycoon"), "needs 10/s")

	require.True(t, e.Purchase("first_steps"))
	assert.False(t, e.Visible("first_steps"))

	require.True(t, e.Purchase("farm"))
	require.True(t, e.Purchase("farm"))
	assert.Equal(t, 16.0, e.TotalYield())
	assert.True(t, e.Visible("tycoon"))
	assert.True(t, e.Visible("cursor"), "generators are always offered")
}

func TestDeclaredModifiersFeedTheLedger(t *testing.T) {
	e := New(testCatalog(), WithStartingBalance(1000))
	require.Equal(t, 1.0, e.ClickValue())

	require.True(t, e.Purchase("mystery"))
	assert.Equal(t, 5.0, e.ClickValue())

	require.True(t, e.Purchase("better_clicks"))
	assert.Equal(t, 10.0, e.ClickValue(), "(1 + 4) * (1 + 1)")

	entries := e.Ledger()
	require.Len(t, entries, 1)
	assert.Equal(t, 4.0, entries[0].Add)
}

func TestReentrantPurchaseIsRejected(t *testing.T) {
	e := New(testCatalog(), WithStartingBalance(1000))

	var nested []bool
	e.Subscribe(func(ev Event) error {
		if ev.Type == EventPurchase {
			nested = append(nested, e.Purchase(ev.Item))
		}
		return nil
	})

	require.True(t, e.Purchase("cursor"))
	assert.Equal(t, []bool{false}, nested)
	assert.Equal(t, 1, e.Count("cursor"))
	assert.Equal(t, 990.0, e.Balance().Current)

	// The guard is released once the transaction finishes
	require.True(t, e.Purchase("cursor"))
	assert.Equal(t, 2, e.Count("cursor"))
}

func TestConcurrentPurchasesNeverDoubleSpend(t *testing.T) {
	e := New(testCatalog(), WithStartingBalance(10))

	var wg sync.WaitGroup
	var wins atomic.Int32
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if e.Purchase("cursor") {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, 1, e.Count("cursor"))
	assert.Equal(t, 0.0, e.Balance().Current)
}

func TestObserverFailuresAreIsolated(t *testing.T) {
	e := New(testCatalog(), WithStartingBalance(1000), WithLogger(zaptest.NewLogger(t)))

	var seen []EventType
	e.Subscribe(func(Event) error { panic("render crashed") })
	e.Subscribe(func(Event) error { return errors.New("render failed") })
	e.Subscribe(func(ev Event) error {
		seen = append(seen, ev.Type)
		return nil
	})

	require.True(t, e.Purchase("cursor"))
	e.Click()
	assert.ElementsMatch(t, []EventType{EventPurchase, EventClick}, seen)
	assert.Equal(t, 1, e.Count("cursor"))
}

func TestUnsubscribe(t *testing.T) {
	e := New(testCatalog(), WithStartingBalance(1000))

	calls := 0
	cancel := e.Subscribe(func(Event) error {
		calls++
		return nil
	})
	e.Click()
	cancel()
	e.Click()

	assert.Equal(t, 1, calls)
}

func TestAccruePassiveRounding(t *testing.T) {
	e := New(dripCatalog(), WithStartingBalance(10))

	require.True(t, e.Purchase("drip"))
	assert.InDelta(t, 0.03, e.TotalYield(), 1e-12)
	assert.Equal(t, 0.0, e.AccruePassive(100*time.Millisecond), "0.003 rounds away")
	assert.Equal(t, 9.0, e.Balance().Current)

	require.True(t, e.Purchase("drip"))
	assert.Equal(t, 0.01, e.AccruePassive(100*time.Millisecond), "0.006 rounds to a cent")

	b := e.Balance()
	assert.Equal(t, 7.01, b.Current)
	assert.Equal(t, 0.01, b.TotalPassive)
	assert.Equal(t, 0.0, e.AccruePassive(0))
}

func TestResetRestoresFreshState(t *testing.T) {
	e := New(testCatalog(), WithStartingBalance(1000))
	require.True(t, e.Purchase("cursor"))
	require.True(t, e.Purchase("better_clicks"))
	e.Click()
	oldID := e.Snapshot().SaveID

	var got []EventType
	e.Subscribe(func(ev Event) error {
		got = append(got, ev.Type)
		return nil
	})
	e.Reset()

	assert.Equal(t, []EventType{EventReset}, got)
	assert.Equal(t, 0, e.Count("cursor"))
	assert.Equal(t, 0, e.Count("better_clicks"))
	assert.Equal(t, 1000.0, e.Balance().Current)
	assert.Equal(t, 0, e.Balance().Clicks)
	assert.Equal(t, 1.0, e.ClickMultiplier())
	assert.Equal(t, 0.0, e.TotalYield())
	assert.NotEqual(t, oldID, e.Snapshot().SaveID)
}

func TestEnginesDoNotShareCatalogState(t *testing.T) {
	catalog := testCatalog()
	a := New(catalog, WithStartingBalance(1000))
	b := New(catalog, WithStartingBalance(1000))

	require.True(t, a.Purchase("cursor"))
	assert.Equal(t, 0, b.Count("cursor"))
	assert.Equal(t, 0, catalog.Generators[0].Count)
}

func TestViewReflectsState(t *testing.T) {
	e := New(testCatalog(), WithStartingBalance(60))
	require.True(t, e.Purchase("cursor"))

	v := e.View()
	assert.Equal(t, 50.0, v.Balance.Current)
	assert.Equal(t, 1.0, v.TotalYield)

	byID := make(map[string]ItemView)
	for _, iv := range v.Items {
		byID[string(iv.ID)] = iv
	}

	cursor := byID["cursor"]
	assert.True(t, cursor.Generator)
	assert.Equal(t, 1, cursor.Count)
	assert.Equal(t, 11.0, cursor.Cost)
	assert.True(t, cursor.Affordable)
	assert.Equal(t, 1.0, cursor.Contribution)

	boost := byID["cursor_boost"]
	assert.False(t, boost.Affordable)
	assert.Equal(t, "cursor", string(boost.Target))
	assert.Equal(t, 2.0, boost.Value)

	assert.False(t, byID["farm_boost"].Visible)
	assert.Len(t, v.Items, 10)
}

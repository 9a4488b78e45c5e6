package engine

import (
	"github.com/napolitain/clicker/internal/cost"
	"github.com/napolitain/clicker/internal/ledger"
	"github.com/napolitain/clicker/internal/models"
)

func generatorCurve() cost.Tiered {
	return cost.Tiered{
		GrowthRate:     1.1,
		RampThreshold:  50,
		RampGrowthRate: 1.15,
		Milestones:     []cost.Milestone{{Threshold: 100, Multiplier: 5}},
	}
}

func gen(id models.ItemID, base, yield float64) *models.Generator {
	return &models.Generator{
		Item:         models.Item{ID: id, Name: string(id), BaseCost: base, Curve: generatorCurve()},
		BaseYield:    yield,
		CurrentYield: yield,
	}
}

func upgrade(id models.ItemID, base float64, maxPurchases int, curve cost.Curve, eff models.Effect) *models.Upgrade {
	return &models.Upgrade{
		Item:   models.Item{ID: id, Name: string(id), BaseCost: base, Curve: curve, MaxPurchases: maxPurchases},
		Effect: eff,
	}
}

// testCatalog covers every upgrade kind, a prerequisite chain, an unknown
// condition and a dangling generator reference.
func testCatalog() *models.Catalog {
	farmBoost := upgrade("farm_boost", 1000, 1, cost.Flat{}, models.GeneratorMultiplier{Target: "farm", Value: 3})
	farmBoost.Prerequisite = "golden_touch"
	farmBoost.Conditions = []models.Condition{{Kind: models.CondMinGeneratorCount, Target: "farm", Count: 5}}

	mystery := upgrade("mystery", 20, 3, cost.Flat{}, models.NoEffect{})
	mystery.Conditions = []models.Condition{{Kind: "lunar_phase"}}
	mystery.Modifiers = []ledger.Modifier{{Target: ledger.TargetClick, Type: ledger.TypePower, Action: ledger.Add, Value: 4}}

	limited := upgrade("first_steps", 5, 1, cost.Flat{}, models.ClickMultiplier{Value: 0.5})
	limited.Conditions = []models.Condition{{Kind: models.CondMaxSelfCount, Count: 1}}

	rich := upgrade("tycoon", 10, 1, cost.Flat{}, models.GlobalMultiplier{Value: 1.5})
	rich.Conditions = []models.Condition{{Kind: models.CondMinTotalYield, Yield: 10}}

	return models.NewCatalog(
		[]*models.Generator{
			gen("cursor", 10, 1),
			gen("farm", 100, 8),
		},
		[]*models.Upgrade{
			upgrade("better_clicks", 50, 0, cost.Exponential{GrowthRate: 2}, models.ClickMultiplier{Value: 1}),
			upgrade("golden_touch", 500, 1, cost.Flat{}, models.GlobalMultiplier{Value: 2}),
			upgrade("cursor_boost", 200, 2, cost.Flat{}, models.GeneratorMultiplier{Target: "cursor", Value: 2}),
			farmBoost,
			upgrade("ghost", 5, 1, cost.Flat{}, models.GeneratorMultiplier{Target: "nowhere", Value: 9}),
			mystery,
			limited,
			rich,
		},
	)
}

// dripCatalog has a single low-yield generator for rounding tests
func dripCatalog() *models.Catalog {
	return models.NewCatalog([]*models.Generator{gen("drip", 1, 0.03)}, nil)
}

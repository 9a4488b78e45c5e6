package engine

import (
	"github.com/napolitain/clicker/internal/models"
)

// ItemView is the read-only projection of one item for display
type ItemView struct {
	ID          models.ItemID
	Name        string
	Description string
	Icon        string
	Generator   bool
	Kind        models.UpgradeKind // upgrades only

	Count        int
	MaxPurchases int
	Cost         float64
	Affordable   bool
	Visible      bool
	AtLimit      bool

	// Generators: per-unit yield and total contribution after the global
	// multiplier. Upgrades: the effect magnitude.
	Value        float64
	Contribution float64
	Target       models.ItemID // generator multipliers only
}

// View is a consistent read of everything a front-end displays
type View struct {
	Balance          models.BalanceState
	TotalYield       float64
	ClickValue       float64
	GlobalMultiplier float64
	Items            []ItemView
}

// View returns a snapshot of the displayable state, read under a single lock
func (e *Engine) View() View {
	e.mu.RLock()
	defer e.mu.RUnlock()

	v := View{
		Balance:          e.balance.State(),
		TotalYield:       e.totalYieldLocked(),
		ClickValue:       e.clickValueLocked(),
		GlobalMultiplier: e.globalMultiplier,
		Items:            make([]ItemView, 0, len(e.catalog.Generators)+len(e.catalog.Upgrades)),
	}

	for _, g := range e.catalog.Generators {
		iv := e.itemView(&g.Item)
		iv.Generator = true
		iv.Visible = !g.AtLimit()
		iv.Value = g.CurrentYield
		iv.Contribution = g.CurrentYield * float64(g.Count) * e.globalMultiplier
		v.Items = append(v.Items, iv)
	}

	for _, u := range e.catalog.Upgrades {
		iv := e.itemView(&u.Item)
		iv.Kind = u.Kind()
		iv.Visible = e.visibleLocked(u)
		switch eff := u.Effect.(type) {
		case models.ClickMultiplier:
			iv.Value = eff.Value
		case models.GlobalMultiplier:
			iv.Value = eff.Value
		case models.GeneratorMultiplier:
			iv.Value = eff.Value
			iv.Target = eff.Target
		}
		v.Items = append(v.Items, iv)
	}

	return v
}

func (e *Engine) itemView(it *models.Item) ItemView {
	price := it.Price()
	return ItemView{
		ID:           it.ID,
		Name:         it.Name,
		Description:  it.Description,
		Icon:         it.Icon,
		Count:        it.Count,
		MaxPurchases: it.MaxPurchases,
		Cost:         price,
		Affordable:   e.balance.Current() >= price,
		AtLimit:      it.AtLimit(),
	}
}

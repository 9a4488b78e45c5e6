package models

import (
	"errors"
	"fmt"
	"math"

	"github.com/napolitain/clicker/internal/ledger"
)

// Catalog is the static set of purchasable items for a session, in display order
type Catalog struct {
	Generators []*Generator
	Upgrades   []*Upgrade

	index map[ItemID]*Item
}

// NewCatalog builds the ID index. It does not validate; call Validate.
func NewCatalog(generators []*Generator, upgrades []*Upgrade) *Catalog {
	c := &Catalog{Generators: generators, Upgrades: upgrades}
	c.reindex()
	return c
}

func (c *Catalog) reindex() {
	c.index = make(map[ItemID]*Item, len(c.Generators)+len(c.Upgrades))
	for _, g := range c.Generators {
		if _, dup := c.index[g.ID]; !dup {
			c.index[g.ID] = &g.Item
		}
	}
	for _, u := range c.Upgrades {
		if _, dup := c.index[u.ID]; !dup {
			c.index[u.ID] = &u.Item
		}
	}
}

// Lookup returns the shared item fields for any ID
func (c *Catalog) Lookup(id ItemID) (*Item, bool) {
	item, ok := c.index[id]
	return item, ok
}

// Generator returns the generator with the given ID
func (c *Catalog) Generator(id ItemID) (*Generator, bool) {
	for _, g := range c.Generators {
		if g.ID == id {
			return g, true
		}
	}
	return nil, false
}

// Upgrade returns the upgrade with the given ID
func (c *Catalog) Upgrade(id ItemID) (*Upgrade, bool) {
	for _, u := range c.Upgrades {
		if u.ID == id {
			return u, true
		}
	}
	return nil, false
}

// Holders returns every item as a ledger holder, generators first
func (c *Catalog) Holders() []ledger.Holder {
	out := make([]ledger.Holder, 0, len(c.Generators)+len(c.Upgrades))
	for _, g := range c.Generators {
		out = append(out, &g.Item)
	}
	for _, u := range c.Upgrades {
		out = append(out, &u.Item)
	}
	return out
}

// IDs returns every item ID in display order, generators first
func (c *Catalog) IDs() []ItemID {
	out := make([]ItemID, 0, len(c.Generators)+len(c.Upgrades))
	for _, g := range c.Generators {
		out = append(out, g.ID)
	}
	for _, u := range c.Upgrades {
		out = append(out, u.ID)
	}
	return out
}

// ResetCounts sets every owned count to zero and clears derived yields
func (c *Catalog) ResetCounts() {
	for _, g := range c.Generators {
		g.Count = 0
		g.CurrentYield = g.BaseYield
	}
	for _, u := range c.Upgrades {
		u.Count = 0
	}
}

// Clone returns a deep copy; curves and modifier slices are shared since
// they are immutable after loading.
func (c *Catalog) Clone() *Catalog {
	gens := make([]*Generator, len(c.Generators))
	for i, g := range c.Generators {
		cp := *g
		gens[i] = &cp
	}
	ups := make([]*Upgrade, len(c.Upgrades))
	for i, u := range c.Upgrades {
		cp := *u
		ups[i] = &cp
	}
	return NewCatalog(gens, ups)
}

// Validate checks identity and reference rules. A generator multiplier
// pointing at a missing generator is an error here, but the engine still
// tolerates it at runtime.
func (c *Catalog) Validate() error {
	var errs []error
	seen := make(map[ItemID]bool)

	check := func(it *Item) {
		if it.ID == "" {
			errs = append(errs, errors.New("item with empty id"))
			return
		}
		if seen[it.ID] {
			errs = append(errs, fmt.Errorf("duplicate item id %q", it.ID))
		}
		seen[it.ID] = true
		if it.BaseCost <= 0 || math.IsInf(it.BaseCost, 0) || math.IsNaN(it.BaseCost) {
			errs = append(errs, fmt.Errorf("%s: base cost must be positive, got %g", it.ID, it.BaseCost))
		}
		if it.MaxPurchases < 0 {
			errs = append(errs, fmt.Errorf("%s: max purchases must be >= 0", it.ID))
		}
		if it.Curve == nil {
			errs = append(errs, fmt.Errorf("%s: missing cost curve", it.ID))
		} else if v, ok := it.Curve.(interface{ Validate() error }); ok {
			if err := v.Validate(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", it.ID, err))
			}
		}
	}

	for _, g := range c.Generators {
		check(&g.Item)
		if g.BaseYield < 0 {
			errs = append(errs, fmt.Errorf("%s: base yield must be >= 0", g.ID))
		}
	}
	for _, u := range c.Upgrades {
		check(&u.Item)
		if gm, ok := u.Effect.(GeneratorMultiplier); ok {
			if _, found := c.Generator(gm.Target); !found {
				errs = append(errs, fmt.Errorf("%s: target generator %q not found", u.ID, gm.Target))
			}
		}
		if u.Prerequisite != "" {
			if _, found := c.Upgrade(u.Prerequisite); !found {
				errs = append(errs, fmt.Errorf("%s: prerequisite %q not found", u.ID, u.Prerequisite))
			}
		}
	}

	return errors.Join(errs...)
}

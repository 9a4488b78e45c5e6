// Package loader reads catalog definitions from YAML (or JSON) files.
package loader

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/napolitain/clicker/internal/cost"
	"github.com/napolitain/clicker/internal/ledger"
	"github.com/napolitain/clicker/internal/models"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Curve kinds accepted in catalog files
const (
	CurveTiered      = "tiered"
	CurveExponential = "exponential"
	CurveFlat        = "flat"
)

// DefaultGeneratorCurve is used by generators that do not declare a curve
var DefaultGeneratorCurve = cost.Tiered{
	GrowthRate:     1.15,
	RampThreshold:  50,
	RampGrowthRate: 1.2,
	Milestones:     []cost.Milestone{{Threshold: 100, Multiplier: 2}},
}

// CatalogYAML is the on-disk catalog
type CatalogYAML struct {
	Generators []GeneratorYAML `yaml:"generators"`
	Upgrades   []UpgradeYAML   `yaml:"upgrades"`
}

// ItemYAML holds the fields shared by generators and upgrades
type ItemYAML struct {
	ID           string            `yaml:"id"`
	Name         string            `yaml:"name"`
	Description  string            `yaml:"description"`
	Icon         string            `yaml:"icon"`
	BaseCost     float64           `yaml:"base_cost"`
	MaxPurchases int               `yaml:"max_purchases"`
	Curve        *CurveYAML        `yaml:"curve"`
	Modifiers    []ledger.Modifier `yaml:"modifiers"`
}

// GeneratorYAML represents a generator record
type GeneratorYAML struct {
	ItemYAML  `yaml:",inline"`
	BaseYield float64 `yaml:"base_yield"`
}

// UpgradeYAML represents an upgrade record
type UpgradeYAML struct {
	ItemYAML     `yaml:",inline"`
	Kind         string          `yaml:"kind"`
	Value        float64         `yaml:"value"`
	Target       string          `yaml:"target"`
	Prerequisite string          `yaml:"prerequisite"`
	Conditions   []ConditionYAML `yaml:"conditions"`
}

// CurveYAML selects and parameterises a cost curve
type CurveYAML struct {
	Kind           string          `yaml:"kind"`
	GrowthRate     float64         `yaml:"growth_rate"`
	RampThreshold  int             `yaml:"ramp_threshold"`
	RampGrowthRate float64         `yaml:"ramp_growth_rate"`
	Milestones     []MilestoneYAML `yaml:"milestones"`
}

// MilestoneYAML is a (threshold, multiplier) price jump
type MilestoneYAML struct {
	Threshold  int     `yaml:"threshold"`
	Multiplier float64 `yaml:"multiplier"`
}

// ConditionYAML is a visibility predicate
type ConditionYAML struct {
	Kind   string  `yaml:"kind"`
	Target string  `yaml:"target"`
	Count  int     `yaml:"count"`
	Yield  float64 `yaml:"yield"`
}

// DefaultCatalog returns the built-in catalog
func DefaultCatalog() (*models.Catalog, error) {
	c, err := ParseCatalog(defaultCatalog)
	if err != nil {
		return nil, fmt.Errorf("built-in catalog: %w", err)
	}
	return c, nil
}

// LoadCatalog reads a catalog file. An empty path loads the built-in catalog.
func LoadCatalog(path string) (*models.Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	c, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// ParseCatalog decodes and validates catalog data. JSON is accepted as well,
// being a subset of YAML. Every problem found is reported, not just the first.
func ParseCatalog(data []byte) (*models.Catalog, error) {
	var raw CatalogYAML
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	var errs []error

	generators := make([]*models.Generator, 0, len(raw.Generators))
	for _, g := range raw.Generators {
		curve, err := buildCurve(g.Curve, DefaultGeneratorCurve)
		if err != nil {
			errs = append(errs, fmt.Errorf("generator %s: %w", g.ID, err))
			continue
		}
		generators = append(generators, &models.Generator{
			Item:         buildItem(g.ItemYAML, curve),
			BaseYield:    g.BaseYield,
			CurrentYield: g.BaseYield,
		})
	}

	upgrades := make([]*models.Upgrade, 0, len(raw.Upgrades))
	for _, u := range raw.Upgrades {
		up, err := buildUpgrade(u)
		if err != nil {
			errs = append(errs, fmt.Errorf("upgrade %s: %w", u.ID, err))
			continue
		}
		upgrades = append(upgrades, up)
	}

	catalog := models.NewCatalog(generators, upgrades)
	if err := catalog.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return catalog, nil
}

func buildItem(raw ItemYAML, curve cost.Curve) models.Item {
	return models.Item{
		ID:           models.ItemID(raw.ID),
		Name:         raw.Name,
		Description:  raw.Description,
		Icon:         raw.Icon,
		BaseCost:     raw.BaseCost,
		Curve:        curve,
		MaxPurchases: raw.MaxPurchases,
		Modifiers:    raw.Modifiers,
	}
}

func buildUpgrade(raw UpgradeYAML) (*models.Upgrade, error) {
	curve, err := buildCurve(raw.Curve, cost.Flat{})
	if err != nil {
		return nil, err
	}

	kind, err := models.ParseUpgradeKind(raw.Kind)
	if err != nil {
		return nil, err
	}

	var effect models.Effect
	switch kind {
	case models.KindClickMultiplier:
		effect = models.ClickMultiplier{Value: raw.Value}
	case models.KindGlobalMultiplier:
		effect = models.GlobalMultiplier{Value: raw.Value}
	case models.KindGeneratorMultiplier:
		if raw.Target == "" {
			return nil, errors.New("generator_multiplier requires a target")
		}
		effect = models.GeneratorMultiplier{Target: models.ItemID(raw.Target), Value: raw.Value}
	default:
		effect = models.NoEffect{}
	}

	for _, m := range raw.Modifiers {
		switch m.Action {
		case ledger.Multiply, ledger.AddMultiplier, ledger.Add:
		default:
			return nil, fmt.Errorf("modifier %s/%s: unknown action %q", m.Target, m.Type, m.Action)
		}
	}

	conditions := make([]models.Condition, 0, len(raw.Conditions))
	for _, c := range raw.Conditions {
		conditions = append(conditions, models.Condition{
			Kind:   models.ConditionKind(c.Kind),
			Target: models.ItemID(c.Target),
			Count:  c.Count,
			Yield:  c.Yield,
		})
	}

	return &models.Upgrade{
		Item:         buildItem(raw.ItemYAML, curve),
		Effect:       effect,
		Prerequisite: models.ItemID(raw.Prerequisite),
		Conditions:   conditions,
	}, nil
}

func buildCurve(raw *CurveYAML, fallback cost.Curve) (cost.Curve, error) {
	if raw == nil {
		return fallback, nil
	}

	switch raw.Kind {
	case CurveTiered:
		t := cost.Tiered{
			GrowthRate:     raw.GrowthRate,
			RampThreshold:  raw.RampThreshold,
			RampGrowthRate: raw.RampGrowthRate,
		}
		if t.RampGrowthRate == 0 {
			t.RampGrowthRate = t.GrowthRate
		}
		for _, m := range raw.Milestones {
			t.Milestones = append(t.Milestones, cost.Milestone{Threshold: m.Threshold, Multiplier: m.Multiplier})
		}
		return t, nil
	case CurveExponential:
		return cost.Exponential{GrowthRate: raw.GrowthRate}, nil
	case CurveFlat:
		return cost.Flat{}, nil
	default:
		return nil, fmt.Errorf("unknown curve kind %q", raw.Kind)
	}
}

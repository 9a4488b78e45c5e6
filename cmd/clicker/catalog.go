package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/napolitain/clicker/internal/cost"
	"github.com/napolitain/clicker/internal/models"
)

var (
	catalogOwned int
	catalogBulk  int
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Show every generator and upgrade with its prices",
		RunE:  runCatalog,
	}
	cmd.Flags().IntVarP(&catalogOwned, "owned", "o", 0, "Price items as if this many were already owned")
	cmd.Flags().IntVarP(&catalogBulk, "bulk", "b", 10, "Quote the total price of this many more units")
	return cmd
}

func runCatalog(cmd *cobra.Command, args []string) error {
	if catalogOwned < 0 || catalogBulk < 0 {
		return fmt.Errorf("--owned and --bulk must be >= 0")
	}

	catalog, err := loadCatalog()
	if err != nil {
		return err
	}

	titleColor := color.New(color.FgCyan, color.Bold)
	infoColor := color.New(color.FgYellow)

	titleColor.Printf("\n🏭 Generators (priced at %d owned)\n", catalogOwned)
	printGenerators(catalog)

	titleColor.Printf("\n⬆️  Upgrades\n")
	printUpgrades(catalog)

	infoColor.Printf("\n📦 %d generators, %d upgrades\n", len(catalog.Generators), len(catalog.Upgrades))
	return nil
}

func printGenerators(catalog *models.Catalog) {
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"ID", "Name", "Base", "Curve", fmt.Sprintf("Cost @%d", catalogOwned), fmt.Sprintf("Next %d", catalogBulk), "Yield/s", "Limit"}),
	)

	for _, g := range catalog.Generators {
		_ = table.Append([]string{
			string(g.ID),
			g.Icon + " " + g.Name,
			formatCost(g.BaseCost),
			g.Curve.Name(),
			formatCost(cost.Price(g.Curve, g.BaseCost, catalogOwned)),
			formatBulk(g.Curve, g.BaseCost),
			fmt.Sprintf("%g", g.BaseYield),
			formatLimit(g.MaxPurchases),
		})
	}
	_ = table.Render()
}

func printUpgrades(catalog *models.Catalog) {
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"ID", "Name", "Kind", "Effect", "Cost", "Limit", "Requires"}),
	)

	for _, u := range catalog.Upgrades {
		_ = table.Append([]string{
			string(u.ID),
			u.Icon + " " + u.Name,
			u.Kind().String(),
			describeEffect(u),
			formatCost(u.Price()),
			formatLimit(u.MaxPurchases),
			describeRequirements(u),
		})
	}
	_ = table.Render()
}

func describeEffect(u *models.Upgrade) string {
	var parts []string
	switch eff := u.Effect.(type) {
	case models.ClickMultiplier:
		parts = append(parts, fmt.Sprintf("click +%gx", eff.Value))
	case models.GlobalMultiplier:
		parts = append(parts, fmt.Sprintf("all yield x%g", eff.Value))
	case models.GeneratorMultiplier:
		parts = append(parts, fmt.Sprintf("%s x%g", eff.Target, eff.Value))
	}
	for _, m := range u.Modifiers {
		parts = append(parts, fmt.Sprintf("%s.%s %s %g", m.Target, m.Type, m.Action, m.Value))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}

func describeRequirements(u *models.Upgrade) string {
	var parts []string
	if u.Prerequisite != "" {
		parts = append(parts, "maxed "+string(u.Prerequisite))
	}
	for _, c := range u.Conditions {
		switch c.Kind {
		case models.CondMinGeneratorCount:
			parts = append(parts, fmt.Sprintf("%d %s", c.Count, c.Target))
		case models.CondMaxSelfCount:
			parts = append(parts, fmt.Sprintf("owned < %d", c.Count))
		case models.CondMinTotalYield:
			parts = append(parts, fmt.Sprintf("%g/s", c.Yield))
		default:
			parts = append(parts, string(c.Kind)+"?")
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}

func formatBulk(c cost.Curve, base float64) string {
	total, err := cost.Bulk(c, base, catalogOwned, catalogBulk)
	if err != nil {
		return "n/a"
	}
	return formatCost(total)
}

func formatCost(v float64) string {
	switch {
	case v >= 1e12:
		return fmt.Sprintf("%.2fT", v/1e12)
	case v >= 1e9:
		return fmt.Sprintf("%.2fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%.2fM", v/1e6)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}

func formatLimit(n int) string {
	if n <= 0 {
		return "∞"
	}
	return fmt.Sprintf("%d", n)
}

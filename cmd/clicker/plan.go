package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/napolitain/clicker/internal/models"
	"github.com/napolitain/clicker/internal/planner"
	"github.com/napolitain/clicker/internal/storage"
)

var (
	planClicks   float64
	planSteps    int
	planTarget   float64
	planHorizon  time.Duration
	planFromSave bool
	planNextOnly bool
)

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Simulate a greedy build order",
		Long: `Simulates the game forward, always buying the item that pays for
itself soonest, and prints the resulting purchase order.`,
		RunE: runPlan,
	}
	cmd.Flags().Float64Var(&planClicks, "clicks", 5, "Simulated clicks per second")
	cmd.Flags().IntVarP(&planSteps, "steps", "s", 30, "Maximum number of purchases")
	cmd.Flags().Float64VarP(&planTarget, "target", "t", 0, "Stop once passive yield reaches this per second")
	cmd.Flags().DurationVar(&planHorizon, "horizon", time.Hour, "Maximum simulated time")
	cmd.Flags().BoolVar(&planFromSave, "from-save", false, "Start from the saved game instead of a new one")
	cmd.Flags().BoolVarP(&planNextOnly, "next", "n", false, "Show only the next purchase")
	return cmd
}

func runPlan(cmd *cobra.Command, args []string) error {
	catalog, err := loadCatalog()
	if err != nil {
		return err
	}

	ctx := context.Background()
	var start *models.Snapshot
	if planFromSave {
		start, err = loadSave(ctx)
		if err != nil {
			return err
		}
	}

	infoColor := color.New(color.FgYellow)
	successColor := color.New(color.FgGreen, color.Bold)

	infoColor.Println("🔄 Simulating...")
	p := planner.New(catalog, logger.Named("planner"))
	plan, err := p.Plan(ctx, start, planner.Options{
		StartingBalance: cfg.Game.StartingBalance,
		ClickPower:      cfg.Game.ClickPower,
		ClicksPerSecond: planClicks,
		Interval:        cfg.Game.TickInterval,
		TargetYield:     planTarget,
		MaxSteps:        planSteps,
		Horizon:         planHorizon,
	})
	if err != nil {
		return err
	}

	if planNextOnly {
		if len(plan.Steps) == 0 {
			color.Yellow("Nothing to buy: %s", plan.Reason)
			return nil
		}
		s := plan.Steps[0]
		successColor.Printf("Next: %s in %s for %s\n", s.Name, formatDuration(s.At), formatCost(s.Cost))
		return nil
	}

	printPlan(plan)

	successColor.Printf("\n✓ %d purchases over %s (%s)\n", len(plan.Steps), formatDuration(plan.Elapsed), plan.Reason)
	fmt.Printf("   Final yield: %.2f/s\n", plan.FinalYield)
	fmt.Printf("   Balance left: %s\n", formatCost(plan.Balance))
	return nil
}

func printPlan(plan *planner.Plan) {
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"#", "Time", "Item", "Cost", "Yield/s", "Click"}),
	)

	for i, s := range plan.Steps {
		_ = table.Append([]string{
			fmt.Sprintf("%d", i+1),
			formatDuration(s.At),
			s.Name,
			formatCost(s.Cost),
			fmt.Sprintf("%.2f", s.YieldAfter),
			fmt.Sprintf("%.2f", s.ClickAfter),
		})
	}
	_ = table.Render()
}

func loadSave(ctx context.Context) (*models.Snapshot, error) {
	store, err := storage.Open(cfg.Save)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	snap, err := store.Load(ctx)
	if errors.Is(err, storage.ErrNoSave) {
		return nil, fmt.Errorf("no saved game at %s", cfg.Save.Path)
	}
	return snap, err
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return d.Truncate(time.Second).String()
}

package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/napolitain/clicker/internal/config"
	"github.com/napolitain/clicker/internal/models"
	"github.com/napolitain/clicker/internal/storage"
)

func newSaveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Inspect saved games",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "inspect",
			Short: "Print the saved game",
			RunE:  runSaveInspect,
		},
		&cobra.Command{
			Use:   "slots",
			Short: "List save slots (sqlite backend)",
			RunE:  runSaveSlots,
		},
	)
	return cmd
}

func runSaveInspect(cmd *cobra.Command, args []string) error {
	snap, err := loadSave(context.Background())
	if err != nil {
		return err
	}
	if err := snap.Validate(); err != nil {
		color.Red("⚠ %v (the game would start fresh)", err)
	}

	titleColor := color.New(color.FgCyan, color.Bold)
	titleColor.Printf("\n💾 Save %s\n", snap.SaveID)
	fmt.Printf("   Saved at:      %s\n", snap.SavedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Printf("   Balance:       %.2f\n", snap.Balance.Current)
	fmt.Printf("   Total earned:  %.2f (manual %.2f, passive %.2f)\n",
		snap.Balance.TotalEarned, snap.Balance.TotalManual, snap.Balance.TotalPassive)
	fmt.Printf("   Clicks:        %d\n\n", snap.Balance.Clicks)

	printCounts(snap)
	return nil
}

func printCounts(snap *models.Snapshot) {
	ids := make([]models.ItemID, 0, len(snap.Counts))
	for id, n := range snap.Counts {
		if n != 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Item", "Owned"}),
	)
	for _, id := range ids {
		_ = table.Append([]string{string(id), fmt.Sprintf("%d", snap.Counts[id])})
	}
	_ = table.Render()
}

func runSaveSlots(cmd *cobra.Command, args []string) error {
	if cfg.Save.Backend != config.BackendSQLite {
		return fmt.Errorf("slots need the %s backend (configured: %s)", config.BackendSQLite, cfg.Save.Backend)
	}

	store, err := storage.OpenSQLite(cfg.Save.Path, cfg.Save.Slot)
	if err != nil {
		return err
	}
	defer store.Close()

	slots, err := store.Slots(context.Background())
	if err != nil {
		return err
	}

	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Slot", "Save ID", "Saved At"}),
	)
	for _, s := range slots {
		marker := ""
		if s.Slot == cfg.Save.Slot {
			marker = " *"
		}
		_ = table.Append([]string{s.Slot + marker, s.SaveID, s.SavedAt.Local().Format("2006-01-02 15:04:05")})
	}
	_ = table.Render()
	return nil
}

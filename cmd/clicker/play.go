package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/napolitain/clicker/internal/engine"
	"github.com/napolitain/clicker/internal/storage"
	"github.com/napolitain/clicker/internal/ticker"
	"github.com/napolitain/clicker/internal/tui"
)

func newPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Play in the terminal",
		RunE:  runPlay,
	}
}

func runPlay(cmd *cobra.Command, args []string) error {
	catalog, err := loadCatalog()
	if err != nil {
		return err
	}

	e := engine.New(catalog,
		engine.WithLogger(logger.Named("engine")),
		engine.WithStartingBalance(cfg.Game.StartingBalance),
		engine.WithClickPower(cfg.Game.ClickPower),
	)

	store, err := storage.Open(cfg.Save)
	if err != nil {
		return err
	}
	defer store.Close()
	if fs, ok := store.(*storage.FileStore); ok {
		logger.Info("Using save file", zap.String("path", fs.Path()))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := storage.Restore(ctx, store, e, logger.Named("storage")); err != nil {
		return err
	}

	save := func() error { return storage.SaveNow(ctx, store, e) }
	p := tea.NewProgram(tui.New(e, save, logger.Named("tui")), tea.WithAltScreen(), tea.WithContext(ctx))
	unsubscribe := tui.Forward(e, p.Send)
	defer unsubscribe()

	tk := ticker.New(e, cfg.Game.TickInterval, logger.Named("ticker"))

	g, gctx := errgroup.WithContext(ctx)
	saveCtx, stopAutosave := context.WithCancel(gctx)

	if err := tk.Start(gctx); err != nil {
		stopAutosave()
		return err
	}

	g.Go(func() error {
		return storage.Autosave(saveCtx, store, e, cfg.Save.AutosaveInterval, logger.Named("autosave"))
	})
	g.Go(func() error {
		// Stop income before the final save
		defer stopAutosave()
		defer tk.Stop()

		_, err := p.Run()
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("game screen: %w", err)
		}
		return nil
	})

	err = g.Wait()
	logger.Info("Session ended",
		zap.Float64("balance", e.Balance().Current),
		zap.Float64("yield", e.TotalYield()))
	return err
}

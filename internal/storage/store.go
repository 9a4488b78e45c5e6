// Package storage persists game snapshots and restores them into an engine.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/napolitain/clicker/internal/config"
	"github.com/napolitain/clicker/internal/models"
)

var (
	// ErrNoSave is returned by Load when nothing has been saved yet
	ErrNoSave = errors.New("no save found")
	// ErrCorruptSave is returned by Load when the stored data cannot be decoded
	ErrCorruptSave = errors.New("corrupt save data")
)

// Store reads and writes the latest snapshot
type Store interface {
	Load(ctx context.Context) (*models.Snapshot, error)
	Save(ctx context.Context, snap *models.Snapshot) error
	Close() error
}

// Snapshotter produces snapshots to save
type Snapshotter interface {
	Snapshot() *models.Snapshot
}

// Restorable accepts a loaded snapshot
type Restorable interface {
	Load(snap *models.Snapshot) error
}

// Open creates the store selected by cfg
func Open(cfg config.SaveConfig) (Store, error) {
	switch cfg.Backend {
	case config.BackendFile, "":
		return NewFileStore(cfg.Path), nil
	case config.BackendSQLite:
		return OpenSQLite(cfg.Path, cfg.Slot)
	default:
		return nil, fmt.Errorf("unknown save backend %q", cfg.Backend)
	}
}

// Restore loads the saved game into target. A missing or unreadable save
// leaves target on a fresh game and is not an error; only store failures
// are returned.
func Restore(ctx context.Context, store Store, target Restorable, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	snap, err := store.Load(ctx)
	switch {
	case errors.Is(err, ErrNoSave):
		logger.Info("No save found, starting a new game")
		return nil
	case errors.Is(err, ErrCorruptSave):
		logger.Warn("Save is unreadable, starting a new game", zap.Error(err))
		return nil
	case err != nil:
		return fmt.Errorf("load save: %w", err)
	}

	if err := target.Load(snap); err != nil {
		logger.Warn("Save rejected, starting a new game", zap.Error(err))
		return nil
	}
	logger.Info("Save restored",
		zap.String("save_id", snap.SaveID),
		zap.Time("saved_at", snap.SavedAt))
	return nil
}

// SaveNow writes the current snapshot of src
func SaveNow(ctx context.Context, store Store, src Snapshotter) error {
	if err := store.Save(ctx, src.Snapshot()); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

// Autosave saves src every interval until ctx is done, then saves once more.
// Failed saves are logged and retried on the next interval.
func Autosave(ctx context.Context, store Store, src Snapshotter, interval time.Duration, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		<-ctx.Done()
		return finalSave(store, src, logger)
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return finalSave(store, src, logger)
		case <-t.C:
			if err := SaveNow(ctx, store, src); err != nil {
				logger.Warn("Autosave failed", zap.Error(err))
				continue
			}
			logger.Debug("Autosaved")
		}
	}
}

func finalSave(store Store, src Snapshotter, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := SaveNow(ctx, store, src); err != nil {
		return err
	}
	logger.Info("Game saved")
	return nil
}

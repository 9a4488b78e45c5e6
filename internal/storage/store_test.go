package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/napolitain/clicker/internal/config"
	"github.com/napolitain/clicker/internal/engine"
	"github.com/napolitain/clicker/internal/loader"
	"github.com/napolitain/clicker/internal/models"
)

func sampleSnapshot() *models.Snapshot {
	return &models.Snapshot{
		SaveID:  "6f1c1d9e-0000-4000-8000-000000000001",
		SavedAt: time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC),
		Balance: models.BalanceState{Current: 123.45, TotalEarned: 500, TotalManual: 300, TotalPassive: 200, Clicks: 300},
		Counts:  map[models.ItemID]int{"cursor": 4, "grandma": 1, "beginners_luck": 1},
	}
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	sq, err := OpenSQLite(filepath.Join(dir, "saves.db"), "main")
	require.NoError(t, err)
	t.Cleanup(func() { sq.Close() })

	return map[string]Store{
		"file":   NewFileStore(filepath.Join(dir, "nested", "save.json")),
		"sqlite": sq,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := s.Load(ctx)
			require.ErrorIs(t, err, ErrNoSave)

			want := sampleSnapshot()
			require.NoError(t, s.Save(ctx, want))

			got, err := s.Load(ctx)
			require.NoError(t, err)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
			}

			// Saving again replaces the previous snapshot
			want.Counts["cursor"] = 9
			want.Balance.Current = 1
			require.NoError(t, s.Save(ctx, want))
			got, err = s.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, 9, got.Counts["cursor"])
			assert.Equal(t, 1.0, got.Balance.Current)
		})
	}
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "save.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewFileStore(path).Load(context.Background())
	assert.ErrorIs(t, err, ErrCorruptSave)
}

func TestFileStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(filepath.Join(dir, "save.json"))
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Save(context.Background(), sampleSnapshot()))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "save.json", entries[0].Name())
}

func TestSQLiteCorruptAndSlots(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "saves.db")

	a, err := OpenSQLite(path, "a")
	require.NoError(t, err)
	defer a.Close()
	require.NoError(t, a.Save(ctx, sampleSnapshot()))

	_, err = a.db.ExecContext(ctx, `INSERT INTO saves (slot, save_id, saved_at, data) VALUES ('b', 'x', '2026-01-01T00:00:00Z', 'garbage')`)
	require.NoError(t, err)

	b, err := OpenSQLite(path, "b")
	require.NoError(t, err)
	defer b.Close()

	_, err = b.Load(ctx)
	assert.ErrorIs(t, err, ErrCorruptSave)

	slots, err := a.Slots(ctx)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, "a", slots[0].Slot, "most recent first")
	assert.True(t, sampleSnapshot().SavedAt.Equal(slots[0].SavedAt))
	assert.Equal(t, "b", slots[1].Slot)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(config.SaveConfig{Backend: config.BackendFile, Path: filepath.Join(dir, "s.json")})
	require.NoError(t, err)
	require.IsType(t, &FileStore{}, s)
	assert.Equal(t, filepath.Join(dir, "s.json"), s.(*FileStore).Path())
	require.NoError(t, s.Close())

	s, err = Open(config.SaveConfig{Backend: config.BackendSQLite, Path: filepath.Join(dir, "s.db")})
	require.NoError(t, err)
	require.IsType(t, &SQLiteStore{}, s)
	assert.Equal(t, "default", s.(*SQLiteStore).Slot())
	require.NoError(t, s.Close())

	_, err = Open(config.SaveConfig{Backend: "cloud"})
	assert.ErrorContains(t, err, `unknown save backend "cloud"`)
}

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	c, err := loader.DefaultCatalog()
	require.NoError(t, err)
	return engine.New(c, engine.WithStartingBalance(1000), engine.WithLogger(zaptest.NewLogger(t)))
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(filepath.Join(t.TempDir(), "save.json"))

	played := newEngine(t)
	require.True(t, played.Purchase("cursor"))
	require.True(t, played.Purchase("grandma"))
	played.Click()
	require.NoError(t, SaveNow(ctx, s, played))

	fresh := newEngine(t)
	require.NoError(t, Restore(ctx, s, fresh, zaptest.NewLogger(t)))

	if diff := cmp.Diff(played.View(), fresh.View()); diff != "" {
		t.Errorf("restored view differs (-played +restored):\n%s", diff)
	}
}

func TestRestoreFallsBackToFreshGame(t *testing.T) {
	ctx := context.Background()

	t.Run("no save", func(t *testing.T) {
		e := newEngine(t)
		require.NoError(t, Restore(ctx, NewFileStore(filepath.Join(t.TempDir(), "none.json")), e, nil))
		assert.Equal(t, 1000.0, e.Balance().Current)
	})

	t.Run("corrupt save", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "save.json")
		require.NoError(t, os.WriteFile(path, []byte("]]"), 0o644))

		e := newEngine(t)
		require.NoError(t, Restore(ctx, NewFileStore(path), e, zaptest.NewLogger(t)))
		assert.Equal(t, 1000.0, e.Balance().Current)
	})

	t.Run("malformed snapshot", func(t *testing.T) {
		s := NewFileStore(filepath.Join(t.TempDir(), "save.json"))
		bad := sampleSnapshot()
		bad.Counts["cursor"] = -3
		require.NoError(t, s.Save(ctx, bad))

		e := newEngine(t)
		require.NoError(t, Restore(ctx, s, e, zaptest.NewLogger(t)))
		assert.Equal(t, 0, e.Count("cursor"))
		assert.Equal(t, 1000.0, e.Balance().Current)
	})
}

type failingStore struct{ err error }

func (f failingStore) Load(context.Context) (*models.Snapshot, error) { return nil, f.err }
func (f failingStore) Save(context.Context, *models.Snapshot) error   { return f.err }
func (f failingStore) Close() error                                   { return nil }

func TestRestoreReturnsStoreFailures(t *testing.T) {
	boom := errors.New("disk on fire")
	err := Restore(context.Background(), failingStore{err: boom}, newEngine(t), nil)
	assert.ErrorIs(t, err, boom)
}

type countingStore struct {
	mu    sync.Mutex
	saves int
	last  *models.Snapshot
}

func (c *countingStore) Load(context.Context) (*models.Snapshot, error) { return nil, ErrNoSave }
func (c *countingStore) Close() error                                   { return nil }
func (c *countingStore) Save(_ context.Context, snap *models.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saves++
	c.last = snap
	return nil
}

func (c *countingStore) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saves
}

func TestAutosave(t *testing.T) {
	s := &countingStore{}
	e := newEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Autosave(ctx, s, e, time.Millisecond, zaptest.NewLogger(t)) }()

	require.Eventually(t, func() bool { return s.count() >= 2 }, time.Second, time.Millisecond)
	before := s.count()
	cancel()

	require.NoError(t, <-done)
	assert.Greater(t, s.count(), before, "saves once more on shutdown")
}

func TestAutosaveDisabledStillSavesOnExit(t *testing.T) {
	s := &countingStore{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, Autosave(ctx, s, newEngine(t), 0, nil))
	assert.Equal(t, 1, s.count())
}

func TestAutosaveReportsFinalFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Autosave(ctx, failingStore{err: errors.New("read-only")}, newEngine(t), 0, nil)
	assert.ErrorContains(t, err, "read-only")
}

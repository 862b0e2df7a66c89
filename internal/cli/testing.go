package cli

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lfkv/epochkv/internal/checkpoint"
	"github.com/lfkv/epochkv/internal/config"
	"github.com/lfkv/epochkv/internal/kvstore"
	"github.com/lfkv/epochkv/internal/session"
	"github.com/lfkv/epochkv/pkg/epoch"
	"github.com/lfkv/epochkv/pkg/fs"
)

// newTestRuntime builds a Runtime backed by an in-memory epoch manager and
// a coordinator writing into t.TempDir(), for use by this package's own
// command tests.
func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()

	mgr, err := epoch.New(8)
	if err != nil {
		t.Fatalf("epoch.New: %v", err)
	}

	manifestPath := filepath.Join(t.TempDir(), "manifest.json")

	coord, err := checkpoint.NewCoordinator(mgr, fs.NewReal(), manifestPath, checkpoint.WithPollInterval(time.Millisecond))
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}

	t.Cleanup(func() { _ = coord.Close() })

	return &Runtime{
		Config:      config.DefaultConfig(),
		Logger:      zerolog.Nop(),
		EpochMgr:    mgr,
		Sessions:    session.NewManager(mgr, coord, zerolog.Nop()),
		Coordinator: coord,
		Store:       kvstore.NewStore(),
	}
}

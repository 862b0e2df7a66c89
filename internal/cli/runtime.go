package cli

import (
	"github.com/rs/zerolog"

	"github.com/lfkv/epochkv/internal/checkpoint"
	"github.com/lfkv/epochkv/internal/config"
	"github.com/lfkv/epochkv/internal/kvstore"
	"github.com/lfkv/epochkv/internal/session"
	"github.com/lfkv/epochkv/pkg/epoch"
)

// Runtime bundles the long-lived dependencies every command closes over.
// It is built once in main and threaded through allCommands.
type Runtime struct {
	Config  config.Config
	Sources config.Sources
	Logger  zerolog.Logger

	EpochMgr    *epoch.Manager
	Sessions    *session.Manager
	Coordinator *checkpoint.Coordinator
	Store       *kvstore.Store
}

package cli

import (
	"context"
	"errors"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/lfkv/epochkv/internal/kvstore"
)

var errRepairWALRequired = errors.New("repair: --wal is required")

// RepairCmd returns the repair command.
func RepairCmd(rt *Runtime) *Command {
	fs := flag.NewFlagSet("repair", flag.ContinueOnError)
	fs.String("wal", "", "Path to the sqlite-backed write-ahead log to replay")

	return &Command{
		Flags: fs,
		Usage: "repair --wal <path>",
		Short: "Replay a write-ahead log into the store",
		Long:  "Replay every recorded operation in the given write-ahead log into the running kvstore.Store and report the recovered key count.",
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			walPath, _ := fs.GetString("wal")

			return execRepair(ctx, o, rt, walPath)
		},
	}
}

func execRepair(ctx context.Context, o *IO, rt *Runtime, walPath string) error {
	if walPath == "" {
		walPath = rt.Config.WALPath
	}

	if walPath == "" {
		return errRepairWALRequired
	}

	wal, err := kvstore.OpenWAL(ctx, walPath)
	if err != nil {
		return err //nolint:wrapcheck // kvstore errors are already descriptive sentinels
	}
	defer func() { _ = wal.Close() }()

	sess, err := rt.Sessions.Open("repair")
	if err != nil {
		return err //nolint:wrapcheck
	}
	defer func() { _ = rt.Sessions.Close("repair") }()

	count, err := wal.Replay(ctx, rt.Store, sess)
	if err != nil {
		return err //nolint:wrapcheck
	}

	if count == 0 {
		o.WarnLLM(
			fmt.Sprintf("wal %q contains no recorded operations", walPath),
			"verify --wal points at the log written by the failed run before trusting an empty recovery",
		)
	}

	o.Printf("replayed_ops=%d\n", count)
	o.Printf("recovered_keys=%d\n", rt.Store.Len())

	return nil
}

package cli

import (
	"context"
	"errors"
	"time"

	flag "github.com/spf13/pflag"
)

const defaultCheckpointTimeout = 30 * time.Second

var errNoCoordinator = errors.New("checkpoint: no coordinator configured")

// CheckpointCmd returns the checkpoint command.
func CheckpointCmd(rt *Runtime) *Command {
	fs := flag.NewFlagSet("checkpoint", flag.ContinueOnError)
	fs.Duration("timeout", defaultCheckpointTimeout, "Maximum time to wait for the flush phase to complete")

	return &Command{
		Flags: fs,
		Usage: "checkpoint [flags]",
		Short: "Run one checkpoint cycle",
		Long:  "Run the begin/flush/commit checkpoint protocol once and report the resulting manifest.",
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			timeout, _ := fs.GetDuration("timeout")

			return execCheckpoint(ctx, o, rt, timeout)
		},
	}
}

func execCheckpoint(ctx context.Context, o *IO, rt *Runtime, timeout time.Duration) error {
	if rt.Coordinator == nil {
		return errNoCoordinator
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	manifest, err := rt.Coordinator.RunCheckpoint(ctx)
	if err != nil {
		return err //nolint:wrapcheck // checkpoint errors are already descriptive sentinels
	}

	o.Printf("generation=%d\n", manifest.Generation)
	o.Printf("epoch=%d\n", manifest.Epoch)
	o.Printf("manifest=%s\n", rt.Coordinator.ManifestPath())

	return nil
}

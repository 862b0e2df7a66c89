package cli

import (
	"context"
	"errors"
	"time"

	flag "github.com/spf13/pflag"
)

var errBumpWaitTimedOut = errors.New("bump: timed out waiting for safe-to-reclaim epoch to catch up")

const defaultBumpWaitTimeout = 5 * time.Second

// BumpCmd returns the bump command.
func BumpCmd(rt *Runtime) *Command {
	fs := flag.NewFlagSet("bump", flag.ContinueOnError)
	fs.Bool("wait", false, "Block until the pre-bump epoch becomes safe to reclaim")
	fs.Duration("timeout", defaultBumpWaitTimeout, "Maximum time to wait with --wait")

	return &Command{
		Flags: fs,
		Usage: "bump [flags]",
		Short: "Increment the global epoch",
		Long:  "Increment the global epoch and, with --wait, block until the epoch before the bump becomes safe to reclaim.",
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			wait, _ := fs.GetBool("wait")
			timeout, _ := fs.GetDuration("timeout")

			return execBump(ctx, o, rt, wait, timeout)
		},
	}
}

func execBump(ctx context.Context, o *IO, rt *Runtime, wait bool, timeout time.Duration) error {
	next := rt.EpochMgr.BumpCurrentEpoch()
	o.Printf("epoch=%d\n", next)

	if !wait {
		return nil
	}

	deadline := time.Now().Add(timeout)

	for rt.EpochMgr.SafeToReclaimEpoch() < next-1 {
		if time.Now().After(deadline) {
			return errBumpWaitTimedOut
		}

		select {
		case <-ctx.Done():
			return ctx.Err() //nolint:wrapcheck // context error is self-explanatory at the CLI boundary
		case <-time.After(5 * time.Millisecond):
		}
	}

	o.Printf("safe_to_reclaim_epoch=%d\n", rt.EpochMgr.SafeToReclaimEpoch())

	return nil
}

package cli

import (
	"context"
	"time"

	flag "github.com/spf13/pflag"
)

const defaultWatchInterval = time.Second

// WatchCmd returns the watch command.
func WatchCmd(rt *Runtime) *Command {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.Duration("interval", defaultWatchInterval, "Poll interval")
	fs.Bool("json", false, "Output each poll as JSON")

	return &Command{
		Flags: fs,
		Usage: "watch [flags]",
		Short: "Poll status on an interval",
		Long:  "Poll status repeatedly until interrupted (SIGINT/SIGTERM) or the context is canceled.",
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			interval, _ := fs.GetDuration("interval")
			asJSON, _ := fs.GetBool("json")

			return execWatch(ctx, o, rt, interval, asJSON)
		},
	}
}

func execWatch(ctx context.Context, o *IO, rt *Runtime, interval time.Duration, asJSON bool) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := printStatusReport(o, buildStatusReport(rt), asJSON); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := printStatusReport(o, buildStatusReport(rt), asJSON); err != nil {
				return err
			}
		}
	}
}

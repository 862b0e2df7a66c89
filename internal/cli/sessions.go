package cli

import (
	"context"
	"sort"

	flag "github.com/spf13/pflag"
)

// SessionsCmd returns the sessions command.
func SessionsCmd(rt *Runtime) *Command {
	return &Command{
		Flags: flag.NewFlagSet("sessions", flag.ContinueOnError),
		Usage: "sessions",
		Short: "List open sessions",
		Long:  "List the ids of every session currently open against the in-process session manager.",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			return execSessions(o, rt)
		},
	}
}

func execSessions(o *IO, rt *Runtime) error {
	ids := rt.Sessions.List()
	sort.Strings(ids)

	if len(ids) == 0 {
		o.Println("(no open sessions)")
		return nil
	}

	for _, id := range ids {
		o.Println(id)
	}

	return nil
}

package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestWatchCmd_PollsUntilCanceled(t *testing.T) {
	t.Parallel()

	rt := newTestRuntime(t)
	cmd := WatchCmd(rt)

	var stdout, stderr bytes.Buffer
	io := NewIO(&stdout, &stderr)

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Millisecond)
	defer cancel()

	if code := cmd.Run(ctx, io, []string{"--interval", "5ms"}); code != 0 {
		t.Fatalf("exit code = %d, want 0, stderr = %q", code, stderr.String())
	}

	out := stdout.String()
	if !strings.Contains(out, "current_epoch=") {
		t.Fatalf("stdout = %q, want at least one status poll", out)
	}

	// It should have polled more than once within the 25ms window at a 5ms
	// interval (one immediate print plus ticks).
	if strings.Count(out, "current_epoch=") < 2 {
		t.Fatalf("stdout = %q, want multiple polls", out)
	}
}

package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestCheckpointCmd_SoloCompletesImmediately(t *testing.T) {
	t.Parallel()

	rt := newTestRuntime(t)
	cmd := CheckpointCmd(rt)

	var stdout, stderr bytes.Buffer
	io := NewIO(&stdout, &stderr)

	if code := cmd.Run(t.Context(), io, []string{"--timeout", "1s"}); code != 0 {
		t.Fatalf("exit code = %d, want 0, stderr = %q", code, stderr.String())
	}

	out := stdout.String()
	if !strings.Contains(out, "generation=1") {
		t.Errorf("stdout missing generation=1: %q", out)
	}

	if !strings.Contains(out, "manifest=") {
		t.Errorf("stdout missing manifest= line: %q", out)
	}
}

func TestCheckpointCmd_NoCoordinator(t *testing.T) {
	t.Parallel()

	rt := newTestRuntime(t)
	rt.Coordinator = nil

	cmd := CheckpointCmd(rt)

	var stdout, stderr bytes.Buffer
	io := NewIO(&stdout, &stderr)

	if code := cmd.Run(t.Context(), io, nil); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}

	if !strings.Contains(stderr.String(), "no coordinator configured") {
		t.Fatalf("stderr = %q, want to mention no coordinator configured", stderr.String())
	}
}

package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestSessionsCmd_Empty(t *testing.T) {
	t.Parallel()

	rt := newTestRuntime(t)
	cmd := SessionsCmd(rt)

	var stdout, stderr bytes.Buffer
	io := NewIO(&stdout, &stderr)

	if code := cmd.Run(t.Context(), io, nil); code != 0 {
		t.Fatalf("exit code = %d, want 0, stderr = %q", code, stderr.String())
	}

	if !strings.Contains(stdout.String(), "no open sessions") {
		t.Fatalf("stdout = %q, want to mention no open sessions", stdout.String())
	}
}

func TestSessionsCmd_ListsOpenSessions(t *testing.T) {
	t.Parallel()

	rt := newTestRuntime(t)

	s1, err := rt.Sessions.Open("alpha")
	if err != nil {
		t.Fatalf("Open alpha: %v", err)
	}
	defer func() { _ = s1.Close() }()

	s2, err := rt.Sessions.Open("beta")
	if err != nil {
		t.Fatalf("Open beta: %v", err)
	}
	defer func() { _ = s2.Close() }()

	cmd := SessionsCmd(rt)

	var stdout, stderr bytes.Buffer
	io := NewIO(&stdout, &stderr)

	if code := cmd.Run(t.Context(), io, nil); code != 0 {
		t.Fatalf("exit code = %d, want 0, stderr = %q", code, stderr.String())
	}

	out := stdout.String()
	if !strings.Contains(out, "alpha") || !strings.Contains(out, "beta") {
		t.Fatalf("stdout = %q, want alpha and beta listed", out)
	}
}

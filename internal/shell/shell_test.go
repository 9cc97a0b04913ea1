package shell

import (
	"context"
	"runtime"
	"strings"
	"testing"
)

func TestRun(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix shell only")
	}
	t.Setenv("SHELL", "/bin/sh")

	res, err := Run(context.Background(), "echo hi")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if strings.TrimSpace(res.Stdout) != "hi" {
		t.Fatalf("stdout = %q", res.Stdout)
	}

	res, err = Run(context.Background(), "echo oops >&2; exit 3")
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if res.ExitCode != 3 || strings.TrimSpace(res.Stderr) != "oops" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestRun_Empty(t *testing.T) {
	if _, err := Run(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty command")
	}
}

func TestCommand_RelativeShellFallsBack(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix shell only")
	}
	t.Setenv("SHELL", "zsh")
	cmd := Command(context.Background(), "true")
	if cmd.Path != "/bin/sh" && !strings.HasSuffix(cmd.Path, "/sh") {
		t.Fatalf("expected /bin/sh, got %s", cmd.Path)
	}
}

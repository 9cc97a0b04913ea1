// Package shell runs generated commands through the user's shell.
package shell

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Command builds the invocation for command on the current platform.
func Command(ctx context.Context, command string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		if os.Getenv("PSModulePath") != "" {
			return exec.CommandContext(ctx, "powershell", "-NoProfile", "-Command", command)
		}
		return exec.CommandContext(ctx, "cmd", "/C", command)
	}
	sh := os.Getenv("SHELL")
	if sh == "" || !filepath.IsAbs(sh) {
		sh = "/bin/sh"
	}
	return exec.CommandContext(ctx, sh, "-c", command)
}

// Run executes command and captures its output. A non-zero exit is reported
// in Result.ExitCode together with the returned *exec.ExitError.
func Run(ctx context.Context, command string) (Result, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return Result{}, errors.New("empty command")
	}
	cmd := Command(ctx, command)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Stdin = os.Stdin

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
	}
	return res, err
}

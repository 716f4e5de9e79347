// Package executor runs external tools such as ffmpeg and whisper.cpp.
package executor

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Executor runs a command and returns its stdout
type Executor interface {
	Execute(ctx context.Context, name string, args ...string) (string, error)
}

// Command is the os/exec backed Executor
type Command struct {
	// Dir is the working directory; empty means the current one
	Dir string
}

// New returns an Executor running in the current directory
func New() *Command {
	return &Command{}
}

// Execute runs name with args. The command is killed when ctx is done.
// stderr is folded into the error on failure.
func (c *Command) Execute(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = c.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s failed: %w\nstderr: %s", name, err, lastLines(msg, 5))
		}
		return "", fmt.Errorf("%s failed: %w", name, err)
	}
	return stdout.String(), nil
}

// LookPath reports whether name is on PATH
func LookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func lastLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

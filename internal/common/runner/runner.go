package runner

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"

	"media-pipeline/internal/common/logger"
)

// Runner executes external engine binaries. Tests substitute a stub.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// Exec runs commands with os/exec, killing them when ctx is done or the
// per-call timeout elapses.
type Exec struct {
	logger  logger.Logger
	timeout time.Duration
}

func NewExec(log logger.Logger) *Exec {
	return &Exec{logger: log}
}

// WithTimeout bounds every Run call. Zero disables the bound.
func (e *Exec) WithTimeout(d time.Duration) *Exec {
	return &Exec{logger: e.logger, timeout: d}
}

func (e *Exec) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	dur := time.Since(start)

	if err != nil {
		e.logger.Error("exec failed", map[string]interface{}{
			"cmd":         name,
			"args":        strings.Join(args, " "),
			"duration_ms": dur.Milliseconds(),
			"error":       err.Error(),
			"stderr":      Truncate(errb.String(), 8<<10),
		})
		return out.Bytes(), errb.Bytes(), &ExitError{Name: name, Err: err, Stderr: Truncate(strings.TrimSpace(errb.String()), 512)}
	}

	e.logger.Debug("exec ok", map[string]interface{}{
		"cmd":          name,
		"args":         strings.Join(args, " "),
		"duration_ms":  dur.Milliseconds(),
		"stdout_bytes": out.Len(),
		"stderr_bytes": errb.Len(),
	})
	return out.Bytes(), errb.Bytes(), nil
}

// ExitError carries the tail of stderr alongside the process error.
type ExitError struct {
	Name   string
	Err    error
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Name, e.Err, e.Stderr)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Truncate caps s at max bytes without splitting a UTF-8 sequence.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max] + "...(truncated)"
}

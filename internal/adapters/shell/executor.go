// Package shell runs compilers, linkers and hook commands as external processes.
package shell

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/creack/pty"
	"go.trai.ch/zen/internal/core/domain"
	"go.trai.ch/zen/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Executor = (*Executor)(nil)

// Executor implements ports.Executor using os/exec. Commands that ask for a TTY
// run attached to a pseudo-terminal so tools keep their colored output.
type Executor struct{}

// NewExecutor creates a new Executor.
func NewExecutor() *Executor {
	return &Executor{}
}

// Execute runs cmd and blocks until it exits.
func (e *Executor) Execute(ctx context.Context, cmd *domain.Command, stdout, stderr io.Writer) error {
	if cmd == nil || cmd.Name == "" {
		return nil
	}
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	proc := build(ctx, cmd)

	var err error
	if cmd.TTY {
		err = runPTY(proc, stdout)
		if errors.Is(err, errNoPTY) {
			proc = build(ctx, cmd)
			err = runPipes(proc, stdout, stderr)
		}
	} else {
		err = runPipes(proc, stdout, stderr)
	}

	if err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return zerr.With(zerr.With(zerr.Wrap(err, "command failed"), "exit_code", exitCode), "command", cmd.Name)
	}
	return nil
}

var errNoPTY = errors.New("pseudo-terminal unavailable")

func build(ctx context.Context, cmd *domain.Command) *exec.Cmd {
	env := mergeEnvironment(os.Environ(), cmd.Env)

	executable := cmd.Name
	if !filepath.IsAbs(executable) && !strings.ContainsRune(executable, filepath.Separator) {
		if lp, err := lookPath(executable, env); err == nil {
			executable = lp
		}
	}

	proc := exec.CommandContext(ctx, executable, cmd.Args...) //nolint:gosec // commands come from the build file
	if len(proc.Args) > 0 {
		proc.Args[0] = cmd.Name
	}
	proc.Dir = cmd.Dir
	proc.Env = env
	return proc
}

func runPipes(proc *exec.Cmd, stdout, stderr io.Writer) error {
	proc.Stdout = stdout
	proc.Stderr = stderr
	return proc.Run()
}

// runPTY merges both streams into stdout, as a terminal would.
func runPTY(proc *exec.Cmd, stdout io.Writer) error {
	ptmx, err := pty.Start(proc)
	if err != nil {
		if proc.Process == nil {
			return errNoPTY
		}
		return zerr.Wrap(err, "failed to start pty")
	}

	ioDone := make(chan struct{})
	go func() {
		defer close(ioDone)
		// EIO is returned once the child closes its side.
		_, _ = io.Copy(&crlfWriter{w: stdout}, ptmx)
	}()

	err = proc.Wait()
	<-ioDone
	_ = ptmx.Close()
	return err
}

// crlfWriter turns the "\r\n" line endings a pty produces back into "\n".
type crlfWriter struct {
	w io.Writer
}

func (c *crlfWriter) Write(p []byte) (int, error) {
	if _, err := c.w.Write([]byte(strings.ReplaceAll(string(p), "\r\n", "\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}

// mergeEnvironment appends extra to base; later entries win for duplicate keys.
func mergeEnvironment(base, extra []string) []string {
	if len(extra) == 0 {
		return base
	}

	index := make(map[string]int, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, entry := range append(base[:len(base):len(base)], extra...) {
		key, _, _ := strings.Cut(entry, "=")
		if i, ok := index[key]; ok {
			out[i] = entry
			continue
		}
		index[key] = len(out)
		out = append(out, entry)
	}
	return out
}

// lookPath searches for an executable in the PATH found in env.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if v, ok := strings.CutPrefix(e, "PATH="); ok {
			path = v
		}
	}
	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if err := findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}

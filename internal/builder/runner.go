package builder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// Command describes one invocation of an external tool. Exactly one of
// Args or Script is set.
type Command struct {
	Dir    string
	Env    []string
	Args   []string
	Script string
}

// String returns a printable form of the command
func (c Command) String() string {
	if c.Script != "" {
		return strings.TrimSpace(c.Script)
	}
	return strings.Join(c.Args, " ")
}

// Result holds the outcome of a command
type Result struct {
	ExitCode int
	Output   string
}

// Runner executes commands
type Runner interface {
	// Run executes cmd and waits for it. A non-zero exit status is reported
	// through Result; the error is for failures to run at all.
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// ExecRunner runs commands through an embedded POSIX shell interpreter,
// falling back to system binaries for anything that is not a builtin.
type ExecRunner struct {
	// Stdout receives a copy of the command output. When nil, output is
	// logged line by line at debug level.
	Stdout io.Writer
}

// NewExecRunner creates a new shell-backed runner
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run implements Runner
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	src, err := cmd.source()
	if err != nil {
		return nil, err
	}

	prog, err := syntax.NewParser(syntax.Variant(syntax.LangBash)).Parse(strings.NewReader(src), "command")
	if err != nil {
		return nil, fmt.Errorf("failed to parse command: %w", err)
	}

	var out bytes.Buffer
	writers := []io.Writer{&out}
	if r.Stdout != nil {
		writers = append(writers, r.Stdout)
	} else {
		logw := &logWriter{logger: logrus.StandardLogger(), level: logrus.DebugLevel}
		defer logw.Flush()
		writers = append(writers, logw)
	}
	w := io.MultiWriter(writers...)

	opts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(cmd.Env...)),
		interp.StdIO(nil, w, w),
	}
	if cmd.Dir != "" {
		opts = append(opts, interp.Dir(cmd.Dir))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create interpreter: %w", err)
	}

	logrus.Debugf("Running: %s (in %s)", cmd, cmd.Dir)

	err = runner.Run(ctx, prog)
	if err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			return &Result{ExitCode: int(exitStatus), Output: out.String()}, nil
		}
		return nil, fmt.Errorf("command execution failed: %w", err)
	}

	return &Result{ExitCode: 0, Output: out.String()}, nil
}

func (c Command) source() (string, error) {
	if c.Script != "" {
		return c.Script, nil
	}
	if len(c.Args) == 0 {
		return "", fmt.Errorf("empty command")
	}

	quoted := make([]string, 0, len(c.Args))
	for _, arg := range c.Args {
		q, err := syntax.Quote(arg, syntax.LangBash)
		if err != nil {
			return "", fmt.Errorf("cannot quote argument %q: %w", arg, err)
		}
		quoted = append(quoted, q)
	}
	return strings.Join(quoted, " "), nil
}

// logWriter logs each complete line written to it. Unlike
// logrus.Logger.WriterLevel it logs synchronously, so every line has been
// emitted once Flush returns.
type logWriter struct {
	logger *logrus.Logger
	level  logrus.Level

	mu  sync.Mutex
	buf []byte
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.logger.Log(w.level, string(w.buf[:i]))
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}

// Flush logs a trailing line that has no newline
func (w *logWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.buf) > 0 {
		w.logger.Log(w.level, string(w.buf))
		w.buf = nil
	}
}

package docconv

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/ggondim/simple-service-doc-converter/internal/process"
)

// DefaultConverterBinary is resolved via PATH when no explicit path is
// configured.
const DefaultConverterBinary = "soffice"

// DefaultTerminationGrace is how long a signalled converter gets to
// exit on its own before the process group is force-killed.
const DefaultTerminationGrace = 2 * time.Second

// captureLimit caps how much of each subprocess stream is retained.
// LibreOffice is chatty on ill-formed documents; capture stays bounded
// while the head of the output survives for diagnostics.
const captureLimit = 64 << 10

// Invoker runs the external converter subprocess against a staged
// input file. The sole success signal is a readable artifact at the
// expected output path: non-zero exit codes and stderr noise alone are
// benign, the converter is known to warn loudly while succeeding.
type Invoker struct {
	// Binary is the converter executable. Empty selects
	// DefaultConverterBinary from PATH.
	Binary string

	// Grace is the window between the graceful termination signal and
	// the forced kill. Zero selects DefaultTerminationGrace.
	Grace time.Duration

	// Echo mirrors subprocess output to this process's streams for
	// live diagnostics.
	Echo bool

	log *zap.Logger
}

// NewInvoker creates an Invoker logging through log (nil means silent).
func NewInvoker(binary string, log *zap.Logger) *Invoker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Invoker{Binary: binary, log: log}
}

// Convert stages a run of the external converter for ws's input file
// and classifies the result.
//
// Returns a success Outcome (on-disk when keepOnDisk, buffered
// otherwise), a failure Outcome carrying captured diagnostics when no
// artifact was produced, or an error when the subprocess could not be
// spawned or an existing artifact could not be read.
//
// Cancellation of ctx escalates: graceful signal, grace window, forced
// kill of the process group. Convert does not return until the
// subprocess has fully exited.
func (inv *Invoker) Convert(ctx context.Context, ws *Workspace, from, to string, keepOnDisk bool) (*Outcome, error) {
	inputPath := ws.InputPath(from)

	binary := inv.Binary
	if binary == "" {
		binary = DefaultConverterBinary
	}

	// Isolated profile dir per workspace avoids LibreOffice lock
	// contention between concurrent instances.
	profileDir := filepath.Join(ws.Dir, ".profile")
	if err := os.MkdirAll(profileDir, 0o700); err != nil {
		return nil, fmt.Errorf("%w: preparing profile dir: %v", ErrConversion, err)
	}

	args := []string{
		"-env:UserInstallation=file://" + profileDir,
		"--headless",
		"--convert-to", to,
		"--outdir", ws.Dir,
		inputPath,
	}

	stdout := &cappedBuffer{limit: captureLimit}
	stderr := &cappedBuffer{limit: captureLimit}

	cmd := exec.Command(binary, args...) // #nosec G204 -- binary and formats validated upstream
	cmd.SysProcAttr = process.GroupAttr()
	cmd.Stdout = io.Writer(stdout)
	cmd.Stderr = io.Writer(stderr)
	if inv.Echo {
		cmd.Stdout = io.MultiWriter(stdout, os.Stdout)
		cmd.Stderr = io.MultiWriter(stderr, os.Stderr)
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: starting %s: %v", ErrConversion, binary, err)
	}

	signal := inv.supervise(ctx, cmd)

	diag := Diagnostics{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: cmd.ProcessState.ExitCode(),
		Signal:   signal,
	}

	inv.log.Debug("converter exited",
		zap.String("binary", binary),
		zap.String("from", from),
		zap.String("to", to),
		zap.Int("exit_code", diag.ExitCode),
		zap.String("signal", signal),
		zap.Duration("elapsed", time.Since(start)),
	)

	outputPath, ok := findArtifact(ws, inputPath, to)
	if !ok {
		return &Outcome{Failure: &diag}, nil
	}

	if keepOnDisk {
		return &Outcome{Path: outputPath}, nil
	}

	data, err := os.ReadFile(outputPath) // #nosec G304 -- path confined to the workspace
	if err != nil {
		return nil, NewConversionError(diag, fmt.Errorf("reading artifact: %w", err))
	}
	return &Outcome{Bytes: data}, nil
}

// Subprocess lifecycle states for escalated termination.
type procState int

const (
	procRunning procState = iota
	procTerminating
	procKilled
	procExited
)

// supervise blocks until cmd exits, driving the termination state
// machine on cancellation: Running -> Terminating (graceful signal) ->
// Killed (after the grace window) or Exited at any point. Returns a
// short tag describing which signal, if any, ended the process.
func (inv *Invoker) supervise(ctx context.Context, cmd *exec.Cmd) string {
	grace := inv.Grace
	if grace <= 0 {
		grace = DefaultTerminationGrace
	}

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	state := procRunning
	pid := cmd.Process.Pid

	for {
		switch state {
		case procRunning:
			select {
			case <-waitCh:
				return ""
			case <-ctx.Done():
				process.Terminate(pid)
				state = procTerminating
			}
		case procTerminating:
			timer := time.NewTimer(grace)
			select {
			case <-waitCh:
				timer.Stop()
				return "terminated"
			case <-timer.C:
				process.KillProcessGroup(pid)
				state = procKilled
			}
		case procKilled:
			<-waitCh
			return "killed"
		}
	}
}

// findArtifact locates the converter's output. The exact expected path
// is tried first; the converter occasionally normalizes file names, so
// a workspace glob for the target extension is the fallback, skipping
// the staged input.
func findArtifact(ws *Workspace, inputPath, to string) (string, bool) {
	expected := ws.OutputPath(to)
	if fileExists(expected) && expected != inputPath {
		return expected, true
	}

	matches, err := filepath.Glob(filepath.Join(ws.Dir, "*."+to))
	if err != nil {
		return "", false
	}
	for _, m := range matches {
		if m != inputPath && fileExists(m) {
			return m, true
		}
	}
	return "", false
}

// fileExists reports whether path is an existing regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// cappedBuffer retains up to limit bytes of a subprocess stream,
// accepting and discarding the rest so capture memory stays bounded.
type cappedBuffer struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	room := b.limit - b.buf.Len()
	switch {
	case room >= len(p):
		b.buf.Write(p)
	case room > 0:
		b.buf.Write(p[:room])
		b.truncated = true
	default:
		b.truncated = true
	}
	return len(p), nil
}

func (b *cappedBuffer) String() string {
	if b.truncated {
		return b.buf.String() + "\n...[truncated]"
	}
	return b.buf.String()
}

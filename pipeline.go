package docconv

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// DefaultBufferLimit decides buffered vs on-disk artifact handling:
// requests whose staged input is at most this size get buffered
// artifacts, larger ones keep the artifact in the workspace and stream
// it. Keeps small conversions cheap without risking large payloads in
// memory.
const DefaultBufferLimit = 10 << 20

// upstreamBodyLimit caps how much of a forward-upload destination's
// response body is relayed to the caller.
const upstreamBodyLimit = 64 << 10

// PipelineConfig wires a Pipeline's collaborators. Zero values select
// sane defaults everywhere except Engines, which is required.
type PipelineConfig struct {
	Engines *Router

	Limiter   *Limiter
	Remote    *RemoteClient
	Telemetry Sink
	Logger    *zap.Logger

	// TempDir overrides workspace placement. Empty selects the
	// preferred fast directory with a system temp fallback.
	TempDir string

	// OperationTimeout is the uniform per-stage deadline applied to
	// staging, conversion, and forwarding alike.
	OperationTimeout time.Duration

	// BufferLimit is the staged-input size above which artifacts stay
	// on disk.
	BufferLimit int64
}

// Pipeline orchestrates one conversion request end to end: admission,
// staging, conversion, dispatch, and exactly-once workspace cleanup.
type Pipeline struct {
	engines     *Router
	limiter     *Limiter
	remote      *RemoteClient
	telemetry   Sink
	log         *zap.Logger
	tempDir     string
	opTimeout   time.Duration
	bufferLimit int64
}

// NewPipeline builds a Pipeline from cfg, filling defaults.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	if cfg.Engines == nil {
		panic("docconv: PipelineConfig.Engines is required")
	}
	p := &Pipeline{
		engines:     cfg.Engines,
		limiter:     cfg.Limiter,
		remote:      cfg.Remote,
		telemetry:   cfg.Telemetry,
		log:         cfg.Logger,
		tempDir:     cfg.TempDir,
		opTimeout:   cfg.OperationTimeout,
		bufferLimit: cfg.BufferLimit,
	}
	if p.limiter == nil {
		p.limiter = NewLimiter(DefaultLimiterCapacity)
	}
	if p.remote == nil {
		p.remote = NewRemoteClient(nil)
	}
	if p.telemetry == nil {
		p.telemetry = NopSink{}
	}
	if p.log == nil {
		p.log = zap.NewNop()
	}
	if p.opTimeout <= 0 {
		p.opTimeout = DefaultOperationTimeout
	}
	if p.bufferLimit <= 0 {
		p.bufferLimit = DefaultBufferLimit
	}
	return p
}

// Limiter exposes the admission limiter for health reporting.
func (p *Pipeline) Limiter() *Limiter { return p.limiter }

// Process runs one conversion request through the full state flow:
// validation, admission, input staging, conversion under a linked
// deadline, output dispatch, and workspace cleanup on every path.
//
// The returned Response body, when non-nil, must be closed by the
// caller; for on-disk artifacts that close is what releases the
// workspace.
func (p *Pipeline) Process(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()
	p.telemetry.Count(MetricRequestsReceived, 1)
	p.telemetry.GaugeAdd(MetricInFlight, 1)
	defer func() {
		p.telemetry.GaugeAdd(MetricInFlight, -1)
		p.telemetry.Observe(MetricRequestSeconds, time.Since(start).Seconds())
	}()

	// Required-field validation happens before any resource is
	// acquired: a bad request never creates a workspace.
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if err := p.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	slotHeld := true
	defer func() {
		if slotHeld {
			p.limiter.Release()
		}
	}()

	ws, err := NewWorkspace(p.tempDir, p.log)
	if err != nil {
		return nil, fmt.Errorf("creating workspace: %w", err)
	}
	// The workspace is destroyed here unless dispatch hands ownership
	// to the response body.
	handedOff := false
	defer func() {
		if !handedOff {
			ws.Destroy()
		}
	}()

	staged, err := p.stageInput(ctx, ws, req)
	if err != nil {
		return nil, err
	}
	keepOnDisk := staged > p.bufferLimit

	outcome, err := p.convert(ctx, ws, req, keepOnDisk)

	// The subprocess has fully exited either way; free the slot before
	// any output dispatch so slow transfers don't starve admission.
	p.limiter.Release()
	slotHeld = false

	if err != nil {
		p.telemetry.Count(MetricConversionFailure, 1)
		return nil, err
	}
	if outcome.Failed() {
		p.telemetry.Count(MetricConversionFailure, 1)
		p.log.Warn("conversion produced no artifact",
			zap.String("from", req.From),
			zap.String("to", req.To),
			zap.Int("exit_code", outcome.Failure.ExitCode),
		)
		return nil, NewConversionError(*outcome.Failure, nil)
	}
	p.telemetry.Count(MetricConversionSuccess, 1)

	resp, handed, err := p.dispatch(ctx, ws, req, outcome)
	handedOff = handed
	return resp, err
}

// stageInput copies the request's input bytes into the workspace under
// the uniform deadline, from either the inline upload stream or a
// remote fetch.
func (p *Pipeline) stageInput(ctx context.Context, ws *Workspace, req *Request) (int64, error) {
	inputPath := ws.InputPath(req.From)

	var staged int64
	err := WithDeadline(ctx, p.opTimeout, func(sctx context.Context) error {
		if req.Upload != nil {
			n, serr := StageToFile(sctx, inputPath, req.Upload)
			staged = n
			if serr != nil {
				return fmt.Errorf("%w: %v", ErrStaging, serr)
			}
			return nil
		}
		n, serr := p.remote.FetchToFile(sctx, req.DownloadURL, inputPath)
		staged = n
		return serr
	})
	if err != nil {
		return staged, err
	}

	p.log.Debug("input staged",
		zap.String("path", inputPath),
		zap.Int64("bytes", staged),
	)
	return staged, nil
}

// convert runs the routed engine under a fresh deadline scope linked
// to the caller's cancellation and records the conversion duration.
func (p *Pipeline) convert(ctx context.Context, ws *Workspace, req *Request, keepOnDisk bool) (*Outcome, error) {
	engine := p.engines.Route(req.From, req.To)

	var outcome *Outcome
	start := time.Now()
	err := WithDeadline(ctx, p.opTimeout, func(cctx context.Context) error {
		o, cerr := engine.Convert(cctx, ws, req.From, req.To, keepOnDisk)
		outcome = o
		return cerr
	})
	p.telemetry.Observe(MetricConversionSeconds, time.Since(start).Seconds())

	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// dispatch branches on output mode and outcome shape. Returns handed
// true when workspace ownership moved into the response body.
func (p *Pipeline) dispatch(ctx context.Context, ws *Workspace, req *Request, outcome *Outcome) (*Response, bool, error) {
	filename := AttachmentFilename(req.Filename, req.To)
	contentType := ContentTypeFor(req.To)
	disposition := ContentDisposition(filename)

	switch {
	case req.Stream && outcome.OnDisk():
		// Begin the response immediately; closing the body ends the
		// stream and is the cleanup trigger.
		f, err := os.Open(outcome.Path) // #nosec G304 -- path confined to the workspace
		if err != nil {
			return nil, false, NewConversionError(Diagnostics{}, fmt.Errorf("opening artifact: %w", err))
		}
		info, err := f.Stat()
		if err != nil {
			_ = f.Close()
			return nil, false, NewConversionError(Diagnostics{}, fmt.Errorf("sizing artifact: %w", err))
		}

		header := artifactHeader(contentType, disposition, info.Size())
		return &Response{
			Status: http.StatusOK,
			Header: header,
			Body:   ws.ReleaseOnClose(f),
		}, true, nil

	case req.Stream:
		// Buffered artifact: the deferred cleanup destroys the
		// workspace before the caller sees the response.
		header := artifactHeader(contentType, disposition, int64(len(outcome.Bytes)))
		return &Response{
			Status: http.StatusOK,
			Header: header,
			Body:   io.NopCloser(bytes.NewReader(outcome.Bytes)),
		}, false, nil

	case outcome.OnDisk():
		f, err := os.Open(outcome.Path) // #nosec G304 -- path confined to the workspace
		if err != nil {
			return nil, false, NewConversionError(Diagnostics{}, fmt.Errorf("opening artifact: %w", err))
		}
		info, err := f.Stat()
		if err != nil {
			_ = f.Close()
			return nil, false, NewConversionError(Diagnostics{}, fmt.Errorf("sizing artifact: %w", err))
		}
		resp, err := p.forward(ctx, req.UploadURL, f, info.Size(), contentType, disposition)
		_ = f.Close()
		return resp, false, err

	default:
		resp, err := p.forward(ctx, req.UploadURL,
			bytes.NewReader(outcome.Bytes), int64(len(outcome.Bytes)), contentType, disposition)
		return resp, false, err
	}
}

// forward PUTs the artifact to the caller-supplied destination under a
// deadline scope and relays the destination's status plus the filtered
// header subset. The upstream body is read inside the scope because
// its lifetime is tied to the outbound request.
func (p *Pipeline) forward(ctx context.Context, url string, body io.Reader, size int64, contentType, disposition string) (*Response, error) {
	var status int
	var header http.Header
	var relayed []byte

	err := WithDeadline(ctx, p.opTimeout, func(fctx context.Context) error {
		resp, ferr := p.remote.Put(fctx, url, body, size, contentType, disposition)
		if ferr != nil {
			return ferr
		}
		defer resp.Body.Close()

		data, rerr := io.ReadAll(io.LimitReader(resp.Body, upstreamBodyLimit))
		if rerr != nil {
			return fmt.Errorf("%w: reading destination response: %v", ErrUploadForward, rerr)
		}
		status = resp.StatusCode
		header = FilteredHeader(resp.Header)
		relayed = data
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Response{
		Status: status,
		Header: header,
		Body:   io.NopCloser(bytes.NewReader(relayed)),
	}, nil
}

func artifactHeader(contentType, disposition string, size int64) http.Header {
	h := make(http.Header, 3)
	h.Set("Content-Type", contentType)
	h.Set("Content-Disposition", disposition)
	if size >= 0 {
		h.Set("Content-Length", strconv.FormatInt(size, 10))
	}
	return h
}

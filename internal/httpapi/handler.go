package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	docconv "github.com/ggondim/simple-service-doc-converter"
)

// DefaultMaxUploadBytes guards the inbound request body. Staging is
// streamed, so this is an abuse ceiling, not a memory budget.
const DefaultMaxUploadBytes = 200 << 20

// Handler translates between HTTP and the pipeline's request/response
// descriptors. The pipeline owns all conversion semantics; the handler
// only parses, dispatches, and serializes.
type Handler struct {
	pipeline  *docconv.Pipeline
	metrics   *docconv.MemorySink
	log       *zap.Logger
	started   time.Time
	maxUpload int64
}

// NewHandler creates a Handler. metrics may be nil when the metrics
// endpoint is not wanted.
func NewHandler(pipeline *docconv.Pipeline, metrics *docconv.MemorySink, log *zap.Logger) *Handler {
	return &Handler{
		pipeline:  pipeline,
		metrics:   metrics,
		log:       log,
		started:   time.Now(),
		maxUpload: DefaultMaxUploadBytes,
	}
}

// Convert handles POST /api/v1/convert with either a multipart upload
// (from, to, optional uploadUrl and filename fields plus the file
// part, in any order) or a JSON body (downloadUrl, from, to, optional
// uploadUrl). The query flag ?stream=true selects streaming the
// artifact back instead of forward-uploading it.
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	stream, _ := strconv.ParseBool(r.URL.Query().Get("stream"))

	contentType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch {
	case strings.HasPrefix(contentType, "multipart/"):
		h.convertMultipart(w, r, stream)
	case contentType == "application/json":
		h.convertJSON(w, r, stream)
	default:
		h.respondError(w, http.StatusUnsupportedMediaType,
			"unsupported_media_type", "expected multipart/form-data or application/json", nil)
	}
}

// convertMultipart streams the multipart file part into the pipeline.
// When the form fields precede the file the upload is never buffered;
// a file part arriving first is spooled to a temp file so the fields
// behind it stay reachable.
func (h *Handler) convertMultipart(w http.ResponseWriter, r *http.Request, stream bool) {
	mr, err := r.MultipartReader()
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "failed to read multipart body", nil)
		return
	}

	req := &docconv.Request{Stream: stream}
	for {
		part, perr := mr.NextPart()
		if errors.Is(perr, io.EOF) {
			h.respondError(w, http.StatusBadRequest, "file_required", "missing file field", nil)
			return
		}
		if perr != nil {
			h.respondError(w, http.StatusBadRequest, "invalid_request", "malformed multipart body", nil)
			return
		}

		if part.FileName() == "" {
			value, verr := readFormValue(part)
			if verr != nil {
				h.respondError(w, http.StatusBadRequest, "invalid_request", "unreadable form field", nil)
				return
			}
			applyField(req, part.FormName(), value)
			continue
		}

		if req.Filename == "" {
			req.Filename = part.FileName()
		}

		if req.From != "" && req.To != "" {
			// Fields came first: stream the file straight through.
			req.Upload = part
			h.run(w, r, req)
			return
		}

		// The file arrived before the format fields. Spool it so the
		// parser can keep reading; MaxBytesReader already caps the
		// total body, bounding the spool.
		spool, serr := spoolPart(part)
		if serr != nil {
			h.log.Warn("failed to spool multipart upload", zap.Error(serr))
			h.respondError(w, http.StatusBadRequest, "invalid_request", "failed to read upload", nil)
			return
		}
		defer spool.cleanup()

		for {
			rest, rerr := mr.NextPart()
			if errors.Is(rerr, io.EOF) {
				break
			}
			if rerr != nil {
				h.respondError(w, http.StatusBadRequest, "invalid_request", "malformed multipart body", nil)
				return
			}
			if rest.FileName() != "" {
				continue
			}
			value, verr := readFormValue(rest)
			if verr != nil {
				h.respondError(w, http.StatusBadRequest, "invalid_request", "unreadable form field", nil)
				return
			}
			applyField(req, rest.FormName(), value)
		}

		req.Upload = spool
		h.run(w, r, req)
		return
	}
}

// applyField maps a multipart form field onto the request descriptor.
// An explicit filename field wins over the file part's own name.
func applyField(req *docconv.Request, name, value string) {
	switch name {
	case "from":
		req.From = value
	case "to":
		req.To = value
	case "uploadUrl":
		req.UploadURL = value
	case "filename":
		req.Filename = value
	}
}

// spooledUpload holds a file part staged to a temp file so multipart
// parsing can continue past it.
type spooledUpload struct {
	f *os.File
}

func spoolPart(part io.Reader) (*spooledUpload, error) {
	f, err := os.CreateTemp("", "docconv-upload-*")
	if err != nil {
		return nil, fmt.Errorf("creating spool file: %w", err)
	}
	if _, err := io.Copy(f, part); err != nil {
		name := f.Name()
		_ = f.Close()
		_ = os.Remove(name)
		return nil, fmt.Errorf("spooling upload: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		name := f.Name()
		_ = f.Close()
		_ = os.Remove(name)
		return nil, fmt.Errorf("rewinding spool file: %w", err)
	}
	return &spooledUpload{f: f}, nil
}

func (s *spooledUpload) Read(p []byte) (int, error) { return s.f.Read(p) }

func (s *spooledUpload) cleanup() {
	name := s.f.Name()
	_ = s.f.Close()
	_ = os.Remove(name)
}

func (h *Handler) convertJSON(w http.ResponseWriter, r *http.Request, stream bool) {
	var body convertJSON
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body", nil)
		return
	}

	req := &docconv.Request{
		From:        body.From,
		To:          body.To,
		DownloadURL: body.DownloadURL,
		UploadURL:   body.UploadURL,
		Filename:    body.Filename,
		Stream:      stream,
	}
	h.run(w, r, req)
}

// run dispatches into the pipeline and serializes its response
// descriptor, closing the body (which releases the workspace for
// on-disk artifacts) when the stream finishes or breaks.
func (h *Handler) run(w http.ResponseWriter, r *http.Request, req *docconv.Request) {
	resp, err := h.pipeline.Process(r.Context(), req)
	if err != nil {
		h.respondPipelineError(w, err)
		return
	}

	for name, values := range resp.Header {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	w.WriteHeader(resp.Status)

	if resp.Body != nil {
		defer resp.Body.Close()
		if _, cerr := io.Copy(w, resp.Body); cerr != nil {
			// The response is already streaming; nothing to send the
			// client, but the broken transfer is worth a log line.
			h.log.Warn("response stream aborted", zap.Error(cerr))
		}
	}
}

func (h *Handler) respondPipelineError(w http.ResponseWriter, err error) {
	status := docconv.StatusFor(err)

	var convErr *docconv.ConversionError
	if errors.As(err, &convErr) {
		h.respondError(w, status, "conversion_failed", convErr.Error(), &convErr.Diag)
		return
	}

	code := "internal_error"
	switch {
	case errors.Is(err, docconv.ErrValidation):
		code = "invalid_request"
	case errors.Is(err, docconv.ErrStaging):
		code = "staging_failed"
	case errors.Is(err, docconv.ErrTimeout):
		code = "timeout"
	case errors.Is(err, docconv.ErrUploadForward):
		code = "upload_forwarding_failed"
	}
	h.respondError(w, status, code, err.Error(), nil)
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	limiter := h.pipeline.Limiter()

	status := "healthy"
	if limiter.Active() >= int64(limiter.Capacity()) {
		status = "saturated"
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	resp := healthResponse{
		Status:     status,
		ActiveJobs: limiter.Active(),
		Capacity:   limiter.Capacity(),
		Uptime:     time.Since(h.started).Truncate(time.Second).String(),
		MemoryMB:   float64(m.Alloc) / (1 << 20),
	}
	if h.metrics != nil {
		resp.RequestsTotal = h.metrics.Counter(docconv.MetricRequestsReceived)
		resp.ConversionsOK = h.metrics.Counter(docconv.MetricConversionSuccess)
		resp.ConversionsFail = h.metrics.Counter(docconv.MetricConversionFailure)
	}
	h.respondJSON(w, http.StatusOK, resp)
}

// Metrics handles GET /metrics with a JSON snapshot of the in-memory
// telemetry aggregate.
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.metrics == nil {
		h.respondJSON(w, http.StatusOK, map[string]float64{})
		return
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	h.metrics.GaugeSet(docconv.MetricProcessMemory, float64(m.Alloc))

	h.respondJSON(w, http.StatusOK, h.metrics.Snapshot())
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error("failed to encode response", zap.Error(err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, code, message string, diag *docconv.Diagnostics) {
	h.respondJSON(w, status, errorResponse{Error: code, Message: message, Diagnostics: diag})
}

// readFormValue drains a small form field part.
func readFormValue(part io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(part, 8<<10))
	if err != nil {
		return "", fmt.Errorf("reading form field: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

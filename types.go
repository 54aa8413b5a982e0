package docconv

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Request describes one conversion: where the input bytes come from,
// what format pair to convert between, and where the artifact goes.
// Exactly one input mode (Upload or DownloadURL) and exactly one output
// mode (Stream or UploadURL) must be set.
type Request struct {
	// From and To are format tags ("docx", "pdf"). A leading dot is
	// stripped during validation; matching is case-insensitive.
	From string
	To   string

	// Upload is the inline input stream (multipart file field).
	// The pipeline never reads it fully into memory.
	Upload io.Reader

	// DownloadURL is fetched for the input bytes when Upload is nil.
	DownloadURL string

	// Stream requests the converted artifact as the response body.
	Stream bool

	// UploadURL receives the converted artifact via outbound PUT.
	UploadURL string

	// Filename is an optional suggested name for the artifact.
	// Sanitized before use in Content-Disposition headers.
	Filename string
}

// Validate normalizes the format tags and enforces the one-input,
// one-output invariant. Returns ErrValidation-wrapped errors.
func (r *Request) Validate() error {
	r.From = NormalizeFormat(r.From)
	r.To = NormalizeFormat(r.To)

	if r.From == "" {
		return fmt.Errorf("%w: missing source format", ErrValidation)
	}
	if r.To == "" {
		return fmt.Errorf("%w: missing target format", ErrValidation)
	}

	hasUpload := r.Upload != nil
	hasFetch := r.DownloadURL != ""
	switch {
	case !hasUpload && !hasFetch:
		return fmt.Errorf("%w: no input: provide a file upload or a downloadUrl", ErrValidation)
	case hasUpload && hasFetch:
		return fmt.Errorf("%w: ambiguous input: both upload and downloadUrl set", ErrValidation)
	}

	switch {
	case !r.Stream && r.UploadURL == "":
		return fmt.Errorf("%w: no output: set the stream flag or an uploadUrl", ErrValidation)
	case r.Stream && r.UploadURL != "":
		return fmt.Errorf("%w: ambiguous output: both stream flag and uploadUrl set", ErrValidation)
	}

	return nil
}

// NormalizeFormat lowercases a format tag and strips a leading dot,
// so ".PDF" and "pdf" select the same target.
func NormalizeFormat(format string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(format), "."))
}

// Outcome is the tagged result of one conversion attempt.
// Exactly one of Bytes, Path, or Failure is populated.
type Outcome struct {
	// Bytes holds the full artifact when it fits the buffered path.
	Bytes []byte

	// Path points at the artifact inside the request's workspace when
	// the caller asked to keep it on disk for streaming.
	Path string

	// Failure carries subprocess diagnostics when no readable artifact
	// was produced.
	Failure *Diagnostics
}

// Failed reports whether the outcome is the failure variant.
func (o *Outcome) Failed() bool { return o.Failure != nil }

// OnDisk reports whether the artifact was retained in the workspace.
func (o *Outcome) OnDisk() bool { return o.Failure == nil && o.Path != "" }

// Response is the descriptor handed back to the transport shell.
// Body, when non-nil, carries workspace ownership: closing it releases
// the backing temp directory.
type Response struct {
	Status int
	Header http.Header
	Body   io.ReadCloser
}

package docconv

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors classifying pipeline failures. Handlers map these to
// HTTP statuses with StatusFor; callers distinguish them with errors.Is.
var (
	// ErrValidation reports a missing or malformed request field.
	// No workspace is created and no subprocess is started.
	ErrValidation = errors.New("invalid conversion request")

	// ErrStaging reports a failure to acquire the input bytes: a broken
	// upload stream, a non-success remote fetch, or a missing body.
	ErrStaging = errors.New("input staging failed")

	// ErrConversion reports that the external converter did not produce
	// the expected artifact, or produced one that could not be read.
	ErrConversion = errors.New("conversion failed")

	// ErrTimeout reports an expired deadline scope. Surfaced distinctly
	// so callers can tell "too slow" from "broken input".
	ErrTimeout = errors.New("operation timed out")

	// ErrUploadForward reports a failed or non-success outbound upload
	// to the caller-supplied destination.
	ErrUploadForward = errors.New("forward upload failed")
)

// Typed transfer errors distinguishing which side of a copy broke.
var (
	ErrSourceRead = errors.New("transfer: source read failed")
	ErrDestWrite  = errors.New("transfer: destination write failed")
)

// Diagnostics captures the observable state of a finished converter
// subprocess. Stored verbatim for failure responses; stderr noise from
// a successful conversion never reaches callers.
type Diagnostics struct {
	Stdout   string `json:"stdout,omitempty"`
	Stderr   string `json:"stderr,omitempty"`
	ExitCode int    `json:"exitCode"`
	Signal   string `json:"signal,omitempty"`
}

// ConversionError wraps Diagnostics as an error for failed conversions.
// Unwraps to ErrConversion, plus an optional underlying cause when the
// artifact existed but could not be read.
type ConversionError struct {
	Diag  Diagnostics
	cause error
}

// NewConversionError builds a ConversionError from subprocess diagnostics.
// cause may be nil; set it when the failure was an artifact read error.
func NewConversionError(diag Diagnostics, cause error) *ConversionError {
	return &ConversionError{Diag: diag, cause: cause}
}

func (e *ConversionError) Error() string {
	var b strings.Builder
	b.WriteString("conversion failed")
	if e.cause != nil {
		fmt.Fprintf(&b, ": %v", e.cause)
	}
	if e.Diag.Stderr != "" {
		fmt.Fprintf(&b, " (stderr: %s)", strings.TrimSpace(e.Diag.Stderr))
	}
	return b.String()
}

func (e *ConversionError) Unwrap() []error {
	if e.cause != nil {
		return []error{ErrConversion, e.cause}
	}
	return []error{ErrConversion}
}

// StatusFor maps a pipeline error to an HTTP status code.
// Timeout is checked first: a deadline expiry wins over whatever the
// cancelled operation itself reported.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrStaging):
		return http.StatusBadRequest
	case errors.Is(err, ErrUploadForward):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

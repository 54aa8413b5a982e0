package docconv

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestStatusFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"timeout", ErrTimeout, http.StatusGatewayTimeout},
		{"validation", ErrValidation, http.StatusBadRequest},
		{"staging", ErrStaging, http.StatusBadRequest},
		{"upload forward", ErrUploadForward, http.StatusBadGateway},
		{"conversion", ErrConversion, http.StatusInternalServerError},
		{"unknown", errors.New("something else"), http.StatusInternalServerError},
		{"wrapped timeout", &ConversionError{cause: ErrTimeout}, http.StatusGatewayTimeout},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := StatusFor(tt.err); got != tt.want {
				t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestConversionErrorUnwrap(t *testing.T) {
	t.Parallel()

	diag := Diagnostics{ExitCode: 81, Stderr: "Fatal exception"}

	plain := NewConversionError(diag, nil)
	if !errors.Is(plain, ErrConversion) {
		t.Error("ConversionError does not unwrap to ErrConversion")
	}

	withCause := NewConversionError(diag, io.ErrUnexpectedEOF)
	if !errors.Is(withCause, ErrConversion) {
		t.Error("ConversionError with cause lost ErrConversion")
	}
	if !errors.Is(withCause, io.ErrUnexpectedEOF) {
		t.Error("ConversionError lost its underlying cause")
	}

	var ce *ConversionError
	if !errors.As(error(withCause), &ce) {
		t.Fatal("errors.As failed to recover *ConversionError")
	}
	if ce.Diag.ExitCode != 81 {
		t.Errorf("Diag.ExitCode = %d, want 81", ce.Diag.ExitCode)
	}
}

func TestConversionErrorMessage(t *testing.T) {
	t.Parallel()

	err := NewConversionError(Diagnostics{Stderr: "soffice: no filter found\n"}, nil)
	msg := err.Error()
	if !strings.Contains(msg, "no filter found") {
		t.Errorf("Error() = %q, want it to carry stderr", msg)
	}
}

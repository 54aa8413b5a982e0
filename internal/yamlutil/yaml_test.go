package yamlutil

import (
	"errors"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Count int    `yaml:"count"`
}

func TestUnmarshalStrict(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name:  "valid document",
			input: "name: converter\ncount: 3\n",
		},
		{
			name:    "unknown field rejected",
			input:   "name: converter\nbogus: true\n",
			wantErr: true,
		},
		{
			name:    "malformed yaml",
			input:   "name: [unclosed\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var dst sample
			err := UnmarshalStrict([]byte(tt.input), &dst)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("UnmarshalStrict() error = %v", err)
			}
			if dst.Name != "converter" || dst.Count != 3 {
				t.Errorf("got %+v, want {converter 3}", dst)
			}
		})
	}
}

func TestUnmarshalStrict_InputValidation(t *testing.T) {
	t.Parallel()

	t.Run("empty data", func(t *testing.T) {
		t.Parallel()

		var dst sample
		if err := UnmarshalStrict(nil, &dst); !errors.Is(err, ErrEmptyData) {
			t.Errorf("error = %v, want ErrEmptyData", err)
		}
	})

	t.Run("nil destination", func(t *testing.T) {
		t.Parallel()

		if err := UnmarshalStrict([]byte("name: x"), nil); !errors.Is(err, ErrNilDestination) {
			t.Errorf("error = %v, want ErrNilDestination", err)
		}
	})

	t.Run("oversized input", func(t *testing.T) {
		t.Parallel()

		var dst sample
		big := []byte("name: " + strings.Repeat("a", MaxInputSize))
		if err := UnmarshalStrict(big, &dst); !errors.Is(err, ErrInputTooLarge) {
			t.Errorf("error = %v, want ErrInputTooLarge", err)
		}
	})
}

func TestMarshal_RoundTrip(t *testing.T) {
	t.Parallel()

	src := sample{Name: "converter", Count: 7}
	data, err := Marshal(src)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var dst sample
	if err := UnmarshalStrict(data, &dst); err != nil {
		t.Fatalf("UnmarshalStrict() error = %v", err)
	}
	if dst != src {
		t.Errorf("round trip = %+v, want %+v", dst, src)
	}
}

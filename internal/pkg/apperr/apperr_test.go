package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodeOf(t *testing.T) {
	sentinel := errors.New("row missing")
	cases := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, ""},
		{"plain", errors.New("boom"), CodeInternal},
		{"coded", Validation("amount %d", 3), CodeValidation},
		{"wrapped coded", fmt.Errorf("checkout: %w", NotFound("order", sentinel)), CodeNotFound},
		{"external", External(errors.New("timeout")), CodeExternalService},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CodeOf(tc.err); got != tc.want {
				t.Fatalf("CodeOf = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("provider said no")
	err := External(cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause in chain")
	}
	if MessageOf(err) == cause.Error() {
		t.Fatalf("provider message must not leak into caller message")
	}
	if !Is(err, CodeExternalService) {
		t.Fatalf("expected external code")
	}
}

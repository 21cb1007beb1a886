package id

import (
	"strings"
	"testing"
)

func TestOrderCodeShape(t *testing.T) {
	g := NewUUIDGenerator()
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		c := g.NewOrderCode()
		if !strings.HasPrefix(c, "ORD-") || len(c) != 12 {
			t.Fatalf("unexpected code %q", c)
		}
		if seen[c] {
			t.Fatalf("duplicate code %q", c)
		}
		seen[c] = true
	}
}

func TestReferenceHasNoDashes(t *testing.T) {
	r := NewUUIDGenerator().NewReference()
	if len(r) != 32 || strings.Contains(r, "-") {
		t.Fatalf("unexpected reference %q", r)
	}
}

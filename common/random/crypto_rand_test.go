package random_test

import (
	"strings"
	"testing"

	"github.com/dealmate/agent-backend/common/random"
)

func TestUniqueness(t *testing.T) {
	tests := []struct {
		name      string
		generator func() string
	}{
		{name: "uuid", generator: random.GetUUID},
		{name: "numbers", generator: func() string { return random.GetRandomNumberString(20) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen := make(map[string]struct{}, 1000)
			for range 1000 {
				v := tt.generator()
				if _, ok := seen[v]; ok {
					t.Fatalf("duplicate value %q", v)
				}
				seen[v] = struct{}{}
			}
		})
	}
}

func TestAlphabets(t *testing.T) {
	if s := random.GetRandomNumberString(64); strings.Trim(s, "0123456789") != "" || len(s) != 64 {
		t.Fatalf("unexpected numeric string %q", s)
	}
	if s := random.GetUUID(); len(s) != 32 || strings.Contains(s, "-") {
		t.Fatalf("unexpected uuid %q", s)
	}
}

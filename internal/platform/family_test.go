package platform

import (
	"testing"

	"github.com/pratik-anurag/openport/internal/model"
)

func TestFamilyFor(t *testing.T) {
	cases := map[string]model.OSFamily{
		"windows": model.FamilyWindows,
		"linux":   model.FamilyLinux,
		"darwin":  model.FamilyOther,
		"freebsd": model.FamilyOther,
		"plan9":   model.FamilyOther,
	}
	for goos, want := range cases {
		if got := familyFor(goos); got != want {
			t.Errorf("familyFor(%q) = %v, want %v", goos, got, want)
		}
	}
}

package platform

import (
	"runtime"

	"github.com/pratik-anurag/openport/internal/model"
)

// FirewallInfo describes the host firewall as far as we can tell.
type FirewallInfo struct {
	Active bool
	Name   string
}

// DetectOSFamily maps the running OS to a firewall command dialect.
// Only Linux gets ufw commands; other Unixes need manual rules.
func DetectOSFamily() model.OSFamily {
	return familyFor(runtime.GOOS)
}

func familyFor(goos string) model.OSFamily {
	switch goos {
	case "windows":
		return model.FamilyWindows
	case "linux":
		return model.FamilyLinux
	default:
		return model.FamilyOther
	}
}

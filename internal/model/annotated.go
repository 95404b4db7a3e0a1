package model

import (
	"encoding/json"
	"strings"
)

const (
	UnknownService    = "Unknown"
	NoActionNeeded    = "No action needed"
	NoFirewallCommand = "N/A"
	ManualFirewall    = "Manual configuration required"
)

// SecurityStatus is either Safe or Risky with a reason.
type SecurityStatus struct {
	risky  bool
	reason string
}

func Safe() SecurityStatus { return SecurityStatus{} }

func Risky(reason string) SecurityStatus {
	return SecurityStatus{risky: true, reason: reason}
}

func (s SecurityStatus) IsRisky() bool { return s.risky }

func (s SecurityStatus) Reason() string { return s.reason }

// String renders "Safe" or "Risky: <reason>".
func (s SecurityStatus) String() string {
	if !s.risky {
		return "Safe"
	}
	if s.reason == "" {
		return "Risky"
	}
	return "Risky: " + s.reason
}

func (s SecurityStatus) MarshalJSON() ([]byte, error) {
	if !s.risky {
		return json.Marshal(map[string]any{"risky": false})
	}
	return json.Marshal(map[string]any{"risky": true, "reason": s.reason})
}

// AnnotatedRecord is a ConnectionRecord plus its risk classification.
type AnnotatedRecord struct {
	ConnectionRecord
	Security        SecurityStatus `json:"security_status"`
	ServiceName     string         `json:"service_name"`
	Remediation     string         `json:"remediation_text"`
	FirewallCommand string         `json:"firewall_command"`
}

// OSFamily selects the firewall command dialect.
type OSFamily int

const (
	FamilyOther OSFamily = iota
	FamilyWindows
	FamilyLinux
)

// ParseOSFamily accepts GOOS-style names as well as the family names.
func ParseOSFamily(s string) (OSFamily, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "windows":
		return FamilyWindows, true
	case "linux", "unix":
		return FamilyLinux, true
	case "other":
		return FamilyOther, true
	default:
		return FamilyOther, false
	}
}

func (f OSFamily) String() string {
	switch f {
	case FamilyWindows:
		return "windows"
	case FamilyLinux:
		return "linux"
	default:
		return "other"
	}
}

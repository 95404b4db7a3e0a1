//go:build windows

package platform

import (
	"os/exec"
	"strings"

	"golang.org/x/sys/windows"
)

// FirewallStatus reports Windows Defender Firewall as active when any
// profile is on.
func FirewallStatus() FirewallInfo {
	out, err := exec.Command("netsh", "advfirewall", "show", "allprofiles", "state").Output()
	if err != nil {
		return FirewallInfo{}
	}
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 2 && strings.EqualFold(fields[0], "State") && strings.EqualFold(fields[1], "ON") {
			return FirewallInfo{Active: true, Name: "windows-firewall"}
		}
	}
	return FirewallInfo{}
}

// Privileged reports whether the process token is elevated.
func Privileged() bool {
	return windows.GetCurrentProcessToken().IsElevated()
}

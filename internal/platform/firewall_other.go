//go:build !linux && !darwin && !windows

package platform

func FirewallStatus() FirewallInfo {
	return FirewallInfo{}
}

func Privileged() bool {
	return false
}

//go:build darwin

package sockets

import (
	"fmt"
	"os/exec"
)

type lsofEnumerator struct{}

func systemEnumerator() Enumerator {
	return lsofEnumerator{}
}

func (lsofEnumerator) Enumerate() ([]Raw, error) {
	args := []string{"-nP", "-iTCP", "-iUDP"}
	out, err := exec.Command("lsof", args...).Output()
	// lsof exits 1 when some files could not be inspected but still prints the rest.
	if err != nil && len(out) == 0 {
		return nil, fmt.Errorf("%w: lsof: %v", ErrEnumerationUnavailable, err)
	}
	return parseLsofOutput(out), nil
}

//go:build !linux && !darwin && !windows

package sockets

import (
	"fmt"
	"runtime"
)

func systemEnumerator() Enumerator {
	return EnumeratorFunc(func() ([]Raw, error) {
		return nil, fmt.Errorf("%w: unsupported OS %s", ErrEnumerationUnavailable, runtime.GOOS)
	})
}

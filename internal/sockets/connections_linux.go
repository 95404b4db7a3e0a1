//go:build linux

package sockets

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

type linuxEnumerator struct {
	procRoot string
}

func systemEnumerator() Enumerator {
	return linuxEnumerator{procRoot: "/proc"}
}

// Enumerate prefers ss, which resolves owners through the kernel's diag
// interface; without ss it reads /proc/net directly.
func (e linuxEnumerator) Enumerate() ([]Raw, error) {
	path, err := exec.LookPath("ss")
	if err != nil {
		return e.readProcNet()
	}
	out, err := exec.Command(path, "-H", "-tuanp").Output()
	if err != nil {
		return nil, fmt.Errorf("%w: ss: %v", ErrEnumerationUnavailable, err)
	}
	return parseSSOutput(out), nil
}

func (e linuxEnumerator) readProcNet() ([]Raw, error) {
	owners := e.socketOwners()

	tables := []struct {
		name string
		typ  SocketType
		ipv6 bool
	}{
		{"tcp", SockStream, false},
		{"tcp6", SockStream, true},
		{"udp", SockDgram, false},
		{"udp6", SockDgram, true},
	}

	var raws []Raw
	opened := 0
	for _, t := range tables {
		f, err := os.Open(filepath.Join(e.procRoot, "net", t.name))
		if err != nil {
			// tcp6/udp6 are absent when IPv6 is disabled
			continue
		}
		opened++
		rs, err := parseProcNet(f, t.typ, t.ipv6, owners)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", ErrEnumerationUnavailable, t.name, err)
		}
		raws = append(raws, rs...)
	}
	if opened == 0 {
		return nil, fmt.Errorf("%w: no socket tables under %s", ErrEnumerationUnavailable, filepath.Join(e.procRoot, "net"))
	}
	return raws, nil
}

// socketOwners maps socket inodes to pids by walking /proc/<pid>/fd.
// Processes we may not inspect are skipped; their sockets keep pid 0.
func (e linuxEnumerator) socketOwners() map[string]procOwner {
	owners := make(map[string]procOwner)
	entries, err := os.ReadDir(e.procRoot)
	if err != nil {
		return owners
	}
	for _, ent := range entries {
		if !ent.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(ent.Name())
		if err != nil {
			continue
		}
		fdDir := filepath.Join(e.procRoot, ent.Name(), "fd")
		fds, err := os.ReadDir(fdDir)
		if err != nil {
			continue
		}
		name := readComm(filepath.Join(e.procRoot, ent.Name(), "comm"))
		for _, fd := range fds {
			link, err := os.Readlink(filepath.Join(fdDir, fd.Name()))
			if err != nil {
				continue
			}
			if strings.HasPrefix(link, "socket:[") && strings.HasSuffix(link, "]") {
				owners[link[8:len(link)-1]] = procOwner{pid: int32(pid), name: name}
			}
		}
	}
	return owners
}

func readComm(path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

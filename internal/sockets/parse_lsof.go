package sockets

import (
	"fmt"
	"regexp"
	"strings"
)

// lsof -nP -iTCP -iUDP
// postgres 8123 me  6u  IPv6 ... TCP [::1]:5432 (LISTEN)
// mDNSRespo 301 _mdns 7u IPv4 ... UDP *:5353
var reLsof = regexp.MustCompile(`^(?P<cmd>\S+)\s+(?P<pid>\d+)\s+(?P<user>\S+)\s+.*\s(?P<proto>TCP|UDP)\s+(?P<addr>\S+)(?:\s+\((?P<state>[^)]+)\))?\s*$`)

type lsofLine struct {
	cmd   string
	user  string
	proto string
	addr  string
	state string
	pid   int
}

func parseLsofLine(line string) (lsofLine, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "COMMAND") {
		return lsofLine{}, false
	}
	m := reLsof.FindStringSubmatch(line)
	if m == nil {
		return lsofLine{}, false
	}
	return lsofLine{
		cmd:   m[reLsof.SubexpIndex("cmd")],
		user:  m[reLsof.SubexpIndex("user")],
		proto: m[reLsof.SubexpIndex("proto")],
		addr:  m[reLsof.SubexpIndex("addr")],
		state: strings.ToUpper(strings.TrimSpace(m[reLsof.SubexpIndex("state")])),
		pid:   parseInt(m[reLsof.SubexpIndex("pid")]),
	}, true
}

// parseLsofConn splits "local->remote"; a bare address has no remote.
func parseLsofConn(addr string) (local, remote *Endpoint, err error) {
	parts := strings.Split(addr, "->")
	if len(parts) > 2 {
		return nil, nil, fmt.Errorf("invalid lsof address %q", addr)
	}
	local, err = parseEndpoint(parts[0])
	if err != nil {
		return nil, nil, err
	}
	if len(parts) == 2 {
		remote, err = parseEndpoint(parts[1])
		if err != nil {
			return nil, nil, err
		}
	}
	return local, remote, nil
}

func parseLsofOutput(out []byte) []Raw {
	var raws []Raw
	for _, line := range splitLines(out) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "COMMAND") {
			continue
		}
		raws = append(raws, rawFromLsof(line))
	}
	return raws
}

func rawFromLsof(line string) Raw {
	raw := Raw{Source: line}
	parsed, ok := parseLsofLine(line)
	if !ok {
		raw.Err = fmt.Errorf("unrecognized lsof line")
		return raw
	}
	local, remote, err := parseLsofConn(parsed.addr)
	if err != nil {
		raw.Err = err
		return raw
	}
	if parsed.proto == "TCP" {
		raw.Type = SockStream
		raw.Status = parsed.state
	} else {
		raw.Type = SockDgram
	}
	raw.Local = local
	raw.Remote = remote
	raw.PID = int32(parsed.pid)
	raw.ProcName = parsed.cmd
	return raw
}

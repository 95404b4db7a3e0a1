package sockets

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ss -H -tuanp
// tcp LISTEN 0 4096 127.0.0.1:5432 0.0.0.0:* users:(("postgres",pid=8123,fd=7))
var (
	reSS        = regexp.MustCompile(`^(?P<netid>\S+)\s+(?P<state>\S+)\s+\d+\s+\d+\s+(?P<laddr>\S+)\s+(?P<raddr>\S+)\s*(?P<users>users:\(\(.*\)\))?$`)
	reUsersPid  = regexp.MustCompile(`pid=(\d+)`)
	reUsersProc = regexp.MustCompile(`\(\("([^"]+)"`)
)

type ssLine struct {
	netid string
	state string
	laddr string
	raddr string
	pid   int
	proc  string
}

func parseSSLine(line string) (ssLine, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return ssLine{}, false
	}
	m := reSS.FindStringSubmatch(line)
	if m == nil {
		return ssLine{}, false
	}
	state := strings.ToUpper(m[reSS.SubexpIndex("state")])
	laddr := m[reSS.SubexpIndex("laddr")]
	raddr := m[reSS.SubexpIndex("raddr")]
	pid, pname := parseUsers(m[reSS.SubexpIndex("users")])
	return ssLine{
		netid: strings.ToLower(m[reSS.SubexpIndex("netid")]),
		state: state,
		laddr: laddr,
		raddr: raddr,
		pid:   pid,
		proc:  pname,
	}, true
}

func parseUsers(users string) (pid int, proc string) {
	if users == "" {
		return 0, ""
	}
	if m := reUsersPid.FindStringSubmatch(users); m != nil {
		pid = parseInt(m[1])
	}
	if m := reUsersProc.FindStringSubmatch(users); m != nil {
		proc = m[1]
	}
	return pid, proc
}

// parseSSOutput turns the whole ss listing into raw descriptors, one per
// non-empty line. Lines that cannot be decoded are returned with Err set.
func parseSSOutput(out []byte) []Raw {
	var raws []Raw
	for _, line := range splitLines(out) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		raws = append(raws, rawFromSS(line))
	}
	return raws
}

func rawFromSS(line string) Raw {
	raw := Raw{Source: line}
	parsed, ok := parseSSLine(line)
	if !ok {
		raw.Err = fmt.Errorf("unrecognized ss line")
		return raw
	}

	switch parsed.netid {
	case "tcp":
		raw.Type = SockStream
		raw.Status = parsed.state
	case "udp":
		raw.Type = SockDgram
	}

	local, err := parseEndpoint(parsed.laddr)
	if err != nil {
		raw.Err = err
		return raw
	}
	remote, err := parseEndpoint(parsed.raddr)
	if err != nil {
		raw.Err = err
		return raw
	}
	raw.Local = local
	raw.Remote = remote
	raw.PID = int32(parsed.pid)
	raw.ProcName = parsed.proc
	return raw
}

// parseEndpoint handles the host:port spellings of ss and lsof:
// 127.0.0.1:22, [::1]:22, *:22, 127.0.0.53%lo:53, [fe80::1]%eth0:546.
// A "*" port means no
// endpoint and yields nil.
func parseEndpoint(addr string) (*Endpoint, error) {
	addr = strings.TrimSpace(addr)
	host, port, ok := cutHostPort(addr)
	if !ok {
		return nil, fmt.Errorf("invalid endpoint %q", addr)
	}
	if port == "*" {
		return nil, nil
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return nil, fmt.Errorf("invalid port in %q", addr)
	}
	if i := strings.Index(host, "%"); i >= 0 {
		host = host[:i]
	}
	if host == "*" {
		host = "0.0.0.0"
	}
	return &Endpoint{IP: host, Port: p}, nil
}

func cutHostPort(addr string) (host, port string, ok bool) {
	if strings.HasPrefix(addr, "[") {
		end := strings.Index(addr, "]")
		if end <= 0 {
			return "", "", false
		}
		host, rest := addr[1:end], addr[end+1:]
		// ss puts the zone of scoped IPv6 addresses after the bracket.
		if strings.HasPrefix(rest, "%") {
			i := strings.LastIndex(rest, ":")
			if i < 0 {
				return "", "", false
			}
			rest = rest[i:]
		}
		if !strings.HasPrefix(rest, ":") {
			return "", "", false
		}
		return host, rest[1:], true
	}
	i := strings.LastIndex(addr, ":")
	if i < 0 {
		return "", "", false
	}
	return addr[:i], addr[i+1:], true
}

func splitLines(b []byte) []string {
	s := strings.TrimSpace(string(bytes.TrimSpace(b)))
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func parseInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

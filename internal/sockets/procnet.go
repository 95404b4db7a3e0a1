package sockets

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
)

// Kernel tcp_states.h values as they appear in /proc/net/tcp.
var procTCPStates = map[int64]string{
	0x01: "ESTABLISHED",
	0x02: "SYN_SENT",
	0x03: "SYN_RECV",
	0x04: "FIN_WAIT1",
	0x05: "FIN_WAIT2",
	0x06: "TIME_WAIT",
	0x07: "CLOSE",
	0x08: "CLOSE_WAIT",
	0x09: "LAST_ACK",
	0x0A: "LISTEN",
	0x0B: "CLOSING",
	0x0C: "NEW_SYN_RECV",
}

type procOwner struct {
	pid  int32
	name string
}

// parseProcNet reads one /proc/net/{tcp,udp}{,6} table. owners maps socket
// inode to the owning process.
func parseProcNet(r io.Reader, typ SocketType, ipv6 bool, owners map[string]procOwner) ([]Raw, error) {
	var raws []Raw
	scanner := bufio.NewScanner(r)
	scanner.Scan() // header

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		raws = append(raws, rawFromProcNet(line, typ, ipv6, owners))
	}
	return raws, scanner.Err()
}

func rawFromProcNet(line string, typ SocketType, ipv6 bool, owners map[string]procOwner) Raw {
	raw := Raw{Type: typ, Source: line}
	fields := strings.Fields(line)
	if len(fields) < 10 {
		raw.Err = fmt.Errorf("short /proc/net line (%d fields)", len(fields))
		return raw
	}

	local, err := parseProcAddr(fields[1], ipv6)
	if err != nil {
		raw.Err = err
		return raw
	}
	remote, err := parseProcAddr(fields[2], ipv6)
	if err != nil {
		raw.Err = err
		return raw
	}
	raw.Local = local
	if remote.Port != 0 || !net.ParseIP(remote.IP).IsUnspecified() {
		raw.Remote = remote
	}

	if typ == SockStream {
		st, err := strconv.ParseInt(fields[3], 16, 64)
		if err != nil {
			raw.Err = fmt.Errorf("invalid state %q", fields[3])
			return raw
		}
		raw.Status = procTCPStates[st]
	}

	if o, ok := owners[fields[9]]; ok {
		raw.PID = o.pid
		raw.ProcName = o.name
	}
	return raw
}

// parseProcAddr decodes "0100007F:1F90". IPv4 is one little-endian word,
// IPv6 is four little-endian 32-bit groups.
func parseProcAddr(s string, ipv6 bool) (*Endpoint, error) {
	ipHex, portHex, ok := strings.Cut(s, ":")
	if !ok {
		return nil, fmt.Errorf("invalid /proc/net address %q", s)
	}
	port, err := strconv.ParseUint(portHex, 16, 16)
	if err != nil {
		return nil, fmt.Errorf("invalid /proc/net port %q", portHex)
	}
	b, err := hex.DecodeString(ipHex)
	if err != nil {
		return nil, fmt.Errorf("invalid /proc/net address %q", ipHex)
	}

	var ip net.IP
	switch {
	case ipv6 && len(b) == 16:
		ip = make(net.IP, 16)
		for i := 0; i < 4; i++ {
			ip[i*4+0] = b[i*4+3]
			ip[i*4+1] = b[i*4+2]
			ip[i*4+2] = b[i*4+1]
			ip[i*4+3] = b[i*4+0]
		}
	case !ipv6 && len(b) == 4:
		ip = net.IPv4(b[3], b[2], b[1], b[0])
	default:
		return nil, fmt.Errorf("unexpected address length %d in %q", len(b), s)
	}
	return &Endpoint{IP: ip.String(), Port: int(port)}, nil
}

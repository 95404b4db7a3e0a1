package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Unknown is the sentinel used for any field the OS did not report.
const Unknown = "unknown"

type Protocol string

const (
	TCP Protocol = "TCP"
	UDP Protocol = "UDP"
)

// Lower returns the protocol name as firewall tools expect it ("tcp", "udp").
func (p Protocol) Lower() string {
	return strings.ToLower(string(p))
}

// Port is a 16-bit port number or the unknown sentinel.
// The zero value is unknown.
type Port struct {
	n     uint16
	known bool
}

func KnownPort(n uint16) Port { return Port{n: n, known: true} }

// UnknownPort returns the sentinel port.
func UnknownPort() Port { return Port{} }

func (p Port) Value() (uint16, bool) { return p.n, p.known }

func (p Port) IsKnown() bool { return p.known }

func (p Port) String() string {
	if !p.known {
		return Unknown
	}
	return strconv.Itoa(int(p.n))
}

func (p Port) MarshalJSON() ([]byte, error) {
	if !p.known {
		return json.Marshal(Unknown)
	}
	return json.Marshal(p.n)
}

// PID is an owning process id or the unknown sentinel.
// Zero is never a valid process id, so the zero value is unknown.
type PID struct {
	n int32
}

// NewPID maps non-positive ids to unknown.
func NewPID(n int32) PID {
	if n <= 0 {
		return PID{}
	}
	return PID{n: n}
}

func (p PID) Value() (int32, bool) { return p.n, p.n > 0 }

func (p PID) IsKnown() bool { return p.n > 0 }

func (p PID) String() string {
	if p.n <= 0 {
		return Unknown
	}
	return strconv.Itoa(int(p.n))
}

func (p PID) MarshalJSON() ([]byte, error) {
	if p.n <= 0 {
		return json.Marshal(Unknown)
	}
	return json.Marshal(p.n)
}

// ConnectionRecord is one observed socket. Every string field holds either a
// real value or Unknown; use sockets.Normalize to build one.
type ConnectionRecord struct {
	Protocol      Protocol `json:"protocol"`
	LocalAddress  string   `json:"local_address"`
	LocalPort     Port     `json:"local_port"`
	RemoteAddress string   `json:"remote_address"`
	RemotePort    Port     `json:"remote_port"`
	Status        string   `json:"status"`
	PID           PID      `json:"owning_process_id"`
	ProcessName   string   `json:"process_name"`
}

// LocalEndpoint formats the local side as addr:port, bracketing IPv6.
func (r ConnectionRecord) LocalEndpoint() string {
	return endpoint(r.LocalAddress, r.LocalPort)
}

func (r ConnectionRecord) RemoteEndpoint() string {
	return endpoint(r.RemoteAddress, r.RemotePort)
}

func endpoint(addr string, port Port) string {
	return JoinEndpoint(addr, port.String())
}

// JoinEndpoint formats addr and an already rendered port. Both unknown
// collapse to a single "unknown".
func JoinEndpoint(addr, port string) string {
	if addr == Unknown && port == Unknown {
		return Unknown
	}
	if strings.Contains(addr, ":") && !strings.HasPrefix(addr, "[") {
		addr = "[" + addr + "]"
	}
	return addr + ":" + port
}

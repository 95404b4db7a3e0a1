package sockets

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/pratik-anurag/openport/internal/model"
)

// psutil-style canonical names for the state spellings ss, lsof and netstat use.
var stateAliases = map[string]string{
	"ESTAB":      "ESTABLISHED",
	"LISTENING":  "LISTEN",
	"SYN_RCVD":   "SYN_RECV",
	"FIN_WAIT_1": "FIN_WAIT1",
	"FIN_WAIT_2": "FIN_WAIT2",
	"CLOSED":     "CLOSE",
	"UNCONN":     "",
	"NONE":       "",
	"IDLE":       "",
	"BOUND":      "",
}

// Normalize converts one raw descriptor into a ConnectionRecord. Missing
// endpoints, status or pid become model.Unknown; only structurally invalid
// input is an error, and that error wraps ErrRecordMalformed.
func Normalize(r Raw) (model.ConnectionRecord, error) {
	if r.Err != nil {
		return model.ConnectionRecord{}, fmt.Errorf("%w: %v", ErrRecordMalformed, r.Err)
	}

	var proto model.Protocol
	switch r.Type {
	case SockStream:
		proto = model.TCP
	case SockDgram:
		proto = model.UDP
	default:
		return model.ConnectionRecord{}, fmt.Errorf("%w: unsupported socket type %d", ErrRecordMalformed, r.Type)
	}

	laddr, lport, err := normalizeEndpoint(r.Local)
	if err != nil {
		return model.ConnectionRecord{}, fmt.Errorf("%w: local endpoint: %v", ErrRecordMalformed, err)
	}
	raddr, rport, err := normalizeEndpoint(r.Remote)
	if err != nil {
		return model.ConnectionRecord{}, fmt.Errorf("%w: remote endpoint: %v", ErrRecordMalformed, err)
	}

	name := strings.TrimSpace(r.ProcName)
	if name == "" {
		name = model.Unknown
	}

	return model.ConnectionRecord{
		Protocol:      proto,
		LocalAddress:  laddr,
		LocalPort:     lport,
		RemoteAddress: raddr,
		RemotePort:    rport,
		Status:        normalizeStatus(r.Status),
		PID:           model.NewPID(r.PID),
		ProcessName:   name,
	}, nil
}

func normalizeEndpoint(ep *Endpoint) (string, model.Port, error) {
	if ep == nil {
		return model.Unknown, model.UnknownPort(), nil
	}
	if ep.Port < 0 || ep.Port > 65535 {
		return "", model.Port{}, fmt.Errorf("port %d out of range", ep.Port)
	}

	addr := model.Unknown
	if ip := strings.Trim(strings.TrimSpace(ep.IP), "[]"); ip != "" {
		parsed, err := netip.ParseAddr(ip)
		if err != nil {
			return "", model.Port{}, fmt.Errorf("invalid address %q", ep.IP)
		}
		addr = parsed.String()
	}

	port := model.UnknownPort()
	if ep.Port > 0 {
		port = model.KnownPort(uint16(ep.Port))
	}
	return addr, port, nil
}

func normalizeStatus(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "_")
	if alias, ok := stateAliases[s]; ok {
		s = alias
	}
	if s == "" {
		return model.Unknown
	}
	return s
}

package sockets

import (
	"os"
	"strings"
	"testing"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return data
}

func TestParseSSFixture(t *testing.T) {
	lines := strings.Split(strings.TrimSpace(string(readFixture(t, "ss.txt"))), "\n")
	if len(lines) < 2 {
		t.Fatalf("expected fixture lines")
	}
	parsed, ok := parseSSLine(lines[1])
	if !ok {
		t.Fatalf("expected parse ok for ss line")
	}
	if parsed.netid != "tcp" || parsed.proc != "api" || parsed.pid != 2210 || parsed.state != "ESTAB" {
		t.Fatalf("unexpected ss parse: %+v", parsed)
	}
	if !strings.Contains(parsed.raddr, ":5432") {
		t.Fatalf("expected remote addr to include :5432, got %q", parsed.raddr)
	}
}

func TestParseSSOutput(t *testing.T) {
	raws := parseSSOutput(readFixture(t, "ss.txt"))
	if len(raws) != 7 {
		t.Fatalf("expected one raw per line, got %d", len(raws))
	}

	listen := raws[0]
	if listen.Type != SockStream || listen.Remote != nil || listen.Local == nil || listen.Local.Port != 5432 {
		t.Fatalf("unexpected listener: %+v", listen)
	}

	v6 := raws[2]
	if v6.Local == nil || v6.Local.IP != "::" || v6.Local.Port != 23 {
		t.Fatalf("unexpected ipv6 listener: %+v", v6.Local)
	}

	udp := raws[3]
	if udp.Type != SockDgram || udp.Status != "" {
		t.Fatalf("udp should carry no status: %+v", udp)
	}
	if udp.Local.IP != "127.0.0.53" {
		t.Fatalf("expected interface suffix stripped, got %q", udp.Local.IP)
	}

	if raws[4].PID != 0 {
		t.Fatalf("time-wait socket has no owner, got pid %d", raws[4].PID)
	}
	scoped := raws[5]
	if scoped.Err != nil || scoped.Local == nil || scoped.Local.IP != "fe80::a00:27ff:fe8e:9c5e" || scoped.Local.Port != 546 {
		t.Fatalf("unexpected link-local socket: %+v err=%v", scoped.Local, scoped.Err)
	}
	if scoped.Remote != nil || scoped.PID != 700 || scoped.ProcName != "NetworkManager" {
		t.Fatalf("unexpected link-local socket: %+v", scoped)
	}
	rec, err := Normalize(scoped)
	if err != nil {
		t.Fatalf("link-local socket should normalize: %v", err)
	}
	if rec.LocalAddress != "fe80::a00:27ff:fe8e:9c5e" || rec.LocalPort.String() != "546" {
		t.Fatalf("unexpected record: %+v", rec)
	}

	if raws[6].Err == nil {
		t.Fatalf("expected unix socket line to be rejected")
	}
}

func TestParseLsofFixture(t *testing.T) {
	lines := strings.Split(strings.TrimSpace(string(readFixture(t, "lsof.txt"))), "\n")
	if len(lines) < 3 {
		t.Fatalf("expected fixture lines")
	}
	parsed, ok := parseLsofLine(lines[2])
	if !ok {
		t.Fatalf("expected parse ok for lsof line")
	}
	if parsed.cmd != "api" || parsed.pid != 2210 || parsed.state != "ESTABLISHED" {
		t.Fatalf("unexpected lsof parse: %+v", parsed)
	}
	local, remote, err := parseLsofConn(parsed.addr)
	if err != nil || local == nil || remote == nil || local.Port != 51234 || remote.Port != 5432 {
		t.Fatalf("expected parsed connection endpoints, got local=%+v remote=%+v err=%v", local, remote, err)
	}
}

func TestParseLsofOutput(t *testing.T) {
	raws := parseLsofOutput(readFixture(t, "lsof.txt"))
	if len(raws) != 3 {
		t.Fatalf("expected header skipped and 3 raws, got %d", len(raws))
	}
	if raws[0].Local.IP != "::1" || raws[0].Status != "LISTEN" {
		t.Fatalf("unexpected listener: %+v", raws[0])
	}
	udp := raws[2]
	if udp.Type != SockDgram || udp.Local.IP != "0.0.0.0" || udp.Local.Port != 5353 || udp.Remote != nil {
		t.Fatalf("unexpected udp socket: %+v", udp)
	}
}

func TestParseProcNetTCP(t *testing.T) {
	f, err := os.Open("testdata/proc_net_tcp.txt")
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer f.Close()

	owners := map[string]procOwner{
		"23456": {pid: 8123, name: "postgres"},
		"34567": {pid: 2210, name: "api"},
	}
	raws, err := parseProcNet(f, SockStream, false, owners)
	if err != nil {
		t.Fatalf("parseProcNet: %v", err)
	}
	if len(raws) != 4 {
		t.Fatalf("expected 4 raws, got %d", len(raws))
	}

	l := raws[0]
	if l.Local.IP != "127.0.0.1" || l.Local.Port != 5432 || l.Status != "LISTEN" || l.Remote != nil {
		t.Fatalf("unexpected listener: %+v", l)
	}
	if l.PID != 8123 || l.ProcName != "postgres" {
		t.Fatalf("expected owner postgres/8123, got %s/%d", l.ProcName, l.PID)
	}

	c := raws[1]
	if c.Remote == nil || c.Remote.IP != "10.0.0.9" || c.Remote.Port != 5432 || c.Status != "ESTABLISHED" {
		t.Fatalf("unexpected connection: %+v", c)
	}
	if raws[2].PID != 0 || raws[2].Status != "TIME_WAIT" {
		t.Fatalf("unexpected time-wait row: %+v", raws[2])
	}
	if raws[3].Err == nil {
		t.Fatalf("expected short line to carry an error")
	}
}

func TestParseProcNetUDP6(t *testing.T) {
	f, err := os.Open("testdata/proc_net_udp6.txt")
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer f.Close()

	raws, err := parseProcNet(f, SockDgram, true, nil)
	if err != nil {
		t.Fatalf("parseProcNet: %v", err)
	}
	if len(raws) != 1 {
		t.Fatalf("expected 1 raw, got %d", len(raws))
	}
	r := raws[0]
	if r.Local.IP != "::" || r.Local.Port != 53 || r.Remote != nil || r.Status != "" {
		t.Fatalf("unexpected udp6 row: %+v", r)
	}
}

func TestParseEndpoint(t *testing.T) {
	cases := []struct {
		in     string
		ip     string
		port   int
		absent bool
		bad    bool
	}{
		{in: "127.0.0.1:22", ip: "127.0.0.1", port: 22},
		{in: "[::1]:5432", ip: "::1", port: 5432},
		{in: "[fe80::1%eth0]:123", ip: "fe80::1", port: 123},
		{in: "[fe80::a00:27ff:fe8e:9c5e]%enp0s3:546", ip: "fe80::a00:27ff:fe8e:9c5e", port: 546},
		{in: "[::]%lo:*", absent: true},
		{in: "[fe80::1]%eth0", bad: true},
		{in: "[::1]5432", bad: true},
		{in: "*:22", ip: "0.0.0.0", port: 22},
		{in: "0.0.0.0:*", absent: true},
		{in: "nonsense", bad: true},
		{in: "10.0.0.1:http", bad: true},
	}
	for _, tc := range cases {
		ep, err := parseEndpoint(tc.in)
		if tc.bad {
			if err == nil {
				t.Errorf("%q: expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: unexpected error %v", tc.in, err)
			continue
		}
		if tc.absent {
			if ep != nil {
				t.Errorf("%q: expected no endpoint, got %+v", tc.in, ep)
			}
			continue
		}
		if ep == nil || ep.IP != tc.ip || ep.Port != tc.port {
			t.Errorf("%q: got %+v want %s:%d", tc.in, ep, tc.ip, tc.port)
		}
	}
}

func TestIPHelperDecoding(t *testing.T) {
	// 3389 in network byte order is 0x0D3D -> stored as 0x3D0D.
	if got := ntohs(0x3D0D); got != 3389 {
		t.Fatalf("ntohs = %d", got)
	}
	if got := ipv4FromDWORD(0x0100007F); got != "127.0.0.1" {
		t.Fatalf("ipv4FromDWORD = %q", got)
	}
	if iphlpEndpoint("0.0.0.0", 0) != nil || iphlpEndpoint("::", 0) != nil {
		t.Fatalf("unspecified peer should be absent")
	}
	if mibTCPState(2) != "LISTEN" || mibTCPState(99) != "" {
		t.Fatalf("unexpected state mapping")
	}
}

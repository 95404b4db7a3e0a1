package cli

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratik-anurag/openport/internal/model"
	"github.com/pratik-anurag/openport/internal/platform"
	"github.com/pratik-anurag/openport/internal/report"
	"github.com/pratik-anurag/openport/internal/sockets"
	"github.com/pratik-anurag/openport/internal/store"
)

type harness struct {
	deps   Deps
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	dir    string
	tuiRan []model.AnnotatedRecord
}

func newHarness(t *testing.T, raws []sockets.Raw, enumErr error) *harness {
	t.Helper()
	t.Setenv("OPENPORT_CONFIG", "")
	t.Setenv("OPENPORT_LOG_LEVEL", "")
	t.Setenv("OPENPORT_DB_PATH", "")
	t.Setenv("OPENPORT_OS_FAMILY", "")

	h := &harness{stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}, dir: t.TempDir()}
	h.deps = Deps{
		Enumerator: sockets.EnumeratorFunc(func() ([]sockets.Raw, error) { return raws, enumErr }),
		Stdout:     h.stdout,
		Stderr:     h.stderr,
		Now: func() time.Time {
			return time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
		},
		DetectOSFamily: func() model.OSFamily { return model.FamilyLinux },
		Firewall:       func() platform.FirewallInfo { return platform.FirewallInfo{Active: true, Name: "ufw"} },
		Privileged:     func() bool { return true },
		RunTUI: func(recs []model.AnnotatedRecord, _ report.Summary) error {
			h.tuiRan = recs
			return nil
		},
	}
	return h
}

func (h *harness) run(args ...string) int {
	base := []string{"--log-file", filepath.Join(h.dir, "open_ports.log")}
	return Execute(append(base, args...), h.deps)
}

func (h *harness) path(name string) string { return filepath.Join(h.dir, name) }

func fixture() []sockets.Raw {
	return []sockets.Raw{
		{Type: sockets.SockStream, Local: &sockets.Endpoint{IP: "0.0.0.0", Port: 23}, Status: "LISTEN", PID: 640, ProcName: "inetd"},
		{Type: sockets.SockStream, Local: &sockets.Endpoint{IP: "127.0.0.1", Port: 8080}, Status: "LISTEN", PID: 900},
		{Type: 99, Source: "bogus"},
		{Type: sockets.SockDgram, Local: &sockets.Endpoint{IP: "0.0.0.0", Port: 5353}},
	}
}

func TestScanConsole(t *testing.T) {
	h := newHarness(t, fixture(), nil)
	code := h.run("--csv", h.path("ports.csv"))
	require.Equal(t, 0, code, h.stderr.String())

	out := h.stdout.String()
	assert.Contains(t, out, "os=linux firewall=ufw (active) privileged=yes")
	assert.Contains(t, out, "0.0.0.0:23")
	assert.Contains(t, out, "↳ sudo ufw deny 23/tcp")
	assert.Contains(t, out, "3 connections (2 tcp, 1 udp), 1 risky, 1 unreadable records skipped")

	f, err := os.Open(h.path("ports.csv"))
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "protocol", rows[0][0])
	assert.Equal(t, "Telnet", rows[1][7])

	logData, err := os.ReadFile(h.path("open_ports.log"))
	require.NoError(t, err)
	logText := string(logData)
	assert.Contains(t, logText, " - ERROR - skipping connection record")
	assert.Contains(t, logText, " - WARNING - risky port detected")
	assert.Contains(t, logText, " - INFO - scan finished")
}

func TestScanDefaultCSVName(t *testing.T) {
	h := newHarness(t, fixture(), nil)
	require.Equal(t, 0, h.run("--csv", filepath.Join(h.dir, report.DefaultCSVPattern)))
	_, err := os.Stat(h.path("open_ports_20261014_093000.csv"))
	assert.NoError(t, err)
}

func TestScanJSONAndFilters(t *testing.T) {
	h := newHarness(t, fixture(), nil)
	code := h.run("scan", "--no-csv", "--json", "--proto", "tcp", "--state", "listen")
	require.Equal(t, 0, code, h.stderr.String())

	var doc struct {
		Outcome string `json:"outcome"`
		Summary struct {
			Total     int `json:"total"`
			Malformed int `json:"malformed"`
		} `json:"summary"`
		Records []struct {
			Protocol  string `json:"protocol"`
			LocalPort any    `json:"local_port"`
		} `json:"records"`
	}
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &doc))
	assert.Equal(t, "observed", doc.Outcome)
	assert.Equal(t, 2, doc.Summary.Total)
	assert.Equal(t, 1, doc.Summary.Malformed)
	for _, r := range doc.Records {
		assert.Equal(t, "TCP", r.Protocol)
	}
	_, err := os.Stat(h.path("open_ports_20261014_093000.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestScanRiskyOnlyWindows(t *testing.T) {
	h := newHarness(t, fixture(), nil)
	require.Equal(t, 0, h.run("--no-csv", "--risky-only", "--os-family", "windows"))
	out := h.stdout.String()
	assert.Contains(t, out, `localport=23`)
	assert.NotContains(t, out, "127.0.0.1:8080")
}

func TestScanEnumerationFailure(t *testing.T) {
	h := newHarness(t, nil, errors.New("netlink: permission denied"))
	code := h.run("--no-csv", "--fail-on-risk")
	assert.Equal(t, 0, code)
	assert.Contains(t, h.stdout.String(), "No open ports found.")
	assert.Contains(t, h.stdout.String(), "could not enumerate connections")
	assert.Contains(t, h.stderr.String(), "permission denied")
}

func TestScanFailOnRisk(t *testing.T) {
	h := newHarness(t, fixture(), nil)
	assert.Equal(t, 1, h.run("--no-csv", "--fail-on-risk"))
}

func TestScanPersistenceFailureContinues(t *testing.T) {
	h := newHarness(t, fixture(), nil)
	code := h.run("--csv", filepath.Join(h.dir, "missing", "ports.csv"))
	assert.Equal(t, 0, code)
	assert.Contains(t, h.stderr.String(), "report persistence failed")
	assert.Contains(t, h.stdout.String(), "0.0.0.0:23", "console still printed")
}

func TestScanInvalidFlags(t *testing.T) {
	h := newHarness(t, fixture(), nil)
	assert.Equal(t, 2, h.run("--proto", "sctp"))
	assert.Equal(t, 2, h.run("--no-such-flag"))
	assert.Equal(t, 2, h.run("--os-family", "plan9"))
	assert.Equal(t, 2, h.run("--json", "--tui"))
}

func TestScanTUI(t *testing.T) {
	h := newHarness(t, fixture(), nil)
	require.Equal(t, 0, h.run("--no-csv", "--tui"))
	assert.Len(t, h.tuiRan, 3)
	assert.Empty(t, h.stdout.String())
}

func TestScanHistoryAndMetrics(t *testing.T) {
	h := newHarness(t, fixture(), nil)
	db := h.path("history.db")
	prom := h.path("openport.prom")
	require.Equal(t, 0, h.run("--no-csv", "--risky-only", "--db", db, "--metrics-file", prom))

	s, err := store.Open(db)
	require.NoError(t, err)
	scans, err := s.RecentScans(5, false)
	require.NoError(t, err)
	require.Len(t, scans, 1)
	assert.Equal(t, 3, scans[0].Total, "history keeps unfiltered records")
	assert.Equal(t, 1, scans[0].Risky)
	require.NoError(t, s.Close())

	data, err := os.ReadFile(prom)
	require.NoError(t, err)
	assert.Contains(t, string(data), `openport_risky_sockets{port="23",protocol="tcp",service="Telnet"} 1`)

	h.stdout.Reset()
	require.Equal(t, 0, h.run("history", "--db", db))
	assert.Contains(t, h.stdout.String(), scans[0].ID)

	h.stdout.Reset()
	require.Equal(t, 0, h.run("history", "--db", db, "--scan", scans[0].ID, "--risky"))
	assert.Contains(t, h.stdout.String(), "0.0.0.0:23")
	assert.NotContains(t, h.stdout.String(), "8080")
}

func TestHistoryRequiresDB(t *testing.T) {
	h := newHarness(t, nil, nil)
	assert.Equal(t, 2, h.run("history"))
	assert.Contains(t, h.stderr.String(), "no database configured")
}

func TestCatalogCommand(t *testing.T) {
	h := newHarness(t, nil, nil)
	cfgPath := h.path("openport.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
catalog:
  - port: 8080
    service: Dev HTTP
    risk: Development server exposed
    remediation: Bind to localhost
`), 0644))

	require.Equal(t, 0, h.run("--config", cfgPath, "catalog"))
	out := h.stdout.String()
	assert.Contains(t, out, "Telnet")
	assert.Contains(t, out, "Dev HTTP")

	h.stdout.Reset()
	require.Equal(t, 0, h.run("catalog", "--json"))
	var entries []map[string]any
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &entries))
	assert.NotEmpty(t, entries)
	assert.False(t, strings.Contains(h.stdout.String(), "Dev HTTP"))
}

func TestFilterKeepsOrder(t *testing.T) {
	recs := []model.AnnotatedRecord{
		{ConnectionRecord: model.ConnectionRecord{Protocol: model.UDP, Status: model.Unknown}},
		{ConnectionRecord: model.ConnectionRecord{Protocol: model.TCP, Status: "LISTEN"}, Security: model.Risky("r")},
		{ConnectionRecord: model.ConnectionRecord{Protocol: model.TCP, Status: "ESTABLISHED"}},
	}
	f, err := parseFilter(&scanOptions{proto: "tcp"})
	require.NoError(t, err)
	got := f.apply(recs)
	require.Len(t, got, 2)
	assert.Equal(t, "LISTEN", got[0].Status)

	f, _ = parseFilter(&scanOptions{proto: "all", riskyOnly: true})
	assert.Len(t, f.apply(recs), 1)
}

func TestResolveColor(t *testing.T) {
	assert.True(t, resolveColor("always", &bytes.Buffer{}))
	assert.False(t, resolveColor("never", os.Stdout))
	assert.False(t, resolveColor("auto", &bytes.Buffer{}))
}

package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/pratik-anurag/openport/internal/model"
)

func records() []model.AnnotatedRecord {
	return []model.AnnotatedRecord{
		{
			ConnectionRecord: model.ConnectionRecord{
				Protocol: model.TCP, LocalAddress: "0.0.0.0", LocalPort: model.KnownPort(3389),
				RemoteAddress: model.Unknown, Status: "LISTEN", PID: model.NewPID(812), ProcessName: "svchost.exe",
			},
			Security:        model.Risky("Frequent target of brute-force attacks"),
			ServiceName:     "RDP",
			Remediation:     "Restrict RDP",
			FirewallCommand: `netsh advfirewall firewall add rule name="Block Port 3389" dir=in action=block protocol=TCP localport=3389`,
		},
		{
			ConnectionRecord: model.ConnectionRecord{
				Protocol: model.UDP, LocalAddress: model.Unknown, RemoteAddress: model.Unknown,
				Status: model.Unknown, ProcessName: model.Unknown,
			},
			Security:        model.Safe(),
			ServiceName:     model.UnknownService,
			Remediation:     model.NoActionNeeded,
			FirewallCommand: model.NoFirewallCommand,
		},
	}
}

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaveScanAndFindings(t *testing.T) {
	db := openTemp(t)

	id, err := db.SaveScan(Scan{
		StartedAt: time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC),
		OSFamily:  "windows",
		Outcome:   "observed",
		Total:     2,
		Risky:     1,
	}, records())
	if err != nil {
		t.Fatalf("SaveScan error: %v", err)
	}
	if id == "" {
		t.Fatal("expected generated scan id")
	}

	all, err := db.Findings(id, false)
	if err != nil {
		t.Fatalf("Findings error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Findings returned %d rows, want 2", len(all))
	}
	if all[0].ServiceName != "RDP" || !all[0].Risky || all[0].PID != "812" {
		t.Errorf("first finding = %+v", all[0])
	}
	if all[1].LocalPort != "unknown" || all[1].PID != "unknown" || all[1].Risky {
		t.Errorf("second finding = %+v", all[1])
	}

	risky, err := db.Findings(id, true)
	if err != nil {
		t.Fatalf("Findings error: %v", err)
	}
	if len(risky) != 1 || risky[0].LocalPort != "3389" {
		t.Fatalf("risky findings = %+v", risky)
	}
}

func TestRecentScansOrderAndLimit(t *testing.T) {
	db := openTemp(t)
	base := time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := db.SaveScan(Scan{
			ID:        []string{"a", "b", "c"}[i],
			StartedAt: base.Add(time.Duration(i) * time.Minute),
			OSFamily:  "linux",
			Outcome:   "nothing-observed",
		}, nil)
		if err != nil {
			t.Fatalf("SaveScan error: %v", err)
		}
	}

	scans, err := db.RecentScans(2, false)
	if err != nil {
		t.Fatalf("RecentScans error: %v", err)
	}
	if len(scans) != 2 {
		t.Fatalf("RecentScans returned %d, want 2", len(scans))
	}
	if scans[0].ID != "c" || scans[1].ID != "b" {
		t.Errorf("order = %s,%s, want c,b", scans[0].ID, scans[1].ID)
	}
	if !scans[0].StartedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("StartedAt = %v", scans[0].StartedAt)
	}
}

func TestSaveScanFailureRecorded(t *testing.T) {
	db := openTemp(t)
	_, err := db.SaveScan(Scan{ID: "x", StartedAt: time.Now(), OSFamily: "other", Outcome: "enumeration-failed", Error: "access denied"}, nil)
	if err != nil {
		t.Fatalf("SaveScan error: %v", err)
	}
	scans, err := db.RecentScans(10, false)
	if err != nil {
		t.Fatalf("RecentScans error: %v", err)
	}
	if len(scans) != 1 || scans[0].Error != "access denied" {
		t.Fatalf("scans = %+v", scans)
	}
}

func TestSaveScanDuplicateID(t *testing.T) {
	db := openTemp(t)
	s := Scan{ID: "dup", StartedAt: time.Now(), OSFamily: "linux", Outcome: "observed"}
	if _, err := db.SaveScan(s, records()); err != nil {
		t.Fatalf("SaveScan error: %v", err)
	}
	if _, err := db.SaveScan(s, records()); err == nil {
		t.Fatal("expected duplicate id error")
	}
	got, _ := db.Findings("dup", false)
	if len(got) != 2 {
		t.Errorf("findings after failed save = %d, want 2", len(got))
	}
}

func TestRecentScansSubSecondOrder(t *testing.T) {
	db := openTemp(t)
	base := time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)
	for id, at := range map[string]time.Time{"older": base, "newer": base.Add(500 * time.Millisecond)} {
		if _, err := db.SaveScan(Scan{ID: id, StartedAt: at, OSFamily: "linux", Outcome: "observed"}, nil); err != nil {
			t.Fatalf("SaveScan error: %v", err)
		}
	}

	scans, err := db.RecentScans(1, false)
	if err != nil {
		t.Fatalf("RecentScans error: %v", err)
	}
	if len(scans) != 1 || scans[0].ID != "newer" {
		t.Fatalf("RecentScans(1) = %+v, want newer", scans)
	}
	if !scans[0].StartedAt.Equal(base.Add(500 * time.Millisecond)) {
		t.Errorf("StartedAt = %v", scans[0].StartedAt)
	}
}

func TestRecentScansRiskyOnlyAppliesBeforeLimit(t *testing.T) {
	db := openTemp(t)
	base := time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)
	scans := []Scan{
		{ID: "risky-old", StartedAt: base, Risky: 1},
		{ID: "risky-mid", StartedAt: base.Add(time.Minute), Risky: 2},
		{ID: "clean-new", StartedAt: base.Add(2 * time.Minute)},
		{ID: "clean-newest", StartedAt: base.Add(3 * time.Minute)},
	}
	for _, s := range scans {
		s.OSFamily, s.Outcome = "linux", "observed"
		if _, err := db.SaveScan(s, nil); err != nil {
			t.Fatalf("SaveScan error: %v", err)
		}
	}

	got, err := db.RecentScans(2, true)
	if err != nil {
		t.Fatalf("RecentScans error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "risky-mid" || got[1].ID != "risky-old" {
		t.Fatalf("RecentScans(2, true) = %+v, want risky-mid,risky-old", got)
	}
}

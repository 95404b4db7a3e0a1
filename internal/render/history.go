package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/pratik-anurag/openport/internal/model"
	"github.com/pratik-anurag/openport/internal/store"
)

// HistoryTable lists stored scans, newest first.
func HistoryTable(scans []store.Scan) string {
	if len(scans) == 0 {
		return "No scans recorded.\n"
	}
	var b strings.Builder
	b.WriteString("SCAN                                  STARTED               OS       OUTCOME             TOTAL  RISKY  SKIPPED\n")
	b.WriteString("────────────────────────────────────  ────────────────────  ───────  ──────────────────  ─────  ─────  ───────\n")
	for _, s := range scans {
		fmt.Fprintf(&b, "%-36s  %-20s  %-7s  %-18s  %5d  %5d  %7d\n",
			s.ID, s.StartedAt.UTC().Format(time.RFC3339), s.OSFamily, s.Outcome, s.Total, s.Risky, s.Malformed)
		if s.Error != "" {
			fmt.Fprintf(&b, "       ↳ %s\n", s.Error)
		}
	}
	return b.String()
}

// FindingsTable lists the stored records of one scan.
func FindingsTable(findings []store.Finding) string {
	if len(findings) == 0 {
		return "No findings.\n"
	}
	var b strings.Builder
	b.WriteString("PROTO  LOCAL                      REMOTE                     STATUS       PID     SERVICE      SECURITY\n")
	b.WriteString("─────  ─────────────────────────  ─────────────────────────  ───────────  ──────  ───────────  ────────\n")
	for _, f := range findings {
		sec := "Safe"
		if f.Risky {
			sec = "RISKY"
		}
		fmt.Fprintf(&b, "%-5s  %-25s  %-25s  %-11s  %-6s  %-11s  %s\n",
			f.Protocol,
			trunc(model.JoinEndpoint(f.LocalAddress, f.LocalPort), 25),
			trunc(model.JoinEndpoint(f.RemoteAddress, f.RemotePort), 25),
			trunc(f.Status, 11),
			f.PID,
			trunc(f.ServiceName, 11),
			sec,
		)
		if f.Risky {
			fmt.Fprintf(&b, "       ↳ risk: %s\n", f.Reason)
			fmt.Fprintf(&b, "       ↳ %s\n", f.Remediation)
			fmt.Fprintf(&b, "       ↳ %s\n", f.FirewallCommand)
		}
	}
	return b.String()
}

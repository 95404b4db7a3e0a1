package render

import (
	"fmt"
	"strings"

	"github.com/pratik-anurag/openport/internal/model"
	"github.com/pratik-anurag/openport/internal/report"
	"github.com/pratik-anurag/openport/internal/risk"
)

type Options struct {
	Color bool
}

// Host is the context line printed above the table.
type Host struct {
	OSFamily   model.OSFamily
	Firewall   string
	Privileged bool

	// Failure is the enumeration error, if the OS call failed.
	Failure error
	LogFile string
}

// Console renders the annotated records as a table, with a remediation
// block under every risky row.
func Console(recs []model.AnnotatedRecord, sum report.Summary, host Host, opt Options) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s os=%s firewall=%s privileged=%s\n",
		label("Host", opt), host.OSFamily, dash(host.Firewall), yesNo(host.Privileged))
	if !host.Privileged {
		b.WriteString("  (owning processes of other users may show as unknown; rerun as root/administrator)\n")
	}
	b.WriteString("\n")

	if host.Failure != nil {
		fmt.Fprintf(&b, "%s could not enumerate connections: %v\n", severityLabel("error", opt), host.Failure)
		if host.LogFile != "" {
			fmt.Fprintf(&b, "  see %s for details\n", host.LogFile)
		}
	}
	if len(recs) == 0 {
		b.WriteString("No open ports found.\n")
		return b.String()
	}

	b.WriteString("PROTO  LOCAL                      REMOTE                     STATUS       PID     PROCESS          SERVICE      SECURITY\n")
	b.WriteString("─────  ─────────────────────────  ─────────────────────────  ───────────  ──────  ───────────────  ───────────  ────────\n")
	for _, r := range recs {
		fmt.Fprintf(&b, "%-5s  %-25s  %-25s  %-11s  %-6s  %-15s  %-11s  %s\n",
			r.Protocol,
			trunc(r.LocalEndpoint(), 25),
			trunc(r.RemoteEndpoint(), 25),
			stateLabel(trunc(r.Status, 11), 11, opt),
			r.PID.String(),
			trunc(r.ProcessName, 15),
			trunc(r.ServiceName, 11),
			securityLabel(r.Security, opt),
		)
		if r.Security.IsRisky() {
			fmt.Fprintf(&b, "       ↳ risk: %s\n", r.Security.Reason())
			fmt.Fprintf(&b, "       ↳ %s\n", r.Remediation)
			fmt.Fprintf(&b, "       ↳ %s\n", r.FirewallCommand)
		}
	}

	fmt.Fprintf(&b, "\n%s %d connections (%d tcp, %d udp), %d risky",
		label("Summary", opt), sum.Total, sum.TCP, sum.UDP, sum.Risky)
	if sum.Malformed > 0 {
		fmt.Fprintf(&b, ", %d unreadable records skipped", sum.Malformed)
	}
	b.WriteString("\n")
	return b.String()
}

// CatalogTable lists risk catalog entries.
func CatalogTable(entries []risk.Entry) string {
	var b strings.Builder
	b.WriteString("PORT   SERVICE        RISK\n")
	b.WriteString("─────  ─────────────  ─────────────────────────────────────────────\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "%-5d  %-13s  %s\n", e.Port, trunc(e.Service, 13), e.Risk)
		fmt.Fprintf(&b, "       ↳ %s\n", e.Remediation)
	}
	return b.String()
}

func trunc(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func label(s string, opt Options) string {
	if !opt.Color {
		return s
	}
	return ansiBold + s + ansiReset
}

// stateLabel pads before coloring so escape codes don't break alignment.
func stateLabel(state string, width int, opt Options) string {
	padded := fmt.Sprintf("%-*s", width, state)
	if !opt.Color {
		return padded
	}
	switch state {
	case "LISTEN":
		return ansiGreen + padded + ansiReset
	case "ESTABLISHED":
		return ansiBlue + padded + ansiReset
	default:
		return padded
	}
}

func securityLabel(s model.SecurityStatus, opt Options) string {
	if !s.IsRisky() {
		if !opt.Color {
			return "Safe"
		}
		return ansiGreen + "Safe" + ansiReset
	}
	if !opt.Color {
		return "RISKY"
	}
	return ansiRed + "RISKY" + ansiReset
}

func severityLabel(sev string, opt Options) string {
	tag := strings.ToUpper(sev)
	if !opt.Color {
		return "[" + tag + "]"
	}
	switch sev {
	case "warn":
		return ansiYellow + "[" + tag + "]" + ansiReset
	case "error":
		return ansiRed + "[" + tag + "]" + ansiReset
	default:
		return ansiBlue + "[" + tag + "]" + ansiReset
	}
}

const (
	ansiReset  = "\x1b[0m"
	ansiBold   = "\x1b[1m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

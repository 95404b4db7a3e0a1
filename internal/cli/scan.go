package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pratik-anurag/openport/internal/collector"
	"github.com/pratik-anurag/openport/internal/config"
	"github.com/pratik-anurag/openport/internal/logging"
	"github.com/pratik-anurag/openport/internal/metrics"
	"github.com/pratik-anurag/openport/internal/model"
	"github.com/pratik-anurag/openport/internal/render"
	"github.com/pratik-anurag/openport/internal/report"
	"github.com/pratik-anurag/openport/internal/risk"
	"github.com/pratik-anurag/openport/internal/store"
)

type scanOptions struct {
	csvPath     string
	noCSV       bool
	jsonStdout  bool
	jsonOut     string
	dbPath      string
	metricsFile string
	color       string
	osFamily    string
	proto       string
	riskyOnly   bool
	state       string
	interactive bool
	failOnRisk  bool
}

func addScanFlags(cmd *cobra.Command, o *scanOptions) {
	f := cmd.Flags()
	f.StringVar(&o.csvPath, "csv", "", "CSV report path; Go time layouts are expanded (default open_ports_20060102_150405.csv)")
	f.BoolVar(&o.noCSV, "no-csv", false, "do not write the CSV report")
	f.BoolVar(&o.jsonStdout, "json", false, "print the report as JSON instead of a table")
	f.StringVar(&o.jsonOut, "json-out", "", "also write the JSON report to this path")
	f.StringVar(&o.dbPath, "db", "", "record the scan in this SQLite history database")
	f.StringVar(&o.metricsFile, "metrics-file", "", "write Prometheus textfile metrics to this path")
	f.StringVar(&o.color, "color", "", "color output: auto|always|never")
	f.StringVar(&o.osFamily, "os-family", "", "firewall dialect override: windows|linux|other")
	f.StringVar(&o.proto, "proto", "all", "protocol filter: tcp|udp|all")
	f.BoolVar(&o.riskyOnly, "risky-only", false, "only show sockets on risky ports")
	f.StringVar(&o.state, "state", "", "only show sockets in this state, e.g. LISTEN")
	f.BoolVar(&o.interactive, "tui", false, "browse results interactively")
	f.BoolVar(&o.failOnRisk, "fail-on-risk", false, "exit 1 when any risky socket is found")
}

func newScanCmd(deps Deps, g *globalFlags) *cobra.Command {
	o := &scanOptions{}
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Enumerate sockets, classify them and write reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, deps, g, o)
		},
	}
	addScanFlags(cmd, o)
	return cmd
}

// apply copies the flags the user set onto cfg.
func (o *scanOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("csv") {
		cfg.CSVPath = o.csvPath
	}
	if flags.Changed("json-out") {
		cfg.JSONPath = o.jsonOut
	}
	if flags.Changed("db") {
		cfg.DBPath = o.dbPath
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = o.metricsFile
	}
	if flags.Changed("color") {
		cfg.Color = o.color
	}
	if flags.Changed("os-family") {
		cfg.OSFamily = o.osFamily
	}
}

// filter keeps the records matching the display flags, in order.
type filter struct {
	proto     model.Protocol // empty means all
	riskyOnly bool
	state     string
}

func parseFilter(o *scanOptions) (filter, error) {
	f := filter{riskyOnly: o.riskyOnly, state: strings.TrimSpace(o.state)}
	switch strings.ToLower(strings.TrimSpace(o.proto)) {
	case "", "all":
	case "tcp":
		f.proto = model.TCP
	case "udp":
		f.proto = model.UDP
	default:
		return f, fmt.Errorf("invalid --proto %q (tcp|udp|all)", o.proto)
	}
	return f, nil
}

func (f filter) apply(recs []model.AnnotatedRecord) []model.AnnotatedRecord {
	out := make([]model.AnnotatedRecord, 0, len(recs))
	for _, r := range recs {
		if f.proto != "" && r.Protocol != f.proto {
			continue
		}
		if f.riskyOnly && !r.Security.IsRisky() {
			continue
		}
		if f.state != "" && !strings.EqualFold(r.Status, f.state) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func runScan(cmd *cobra.Command, deps Deps, g *globalFlags, o *scanOptions) error {
	cfg, err := loadConfig(cmd, g)
	if err != nil {
		return err
	}
	o.apply(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return usageErr(err)
	}
	flt, err := parseFilter(o)
	if err != nil {
		return usageErr(err)
	}
	if o.jsonStdout && o.interactive {
		return usageErr(errors.New("--json and --tui cannot be combined"))
	}
	catalog, err := cfg.BuildCatalog()
	if err != nil {
		return usageErr(fmt.Errorf("config: %w", err))
	}

	family := deps.DetectOSFamily()
	if cfg.OSFamily != "" {
		family, _ = model.ParseOSFamily(cfg.OSFamily)
	}

	log, closeLog := openLogger(cfg, deps.Stderr)
	defer closeLog()

	scanID := uuid.NewString()
	started := deps.Now()
	log = log.With("scan_id", scanID)
	log.Info("scan started", "os_family", family.String())

	res := collector.New(deps.Enumerator, log).Collect()
	all := risk.NewClassifier(catalog, log).ClassifyAll(res.Records, family)
	shown := flt.apply(all)
	sum := report.Summarize(shown, len(res.Failures))
	risky := report.Summarize(all, 0).Risky

	stderr := deps.Stderr
	if res.Err != nil {
		fmt.Fprintf(stderr, "openport: %v\n", res.Err)
	}

	if !o.noCSV {
		path := report.ExpandPath(cfg.CSVPath, started)
		if err := report.SaveCSV(path, shown); err != nil {
			log.Error("failed to save CSV report", "path", path, "error", err)
			fmt.Fprintf(stderr, "openport: %v\n", err)
		} else {
			log.Info("CSV report saved", "path", path, "records", len(shown))
		}
	}

	doc := report.Document{
		ScanID:    scanID,
		Timestamp: started.UTC(),
		OSFamily:  family.String(),
		Outcome:   res.Outcome().String(),
		Summary:   sum,
		Records:   shown,
	}
	if res.Err != nil {
		doc.Error = res.Err.Error()
	}
	if cfg.JSONPath != "" {
		path := report.ExpandPath(cfg.JSONPath, started)
		if err := report.SaveJSON(path, doc); err != nil {
			log.Error("failed to save JSON report", "path", path, "error", err)
			fmt.Fprintf(stderr, "openport: %v\n", err)
		} else {
			log.Info("JSON report saved", "path", path)
		}
	}

	if cfg.DBPath != "" {
		recordHistory(log, cfg.DBPath, store.Scan{
			ID:        scanID,
			StartedAt: started,
			OSFamily:  family.String(),
			Outcome:   doc.Outcome,
			Total:     len(all),
			Risky:     risky,
			Malformed: len(res.Failures),
			Error:     doc.Error,
		}, all, stderr)
	}

	if cfg.MetricsFile != "" {
		snap := metrics.NewSnapshot()
		snap.Record(all, len(res.Failures), res.Err == nil, started)
		if err := snap.WriteTextfile(cfg.MetricsFile); err != nil {
			log.Error("failed to write metrics", "path", cfg.MetricsFile, "error", err)
			fmt.Fprintf(stderr, "openport: %v\n", err)
		}
	}

	switch {
	case o.jsonStdout:
		if err := report.WriteJSON(deps.Stdout, doc); err != nil {
			return runtimeErr(err)
		}
	case o.interactive:
		if err := deps.RunTUI(shown, sum); err != nil {
			return runtimeErr(fmt.Errorf("tui: %w", err))
		}
	default:
		fw := deps.Firewall()
		host := render.Host{
			OSFamily:   family,
			Firewall:   firewallLabel(fw.Name, fw.Active),
			Privileged: deps.Privileged(),
			Failure:    res.Err,
			LogFile:    cfg.LogFile,
		}
		fmt.Fprint(deps.Stdout, render.Console(shown, sum, host, renderOptions(cfg.Color, deps.Stdout)))
	}

	log.Info("scan finished", "outcome", doc.Outcome, "risky", risky, "elapsed", deps.Now().Sub(started).Round(time.Millisecond))
	if o.failOnRisk && risky > 0 {
		return &exitError{code: 1}
	}
	return nil
}

func recordHistory(log *logging.Logger, path string, s store.Scan, recs []model.AnnotatedRecord, stderr io.Writer) {
	db, err := store.Open(path)
	if err != nil {
		log.Error("failed to open history database", "path", path, "error", err)
		fmt.Fprintf(stderr, "openport: history: %v\n", err)
		return
	}
	defer db.Close()
	if _, err := db.SaveScan(s, recs); err != nil {
		log.Error("failed to record scan", "path", path, "error", err)
		fmt.Fprintf(stderr, "openport: history: %v\n", err)
	}
}

func firewallLabel(name string, active bool) string {
	switch {
	case name == "":
		return ""
	case active:
		return name + " (active)"
	default:
		return name + " (inactive)"
	}
}

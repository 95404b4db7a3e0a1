package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pratik-anurag/openport/internal/render"
	"github.com/pratik-anurag/openport/internal/store"
)

func newHistoryCmd(deps Deps, g *globalFlags) *cobra.Command {
	var (
		dbPath string
		limit  int
		risky  bool
		scanID string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded scans, or the findings of one scan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, g)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("db") {
				cfg.DBPath = dbPath
			}
			if cfg.DBPath == "" {
				return usageErr(errors.New("history: no database configured (--db or db_path)"))
			}
			if limit <= 0 {
				return usageErr(fmt.Errorf("history: invalid --limit %d", limit))
			}

			db, err := store.Open(cfg.DBPath)
			if err != nil {
				return runtimeErr(fmt.Errorf("history: %w", err))
			}
			defer db.Close()

			if scanID != "" {
				findings, err := db.Findings(scanID, risky)
				if err != nil {
					return runtimeErr(fmt.Errorf("history: %w", err))
				}
				fmt.Fprint(deps.Stdout, render.FindingsTable(findings))
				return nil
			}

			scans, err := db.RecentScans(limit, risky)
			if err != nil {
				return runtimeErr(fmt.Errorf("history: %w", err))
			}
			fmt.Fprint(deps.Stdout, render.HistoryTable(scans))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&dbPath, "db", "", "SQLite history database (env OPENPORT_DB_PATH)")
	f.IntVar(&limit, "limit", 20, "number of scans to list")
	f.BoolVar(&risky, "risky", false, "only scans with risky sockets, or only risky findings with --scan")
	f.StringVar(&scanID, "scan", "", "show the findings of this scan id")
	return cmd
}

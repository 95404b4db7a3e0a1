package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pratik-anurag/openport/internal/config"
	"github.com/pratik-anurag/openport/internal/logging"
)

// loadConfig reads the config file and applies the persistent flags on top.
func loadConfig(cmd *cobra.Command, g *globalFlags) (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, usageErr(fmt.Errorf("config: %w", err))
	}
	flags := cmd.Flags()
	if flags.Changed("log-file") {
		cfg.LogFile = g.logFile
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = g.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, usageErr(err)
	}
	return cfg, nil
}

// openLogger opens the configured log file, falling back to stderr when it
// cannot be opened. The returned func closes the file.
func openLogger(cfg *config.Config, stderr io.Writer) (*logging.Logger, func()) {
	level, _ := logging.ParseLevel(cfg.LogLevel)

	out, closeFn, err := logging.OpenFile(cfg.LogFile)
	if err != nil {
		fmt.Fprintf(stderr, "openport: %v; logging to stderr\n", err)
		out, closeFn = stderr, func() error { return nil }
	}
	lc := logging.DefaultConfig()
	lc.Level = level
	lc.Output = out
	lc.JSON = cfg.LogJSON
	log := logging.New(lc)
	return log, func() { _ = closeFn() }
}

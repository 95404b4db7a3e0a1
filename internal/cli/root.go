// Package cli wires the scan pipeline to the openport command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pratik-anurag/openport/internal/model"
	"github.com/pratik-anurag/openport/internal/platform"
	"github.com/pratik-anurag/openport/internal/report"
	"github.com/pratik-anurag/openport/internal/sockets"
	"github.com/pratik-anurag/openport/internal/tui"
)

// Deps are the collaborators a command touches outside the process.
type Deps struct {
	Enumerator sockets.Enumerator
	Stdout     io.Writer
	Stderr     io.Writer
	Now        func() time.Time

	DetectOSFamily func() model.OSFamily
	Firewall       func() platform.FirewallInfo
	Privileged     func() bool
	RunTUI         func([]model.AnnotatedRecord, report.Summary) error
}

// DefaultDeps talks to the real host.
func DefaultDeps() Deps {
	return Deps{
		Enumerator:     sockets.System(),
		Stdout:         os.Stdout,
		Stderr:         os.Stderr,
		Now:            time.Now,
		DetectOSFamily: platform.DetectOSFamily,
		Firewall:       platform.FirewallStatus,
		Privileged:     platform.Privileged,
		RunTUI:         tui.Run,
	}
}

// exitError carries a process exit code through cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func usageErr(err error) error   { return &exitError{code: 2, err: err} }
func runtimeErr(err error) error { return &exitError{code: 1, err: err} }

type globalFlags struct {
	configPath string
	logFile    string
	logLevel   string
}

// NewRootCmd builds the command tree. Running it without a subcommand scans.
func NewRootCmd(deps Deps) *cobra.Command {
	g := &globalFlags{}
	rootScan := &scanOptions{}

	root := &cobra.Command{
		Use:           "openport",
		Short:         "List open sockets and flag ports known to carry risk",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, deps, g, rootScan)
		},
	}
	root.SetOut(deps.Stdout)
	root.SetErr(deps.Stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageErr(err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "YAML config file (env OPENPORT_CONFIG)")
	pf.StringVar(&g.logFile, "log-file", "", "log file path, - for stderr (default open_ports.log)")
	pf.StringVar(&g.logLevel, "log-level", "", "log level: debug|info|warn|error")
	addScanFlags(root, rootScan)

	root.AddCommand(newScanCmd(deps, g))
	root.AddCommand(newCatalogCmd(deps, g))
	root.AddCommand(newHistoryCmd(deps, g))
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute(args []string, deps Deps) int {
	root := NewRootCmd(deps)
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return 0
	}

	code := 2
	var ee *exitError
	if errors.As(err, &ee) {
		code = ee.code
		err = ee.err
	}
	if err != nil {
		fmt.Fprintln(deps.Stderr, "openport:", err)
	}
	return code
}

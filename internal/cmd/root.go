// Package cmd implements the pybuild command line.
package cmd

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/thediveo/enumflag/v2"

	"github.com/pyproject-tools/pybuild/internal/config"
	"github.com/pyproject-tools/pybuild/internal/logging"
	"github.com/pyproject-tools/pybuild/internal/policy"
	"github.com/pyproject-tools/pybuild/internal/report"
	"github.com/pyproject-tools/pybuild/internal/scan"
)

type globalFlags struct {
	configFiles []string
	logLevel    string
	logFormat   string
	format      report.Format
	policyFile  string
	policyQuery string
}

// env is the state shared by all commands, built from the configuration
// files and the global flags. Flags take precedence over configuration.
type env struct {
	log     *logging.Logger
	format  report.Format
	policy  *policy.Policy
	scanner *scan.Service
	stdout  io.Writer
	stderr  io.Writer
}

// NewRootCommand returns the pybuild command tree writing to stdout and stderr.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:           "pybuild",
		Short:         "Discover the build systems of Python projects",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringArrayVarP(&flags.configFiles, "config", "c", nil, "configuration file or directory (repeatable, default "+config.DefaultConfigFile+" if present)")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&flags.logFormat, "log-format", "", "log format (text, json)")
	pf.VarP(enumflag.New(&flags.format, "format", report.FormatIDs, enumflag.EnumCaseInsensitive), "format", "o", "output format (table, json, yaml)")
	pf.StringVar(&flags.policyFile, "policy", "", "Rego policy file checked against every descriptor")
	pf.StringVar(&flags.policyQuery, "policy-query", "", "policy query (default "+policy.DefaultQuery+")")

	setup := func(cmd *cobra.Command) (*env, error) {
		return flags.setup(cmd, stdout, stderr)
	}

	root.AddCommand(
		newDiscoverCommand(setup),
		newScanCommand(setup),
		newCheckCommand(setup),
		newSchemaCommand(),
	)

	return root
}

func (f *globalFlags) setup(cmd *cobra.Command, stdout, stderr io.Writer) (*env, error) {
	cfg, err := config.Load(f.configFiles)
	if err != nil {
		return nil, err
	}

	log, err := logging.New(logging.Config{
		Level:  cmp.Or(f.logLevel, cfg.Log.Level),
		Format: logging.Format(cmp.Or(f.logFormat, cfg.Log.Format)),
		Output: stderr,
	})
	if err != nil {
		return nil, err
	}

	format := f.format
	if !cmd.Flags().Changed("format") {
		if format, err = report.ParseFormat(cfg.Output.Format); err != nil {
			return nil, err
		}
	}

	rt := &env{log: log, format: format, stdout: stdout, stderr: stderr}

	policyFile, policyQuery := f.policyFile, f.policyQuery
	if policyFile == "" && cfg.Policy != nil {
		policyFile = cfg.Policy.File
		policyQuery = cmp.Or(policyQuery, cfg.Policy.Query)
	}
	if policyFile != "" {
		if rt.policy, err = policy.Load(cmd.Context(), policyFile, policyQuery); err != nil {
			return nil, err
		}
		log.Debugf("loaded policy %q", policyFile)
	}

	rt.scanner, err = scan.New(cfg.Scan)
	if err != nil {
		return nil, err
	}
	rt.scanner.WithLogger(log).WithPolicy(rt.policy)
	if cfg.Scan.Progress {
		rt.scanner.WithProgress(stderr)
	}

	return rt, nil
}

// Run executes the command line args and returns the exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCommand(stdout, stderr)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err != nil {
		var ee *exitError
		if !errors.As(err, &ee) || ee.err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
	}
	return ExitCode(err)
}

// Main runs the command with the process arguments.
func Main() int {
	return Run(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
}

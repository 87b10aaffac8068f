package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pyproject-tools/pybuild/internal/report"
)

func newScanCommand(setup func(*cobra.Command) (*env, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "scan [roots...]",
		Short: "Discover every project below the given roots",
		Long: `Discover every project below the given roots (default ".").

Projects are selected by the scan.include and scan.exclude globs of the
configuration. The exit code is the one of the first failing project in
report order, or 0 if every project was discovered and passed the policy.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd)
			if err != nil {
				return err
			}

			entries, err := rt.scan(cmd, args)
			if err != nil {
				return err
			}

			if err := report.Write(rt.stdout, rt.format, entries); err != nil {
				return err
			}

			if code := entriesCode(entries); code != ExitOK {
				return withCode(code, nil)
			}
			return nil
		},
	}
}

func (rt *env) scan(cmd *cobra.Command, roots []string) ([]report.Entry, error) {
	if len(roots) == 0 {
		roots = []string{"."}
	}

	entries, err := rt.scanner.Run(cmd.Context(), roots)
	if err != nil {
		return nil, err
	}

	rt.log.Infof("discovered %d projects", len(entries))
	return entries, nil
}

func entriesCode(entries []report.Entry) int {
	for _, e := range entries {
		switch {
		case e.Error != "":
			return kindCode(e.ErrorKind)
		case len(e.Violations) > 0:
			return ExitPolicy
		}
	}
	return ExitOK
}

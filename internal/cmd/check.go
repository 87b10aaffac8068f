package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pyproject-tools/pybuild/internal/report"
)

func newCheckCommand(setup func(*cobra.Command) (*env, error)) *cobra.Command {
	var reportFile string

	cmd := &cobra.Command{
		Use:   "check --report FILE [roots...]",
		Short: "Compare a saved JSON report with the current state",
		Long: `Scan the given roots (default ".") and compare the result with a report
written by "pybuild scan --format json". Differences are printed as a unified
diff and exit with code 7.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd)
			if err != nil {
				return err
			}

			f, err := os.Open(reportFile)
			if err != nil {
				return err
			}
			defer f.Close()

			saved, err := report.Load(f)
			if err != nil {
				return fmt.Errorf("%s: %w", reportFile, err)
			}

			current, err := rt.scan(cmd, args)
			if err != nil {
				return err
			}

			diff, err := report.Diff(saved, current)
			if err != nil {
				return err
			}
			if diff != "" {
				fmt.Fprint(rt.stdout, diff)
				return withCode(ExitDrift, errors.New("build systems differ from "+reportFile))
			}

			rt.log.Infof("%d projects match %s", len(current), reportFile)
			return nil
		},
	}

	cmd.Flags().StringVar(&reportFile, "report", "", "saved JSON report")
	_ = cmd.MarkFlagRequired("report")

	return cmd
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pyproject-tools/pybuild/internal/pyproject"
	"github.com/pyproject-tools/pybuild/internal/report"
)

func newDiscoverCommand(setup func(*cobra.Command) (*env, error)) *cobra.Command {
	var exact bool

	cmd := &cobra.Command{
		Use:   "discover [dir]",
		Short: "Print the build descriptor of one project",
		Long: `Print the build descriptor of the project containing dir (default ".").

The project root is the nearest directory at or above dir holding a
pyproject.toml. A project without one gets the legacy setuptools defaults.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd)
			if err != nil {
				return err
			}

			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			root := dir
			if !exact {
				found, ok, err := pyproject.FindRoot(dir)
				if err != nil {
					return err
				}
				if ok {
					root = found
				}
			}
			rt.log.Debugf("discovering project %q", root)

			desc, violations, err := rt.scanner.Discover(cmd.Context(), root)
			if err != nil {
				return err
			}

			if err := report.WriteDescriptor(rt.stdout, rt.format, desc); err != nil {
				return err
			}

			if len(violations) > 0 {
				for _, v := range violations {
					fmt.Fprintf(rt.stderr, "policy: %s\n", v)
				}
				return withCode(ExitPolicy, nil)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&exact, "exact", false, "use dir as the project root instead of searching upwards")

	return cmd
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/athenaprobe/internal/output"
	"github.com/wesleyorama2/athenaprobe/internal/probe"
)

func newTargetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "targets",
		Short: "Print the worklist without calling the athena service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			format, opts, err := formatOptions(cmd)
			if err != nil {
				return err
			}

			plan, err := probe.Targets(cmd.Context(), *cfg)
			if err != nil {
				return err
			}

			formatted, err := output.GetFormatter(format, opts).FormatPlan(plan)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatted)
			return nil
		},
	}

	addConfigFlags(cmd.Flags())
	addFormatFlags(cmd.Flags())
	return cmd
}

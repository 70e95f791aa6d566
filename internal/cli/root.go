package cli

import (
	"github.com/spf13/cobra"
)

var version = "0.1.0"

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	var debug, jsonLogs, noColor bool

	root := &cobra.Command{
		Use:     "athenaprobe",
		Short:   "Concurrent load probe for the athena summoner service",
		Version: version,
		Long: `athenaprobe collects summoner names from live-game providers, replicates
the list, and calls the athena service once per entry with bounded
concurrency. It reports the latency of every call, the mean latency and
the total wall time of the batch.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(debug, jsonLogs, noColor)
		},
		Run: func(cmd *cobra.Command, args []string) {
			// If no subcommand is provided, print help
			_ = cmd.Help()
		},
	}

	root.PersistentFlags().BoolVar(&debug, "debug", false, "Use debug level logging (logs every response)")
	root.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Write logs as JSON instead of console output")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	root.AddCommand(newRunCmd())
	root.AddCommand(newTargetsCmd())
	root.AddCommand(newCallCmd())
	root.AddCommand(newVersionCmd())

	return root
}

// Execute runs the command tree with os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("athenaprobe %s\n", version)
		},
	}
}

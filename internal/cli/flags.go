package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/wesleyorama2/athenaprobe/internal/config"
	"github.com/wesleyorama2/athenaprobe/internal/dispatch"
	"github.com/wesleyorama2/athenaprobe/internal/output"
)

// addConfigFlags registers the flags config.Load binds by name.
func addConfigFlags(fs *pflag.FlagSet) {
	fs.StringP("config", "c", "", "YAML configuration file")
	fs.String("base-url", "", "Base URL of the athena service (env ATHENA_BASE_URL)")
	fs.String("endpoint", dispatch.DefaultEndpoint, "Endpoint template with {{baseUrl}}, {{region}} and {{name}}")
	fs.Int("replication", 3, "Repeat the merged target list this many times")
	fs.Int("concurrency", dispatch.DefaultConcurrency, "Maximum calls in flight (0 = unbounded)")
	fs.StringP("timeout", "t", dispatch.DefaultTimeout.String(), "Per-call timeout: seconds (2.5) or a duration (1500ms)")
	fs.Bool("insecure", false, "Skip TLS certificate verification")
	fs.StringSlice("providers", []string{config.ProviderRiot, config.ProviderGraphQL}, "Providers to query, in order")
}

func addFormatFlags(fs *pflag.FlagSet) {
	fs.StringP("format", "f", string(output.FormatText), "Output format: text, json, yaml")
	fs.Bool("pretty", true, "Indent JSON output")
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	file, _ := cmd.Flags().GetString("config")
	return config.Load(config.LoadOptions{File: file, Flags: cmd.Flags()})
}

func formatOptions(cmd *cobra.Command) (output.OutputFormat, output.Options, error) {
	formatName, _ := cmd.Flags().GetString("format")
	format, err := output.ParseFormat(formatName)
	if err != nil {
		return "", output.Options{}, err
	}

	noColor, _ := cmd.Flags().GetBool("no-color")
	pretty, _ := cmd.Flags().GetBool("pretty")
	return format, output.Options{
		NoColor: noColor || !output.IsTerminal(cmd.OutOrStdout()),
		Pretty:  pretty,
	}, nil
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/athenaprobe/internal/dispatch"
	probehttp "github.com/wesleyorama2/athenaprobe/internal/http"
	"github.com/wesleyorama2/athenaprobe/internal/output"
	"github.com/wesleyorama2/athenaprobe/internal/probe"
	"github.com/wesleyorama2/athenaprobe/internal/target"
)

func newCallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call REGION NAME",
		Short: "Call the athena service for one target and show the timing breakdown",
		Example: `  athenaprobe call NA1 "CE Fed" --base-url https://athena.example.com
  athenaprobe call KR Faker -v`,
		Args: cobra.ExactArgs(2),
		RunE: runCall,
	}

	addConfigFlags(cmd.Flags())
	cmd.Flags().BoolP("verbose", "v", false, "Show the response body and size")
	return cmd
}

func runCall(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	endpoint, err := dispatch.NewEndpoint(cfg.Endpoint, cfg.BaseURL)
	if err != nil {
		return err
	}

	noColor, _ := cmd.Flags().GetBool("no-color")
	verbose, _ := cmd.Flags().GetBool("verbose")
	formatter := output.NewFormatter(output.Options{
		NoColor:  noColor || !output.IsTerminal(cmd.OutOrStdout()),
		Outcomes: verbose,
	})

	t := target.New(args[0], args[1])
	url := endpoint.Resolve(t)

	client := probe.NewSession(*cfg)
	defer client.CloseIdleConnections()

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
	defer cancel()

	resp, err := client.Do(ctx, probehttp.NewRequest(http.MethodGet, url))
	if err != nil {
		var reqErr *probehttp.RequestError
		if errors.As(err, &reqErr) {
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatCallError(t, url, reqErr.Elapsed, reqErr.Err))
		}
		return fmt.Errorf("call %s: %w", t, err)
	}

	fmt.Fprint(cmd.OutOrStdout(), formatter.FormatCall(t, url, resp))
	return nil
}

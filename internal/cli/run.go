package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/athenaprobe/internal/metrics"
	"github.com/wesleyorama2/athenaprobe/internal/output"
	"github.com/wesleyorama2/athenaprobe/internal/probe"
)

// progressInterval is how often live progress is printed.
const progressInterval = time.Second

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Probe the athena service with the collected targets",
		Long: `Collect targets from the configured providers, replicate them, call the
athena service once per target and print the latency report.

  athenaprobe run --base-url https://athena.example.com
  athenaprobe run -c probe.yaml --concurrency 0 --format json

Interrupting the run (Ctrl-C) aborts in-flight calls and discards the batch.`,
		Args: cobra.NoArgs,
		RunE: runProbe,
	}

	addConfigFlags(cmd.Flags())
	addFormatFlags(cmd.Flags())
	cmd.Flags().Bool("outcomes", false, "Include every call in the report")
	cmd.Flags().BoolP("quiet", "q", false, "Disable live progress output")

	return cmd
}

func runProbe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	format, opts, err := formatOptions(cmd)
	if err != nil {
		return err
	}
	opts.Outcomes, _ = cmd.Flags().GetBool("outcomes")
	quiet, _ := cmd.Flags().GetBool("quiet")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	progress := &progressPrinter{out: cmd.ErrOrStderr(), tty: output.IsTerminal(cmd.ErrOrStderr())}
	var runOpts []probe.Option
	if !quiet {
		runOpts = append(runOpts, probe.OnDispatch(func(r *metrics.Recorder) {
			progress.start(ctx, r)
		}))
	}

	result, err := probe.Run(ctx, *cfg, runOpts...)
	progress.stop()
	if err != nil {
		return err
	}

	formatted, err := output.GetFormatter(format, opts).FormatResult(result)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), formatted)
	return nil
}

// progressPrinter reports a running batch until stopped.
type progressPrinter struct {
	out  io.Writer
	tty  bool
	done chan struct{}
	wg   sync.WaitGroup
}

func (p *progressPrinter) start(ctx context.Context, r *metrics.Recorder) {
	p.done = make(chan struct{})
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(progressInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				p.print(output.FormatProgress(r.Progress()))
			case <-ctx.Done():
				return
			case <-p.done:
				if p.tty {
					p.print(output.FormatProgress(r.Progress()))
					fmt.Fprintln(p.out)
				}
				return
			}
		}
	}()
}

func (p *progressPrinter) print(line string) {
	if p.tty {
		fmt.Fprintf(p.out, "\r\033[K%s", line)
		return
	}
	fmt.Fprintln(p.out, line)
}

func (p *progressPrinter) stop() {
	if p.done == nil {
		return
	}
	close(p.done)
	p.wg.Wait()
}

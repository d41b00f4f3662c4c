// Command kokkoprof replays a recorded Kokkos lifecycle event trace
// through the profiling connector and prints the resulting region report.
// Traces are JSON lines, one lifecycle event per line, typically captured
// by a runtime shim in a prior run.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hpctools/kokkoprof/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "kokkoprof",
		Short:         "Kokkos region profiling connector tools",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.AddCommand(newReplayCmd())
	return root
}

// replayOptions holds the replay command's flag values.
type replayOptions struct {
	cfgFile    string
	rateLimit  float64
	outputDir  string
	jsonOut    bool
	quiet      bool
	thresholds []string
}

// configureFlags sets up all replay flags on the provided flag set.
func (o *replayOptions) configureFlags(flags *pflag.FlagSet) {
	flags.StringVar(&o.cfgFile, "config", "", "Path to YAML or JSON connector configuration")
	flags.Float64VarP(&o.rateLimit, "rate", "r", 0, "Events per second to replay (0 means as fast as possible)")
	flags.StringVar(&o.outputDir, "output-dir", "", "Directory for the JSON report file")
	flags.BoolVar(&o.jsonOut, "json", false, "Print the report as JSON instead of text")
	flags.BoolVarP(&o.quiet, "quiet", "q", false, "Suppress banner and console report")
	flags.StringArrayVar(&o.thresholds, "threshold", nil, "Performance assertion, e.g. 'kokkos/dev0/saxpy:p99 < 5' (repeatable, ms)")
}

func newReplayCmd() *cobra.Command {
	var opts replayOptions

	cmd := &cobra.Command{
		Use:   "replay <trace.jsonl>",
		Short: "Replay a JSON-lines event trace through the connector",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// The connector's contract is environment-driven; flags
			// translate to the same variables an embedded run would set.
			if opts.outputDir != "" {
				if err := os.Setenv(config.EnvOutputDir, opts.outputDir); err != nil {
					return err
				}
			}
			if opts.jsonOut {
				if err := os.Setenv(config.EnvJSONOutput, "true"); err != nil {
					return err
				}
			}
			if opts.quiet {
				if err := os.Setenv(config.EnvQuiet, "true"); err != nil {
					return err
				}
			}
			return runReplay(cmd.OutOrStdout(), args[0], opts.cfgFile, opts.rateLimit, opts.thresholds)
		},
	}
	opts.configureFlags(cmd.Flags())

	return cmd
}

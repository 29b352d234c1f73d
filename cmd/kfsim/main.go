// Command kfsim simulates a linear dynamical system and estimates its state
// with information form Kalman filter.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cobra.CheckErr(NewCmd().ExecuteContext(ctx))
}

// NewCmd returns kfsim root command.
func NewCmd() *cobra.Command {
	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:           "kfsim [command] [flags]",
		Short:         "kfsim simulates a linear system and estimates its state with Kalman filter",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Print(cmd.UsageString())
		},
	}

	runCmd := &cobra.Command{
		Use:   "run [flags]",
		Short: "Run simulation scenario",
		Args:  cobra.NoArgs,
		RunE:  doRun,
	}
	runCmd.Flags().StringP("config", "c", "", "`<path>` to YAML scenario, the reference scenario is used if empty")
	runCmd.Flags().IntP("steps", "n", 0, "number of simulation steps, overrides the scenario")
	runCmd.Flags().Uint64("seed", 0, "noise seed, overrides the scenario")
	runCmd.Flags().StringP("plot", "p", "", "`<path>` to save the plot of the estimated state component to")
	runCmd.Flags().Int("component", 0, "state component to plot")
	runCmd.Flags().String("csv", "", "`<path>` to save the simulation trace to")
	runCmd.Flags().Bool("smooth", false, "smooth the filtered estimates with RTS smoother")
	runCmd.Flags().String("log-file", "", "`<path>` to log file, logs go to stderr if empty")
	runCmd.Flags().String("log-level", "info", "log level: debug, info, warn or error")

	defaultsCmd := &cobra.Command{
		Use:   "defaults",
		Short: "Print the reference scenario",
		Args:  cobra.NoArgs,
		RunE:  doDefaults,
	}

	rootCmd.AddCommand(
		runCmd,
		defaultsCmd,
	)
	return rootCmd
}

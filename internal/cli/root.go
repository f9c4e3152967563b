package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/zapponejosh/airac-cycle/internal/airac"
	"github.com/zapponejosh/airac-cycle/internal/emitter"
	"github.com/zapponejosh/airac-cycle/internal/version"
)

// newRootCmd builds the command tree. Running the root command without a
// subcommand prints the current cycle.
func (a *app) newRootCmd() *cobra.Command {
	var dateFlag, formatFlag string

	cmd := &cobra.Command{
		Use:   "airac",
		Short: "Print the current AIRAC cycle",
		Long: `Print the AIRAC cycle covering today as KEY=VALUE lines:

  IDENTIFIER=2405
  START=2024-05-16
  END=2024-06-13

END is the first day of the next cycle. Logs go to stderr.`,
		Args:              noArgs,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := parseFormat(formatFlag)
			if err != nil {
				return err
			}

			e := a.newEmitter(format)
			if dateFlag != "" {
				date, err := airac.ParseDate(dateFlag)
				if err != nil {
					return usageErrorf("invalid --date %q: use YYYY-MM-DD", dateFlag)
				}
				e.Now = func() time.Time { return date }
				e.Location = date.Location()
			}

			a.logger.Debug("resolving cycle", slog.String("date", airac.FormatDate(e.Today())))
			return e.Run(a.stdout)
		},
	}

	cmd.Flags().StringVar(&dateFlag, "date", "", "resolve the cycle for this date (YYYY-MM-DD) instead of today")
	cmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", string(emitter.FormatEnv), "output format: env, json or yaml")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	cmd.AddCommand(
		a.newShowCmd(&formatFlag),
		a.newListCmd(),
		a.newServeCmd(),
		newVersionCmd(),
	)

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  noArgs,
		// Version output does not depend on configuration.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.Info())
			return err
		},
	}
}

// noArgs rejects positional arguments as a usage error.
func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usageErrorf("unknown command or argument %q for %q", args[0], cmd.CommandPath())
	}
	return nil
}

// exactArgs is cobra.ExactArgs reporting a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}

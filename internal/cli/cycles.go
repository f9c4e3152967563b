package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zapponejosh/airac-cycle/internal/airac"
	"github.com/zapponejosh/airac-cycle/internal/emitter"
)

const maxListCount = 100

func (a *app) newShowCmd(formatFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:     "show <identifier>",
		Short:   "Print the cycle with the given identifier",
		Example: "  airac show 2401",
		Args:    exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(*formatFlag)
			if err != nil {
				return err
			}

			cycle, err := airac.FromIdentifier(args[0])
			if err != nil {
				return err
			}
			return emitter.Render(a.stdout, cycle, format)
		},
	}
}

func (a *app) newListCmd() *cobra.Command {
	var fromFlag string
	var count int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List upcoming cycles",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if count < 1 || count > maxListCount {
				return usageErrorf("--count must be between 1 and %d, got %d", maxListCount, count)
			}

			from := a.newEmitter(emitter.FormatEnv).Today()
			if fromFlag != "" {
				var err error
				if from, err = airac.ParseDate(fromFlag); err != nil {
					return usageErrorf("invalid --from %q: use YYYY-MM-DD", fromFlag)
				}
			}

			cycle, err := a.provider.CycleAt(from)
			if err != nil {
				return fmt.Errorf("resolve cycle for %s: %w", airac.FormatDate(from), err)
			}

			cycles := []airac.Cycle{cycle}
			for len(cycles) < count {
				if cycle, err = cycle.Next(); err != nil {
					return err
				}
				cycles = append(cycles, cycle)
			}

			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "IDENTIFIER\tSTART\tEND")
			for _, c := range cycles {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Identifier,
					airac.FormatDate(c.EffectiveStart), airac.FormatDate(c.NextStart()))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&fromFlag, "from", "", "first date to list from (YYYY-MM-DD, default today)")
	cmd.Flags().IntVarP(&count, "count", "n", 6, "number of cycles to list")

	return cmd
}

package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/chatsrt/internal/domain"
	"github.com/emiliopalmerini/chatsrt/internal/ports"
	"github.com/emiliopalmerini/chatsrt/internal/util"
)

func newHistoryCmd(s *session) *cobra.Command {
	var (
		last   int
		period string
		input  string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded conversions",
		Long: `List chat logs converted on this machine, newest first.

Examples:
  chatsrt history                       # Last 10 conversions
  chatsrt history -n 50 --period week   # This week's conversions
  chatsrt history --input chat.json     # Conversions of one file`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo, err := s.app.ConversionRepo(ctx)
			if err != nil {
				return err
			}

			opts := ports.ListConversionsOptions{Limit: last}
			if period != "" && period != "all" {
				since := util.GetStartDateForPeriod(period, time.Now())
				opts.Since = &since
			}
			if input != "" {
				abs := absPath(input)
				opts.InputPath = &abs
			}

			conversions, err := repo.List(ctx, opts)
			if err != nil {
				return err
			}
			if len(conversions) == 0 {
				fmt.Fprintln(s.stdout, "No conversions found")
				return nil
			}
			printConversions(s.stdout, conversions)
			return nil
		},
	}
	cmd.Flags().IntVarP(&last, "last", "n", 10, "Number of conversions to show")
	cmd.Flags().StringVar(&period, "period", "all", "Only show conversions since: today, week, month, all")
	cmd.Flags().StringVar(&input, "input", "", "Filter by chat file")

	cmd.AddCommand(newHistoryShowCmd(s), newHistoryDeleteCmd(s))
	return cmd
}

func newHistoryShowCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "show <conversion-id>",
		Short: "Show one recorded conversion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := getConversion(cmd, s, args[0])
			if err != nil {
				return err
			}
			printConversion(s.stdout, c)
			return nil
		},
	}
}

func newHistoryDeleteCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <conversion-id>",
		Short: "Delete a recorded conversion and its archived chat log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := getConversion(cmd, s, args[0])
			if err != nil {
				return err
			}

			if c.ArchivedPath != nil {
				archive, err := s.app.ChatArchive(ctx)
				if err != nil {
					return err
				}
				if archive != nil {
					if err := archive.Delete(ctx, c.ID); err != nil {
						return err
					}
				}
			}

			if err := s.app.Conversions.Delete(ctx, c.ID); err != nil {
				return err
			}
			fmt.Fprintf(s.stdout, "Deleted conversion %s\n", c.ID)
			return nil
		},
	}
}

func getConversion(cmd *cobra.Command, s *session, id string) (*domain.Conversion, error) {
	repo, err := s.app.ConversionRepo(cmd.Context())
	if err != nil {
		return nil, err
	}
	c, err := repo.GetByID(cmd.Context(), id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("conversion %q not found", id)
	}
	return c, nil
}

func printConversions(w io.Writer, conversions []*domain.Conversion) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tCUES\tSKIPPED\tSIZE\tINPUT")
	fmt.Fprintln(tw, "--\t----\t-----\t-------\t----\t-----")
	for _, c := range conversions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(c.ID),
			util.FormatDateTime(c.CreatedAt),
			util.FormatNumber(c.CuesWritten),
			util.FormatNumber(c.Skipped()),
			util.FormatBytes(c.InputBytes),
			c.InputPath,
		)
	}
	_ = tw.Flush()
}

func printConversion(w io.Writer, c *domain.Conversion) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", c.ID)
	fmt.Fprintf(tw, "Date:\t%s\n", util.FormatDateTime(c.CreatedAt))
	fmt.Fprintf(tw, "Input:\t%s (%s)\n", c.InputPath, util.FormatBytes(c.InputBytes))
	fmt.Fprintf(tw, "Output:\t%s\n", c.OutputPath)
	fmt.Fprintf(tw, "Records:\t%d\n", c.Records)
	fmt.Fprintf(tw, "Not messages:\t%d\n", c.NonMessages)
	fmt.Fprintf(tw, "Dropped:\t%d\n", c.Dropped)
	fmt.Fprintf(tw, "Cues:\t%d\n", c.CuesWritten)
	if c.FirstTimestamp != nil {
		fmt.Fprintf(tw, "First message:\t%s\n", time.UnixMicro(*c.FirstTimestamp).UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(tw, "Elapsed:\t%dms\n", c.ElapsedMs)
	if c.ArchivedPath != nil {
		fmt.Fprintf(tw, "Archived:\t%s\n", *c.ArchivedPath)
	}
	_ = tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kdimtricp/hoverlabel/internal/database"
)

func newFeedbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Inspect votes stored in the feedback database",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the most recent votes",
		RunE:  runFeedbackList,
	}
	list.Flags().Int("limit", database.DefaultListLimit, "maximum number of votes to show")

	cmd.AddCommand(list)
	return cmd
}

func runFeedbackList(cmd *cobra.Command, args []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	db, err := database.NewDB(database.Config{SQLitePath: cfg.DBPath})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	repo := database.NewFeedbackRepository(db)
	ctx := cmd.Context()

	total, err := repo.Count(ctx)
	if err != nil {
		return err
	}
	records, err := repo.List(ctx, limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Feedback in %s: %d vote(s), showing %d\n\n", db.Path(), total, len(records))
	if len(records) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tVOTE\tLABEL\tCONFIDENCE\tIMAGE")
	for _, rec := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f%%\t%s\n",
			rec.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			rec.Vote, rec.Label, rec.Confidence*100, rec.ImageURL)
	}
	return tw.Flush()
}

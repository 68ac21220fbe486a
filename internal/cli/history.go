package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"siteshell/internal/logger"
	"siteshell/internal/storage/db"
	"siteshell/internal/storage/repo"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	defaultHistoryLimit = 20
	maxURLDisplay       = 60
)

func newHistoryCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent navigation decisions",
		Long:  `Show recent navigation decisions (internal, signin, external) and page bridge calls.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			kind, _ := cmd.Flags().GetString("kind")
			wipe, _ := cmd.Flags().GetBool("clear")

			_, gdb, err := openStore(v)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close(gdb) }()

			events := repo.NewEventRepo(gdb, logger.NewNop(), repo.EventRepoOptions{})
			defer events.Stop()

			out := cmd.OutOrStdout()
			if wipe {
				if err := events.ClearAll(cmd.Context()); err != nil {
					return fmt.Errorf("clear history: %w", err)
				}
				fmt.Fprintln(out, "Navigation history cleared.")
				return nil
			}

			records, total, err := events.Query(cmd.Context(), repo.QueryOptions{Kind: kind, Limit: limit})
			if err != nil {
				return fmt.Errorf("query history: %w", err)
			}
			if len(records) == 0 {
				fmt.Fprintln(out, "No navigation history found.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "WHEN\tKIND\tURL\tDETAIL")
			for _, r := range records {
				when := humanize.Time(time.UnixMilli(r.Timestamp))
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", when, r.Kind, truncate(r.URL, maxURLDisplay), r.DetailJSON)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nShowing %d of %d entries\n", len(records), total)
			return nil
		},
	}

	cmd.Flags().IntP("limit", "n", defaultHistoryLimit, "Number of entries to show")
	cmd.Flags().StringP("kind", "k", "", "Only show one kind (internal, signin, external, bridge)")
	cmd.Flags().Bool("clear", false, "Delete all recorded history")
	return cmd
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

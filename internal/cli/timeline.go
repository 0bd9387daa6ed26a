package cli

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/hrtlog/internal/domain"
	"github.com/MrSnakeDoc/hrtlog/internal/export"
	"github.com/MrSnakeDoc/hrtlog/internal/utils"
)

func addFilterFlags(cmd *cobra.Command, f *domain.Filter) {
	cmd.Flags().StringVarP(&f.Search, "query", "q", "", "Case-insensitive text to search for")
	cmd.Flags().StringVar(&f.Start, "start", "", "Inclusive lower date bound (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.End, "end", "", "Inclusive upper date bound (YYYY-MM-DD)")
}

func newTimelineCmd(rt *runtime) *cobra.Command {
	var (
		f     domain.Filter
		limit int
		ids   bool
	)

	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "List doses and symptom entries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := rt.store.GetTimeline(f)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				_, _ = fmt.Fprintln(out, "No entries found.")
				return nil
			}
			if limit > 0 && len(records) > limit {
				records = records[:limit]
			}
			for i, r := range records {
				line := domain.Summary(r, i)
				if ids && r.ID != "" {
					line = r.ID + "  " + line
				}
				_, _ = fmt.Fprintln(out, line)
			}
			return nil
		},
	}

	addFilterFlags(cmd, &f)
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most this many entries (0 = all)")
	cmd.Flags().BoolVar(&ids, "ids", false, "Prefix each line with the entry ID")
	return cmd
}

func newShowCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show every field of one entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, ok, err := rt.store.Get(args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("entry %s not found", args[0])
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), domain.Detail(rec, 0))
			return nil
		},
	}
}

func newExportCmd(rt *runtime) *cobra.Command {
	var (
		f      domain.Filter
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the filtered timeline as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := rt.store.ExportToCsvRows(f)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := export.WriteCSV(&buf, rows); err != nil {
				return err
			}

			if output == "-" {
				_, err := cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}
			if output == "" {
				output = export.FileName(time.Now().Format(domain.DateLayout))
			}

			file, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			defer utils.MustClose(file, rt.log)

			if _, err := file.Write(buf.Bytes()); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Exported %d entries to %s\n", len(rows), output)
			return nil
		},
	}

	addFilterFlags(cmd, &f)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, '-' for stdout (default hrt_history_<date>.csv)")
	return cmd
}

func newDeleteCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := rt.store.DeleteByID(args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("entry %s not found", args[0])
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func newDuplicateCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "duplicate ID",
		Short: "Copy an entry under a new ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			created, ok, err := rt.store.DuplicateByID(args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("entry %s not found", args[0])
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Duplicated %s as %s\n", args[0], created.ID)
			return nil
		},
	}
}

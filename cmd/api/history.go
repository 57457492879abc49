package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"nextstep-backend/internal/analytics"
)

func historyCmd() *cobra.Command {
	var (
		limit  int
		format string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the most recent interactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(false)
			if err != nil {
				return err
			}
			defer a.close()

			records, err := a.recorder.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return writeHistory(cmd.OutOrStdout(), records, format)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", analytics.DefaultHistoryLimit, "number of records")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "table, json or csv")
	return cmd
}

var historyHeader = []string{"id", "timestamp", "time_of_day", "task_type", "subtask_size", "outcome"}

func historyRow(r analytics.Record) []string {
	return []string{
		strconv.FormatInt(r.ID, 10),
		r.Timestamp,
		string(r.TimeOfDay),
		r.TaskType,
		r.SubtaskSize,
		r.Outcome,
	}
}

func writeHistory(w io.Writer, records []analytics.Record, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)

	case "csv":
		cw := csv.NewWriter(w)
		if err := cw.Write(historyHeader); err != nil {
			return err
		}
		for _, r := range records {
			if err := cw.Write(historyRow(r)); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()

	case "table", "":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for i, h := range historyHeader {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, h)
		}
		fmt.Fprintln(tw)
		for _, r := range records {
			row := historyRow(r)
			for i, c := range row {
				if i > 0 {
					fmt.Fprint(tw, "\t")
				}
				fmt.Fprint(tw, c)
			}
			fmt.Fprintln(tw)
		}
		return tw.Flush()

	default:
		return fmt.Errorf("unknown format %q (want table, json or csv)", format)
	}
}

package main

import (
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	historyLimit  int
	historyDelete []string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent download attempts, or forget some with --delete.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if noHistory {
			return errors.New("history is disabled by --no-history")
		}
		repo, closeRepo, err := openHistory()
		if err != nil {
			return err
		}
		defer closeRepo()

		if len(historyDelete) > 0 {
			for _, u := range historyDelete {
				if err := repo.DeleteRecord(cmd.Context(), u); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Forgot", u)
			}
			return nil
		}

		records, err := repo.ListRecords(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"Time", "Status", "Code", "Bytes", "URL", "Path"})
		for _, r := range records {
			t.AppendRow(table.Row{r.Timestamp.Format("2006-01-02 15:04:05"), r.Status, r.StatusCode, r.Bytes, r.URL, r.Path})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of records to show (0 = all)")
	historyCmd.Flags().StringArrayVar(&historyDelete, "delete", nil, "remove the record for this image url (repeatable)")
	rootCmd.AddCommand(historyCmd)
}

package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newHistoryCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List recent exports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openStore(flags.dbPath)
			if err != nil {
				return err
			}
			defer sess.Close()

			records, err := sess.Exports(5 * time.Second)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "no exports yet")
				return nil
			}
			for _, rec := range records {
				fmt.Fprintf(out, "%s %s %d images\n",
					column(humanize.Time(rec.CreatedAt), 16), column(rec.Destination, 48), rec.Count)
			}
			return nil
		},
	}
}

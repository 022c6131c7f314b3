package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/user/worktrack/internal/calendar"
	"github.com/user/worktrack/internal/state"
)

var weeksJSON bool

func init() {
	weeksCmd.Flags().BoolVar(&weeksJSON, "json", false, "print as JSON")
	rootCmd.AddCommand(weeksCmd)
}

var weeksCmd = &cobra.Command{
	Use:   "weeks",
	Short: "List recorded weeks, most recent first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		_, stats, _ := openStores(cfg)

		weeks, err := state.NewCatalog(stats).AvailableWeeks()
		if err != nil {
			return fmt.Errorf("list weeks: %w", err)
		}

		if weeksJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(weeks)
		}

		if len(weeks) == 0 {
			fmt.Println("No weeks recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "WEEK\tDATES\tWEEKDAY\tWEEKEND\tTOTAL\tUPDATED\tNOTE")
		for _, wk := range weeks {
			var notes []string
			if wk.DecodeFailed {
				notes = append(notes, "undecodable")
			} else if !wk.Encrypted {
				notes = append(notes, "plaintext")
			}
			updated := "-"
			if !wk.LastUpdate.IsZero() {
				updated = humanize.Time(wk.LastUpdate)
			}
			fmt.Fprintf(w, "%s\t%s..%s\t%s\t%s\t%s\t%s\t%s\n",
				wk.Week,
				wk.WeekStart.Format(calendar.DateLayout),
				wk.WeekEnd.Format(calendar.DateLayout),
				wk.Weekday,
				wk.Weekend,
				wk.Total,
				updated,
				strings.Join(notes, ","),
			)
		}
		return w.Flush()
	},
}

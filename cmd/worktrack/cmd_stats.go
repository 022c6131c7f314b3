package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/worktrack/internal/calendar"
	"github.com/user/worktrack/internal/types"
)

var statsJSON bool

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "print as JSON")
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the saved totals of the current week",
	Long: `Show the totals saved for the current ISO week. A running daemon saves
on pause, stop, after every capture and on the checkpoint schedule; use
status for the live view.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		_, stats, _ := openStores(cfg)

		now := time.Now()
		stat, err := stats.LoadWeek(context.Background(), now)
		if err != nil {
			return err
		}

		start, end := stat.Key.Range(time.Local)
		if statsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"week":            stat.Key.String(),
				"week_start":      start.Format(calendar.DateLayout),
				"week_end":        end.Format(calendar.DateLayout),
				"weekday_seconds": stat.WeekdaySeconds,
				"weekend_seconds": stat.WeekendSeconds,
				"weekday":         types.FormatSeconds(stat.WeekdaySeconds),
				"weekend":         types.FormatSeconds(stat.WeekendSeconds),
				"total":           types.FormatSeconds(stat.TotalSeconds()),
			})
		}

		fmt.Printf("Week %s (%s to %s)\n", stat.Key, start.Format(calendar.DateLayout), end.Format(calendar.DateLayout))
		fmt.Printf("Weekday:  %s\n", types.FormatSeconds(stat.WeekdaySeconds))
		fmt.Printf("Weekend:  %s\n", types.FormatSeconds(stat.WeekendSeconds))
		fmt.Printf("Total:    %s\n", types.FormatSeconds(stat.TotalSeconds()))
		if calendar.IsWeekend(now) {
			fmt.Println("Today counts as weekend time.")
		}
		return nil
	},
}

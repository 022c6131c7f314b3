package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/user/worktrack/internal/calendar"
	"github.com/user/worktrack/internal/types"
)

var recordsDates bool

func init() {
	recordsCmd.Flags().BoolVar(&recordsDates, "dates", false, "list the dates that have captures")
	rootCmd.AddCommand(recordsCmd)
}

var recordsCmd = &cobra.Command{
	Use:   "records [week]",
	Short: "List capture records",
	Long: `Without arguments, list the weeks that have capture records. With a
week key such as 2024_11, list the records of that week.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		_, _, records := openStores(cfg)

		if recordsDates {
			dates, err := records.AvailableDates()
			if err != nil {
				return err
			}
			if len(dates) == 0 {
				fmt.Println("No captures recorded.")
			}
			for _, d := range dates {
				fmt.Println(d)
			}
			return nil
		}

		if len(args) == 0 {
			weeks, err := records.Weeks()
			if err != nil {
				return err
			}
			if len(weeks) == 0 {
				fmt.Println("No captures recorded.")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "WEEK\tCAPTURES\tSIZE")
			for _, week := range weeks {
				sets, err := records.List(week)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%d\t%s\n", week, len(sets), humanize.Bytes(totalSize(sets)))
			}
			return w.Flush()
		}

		week, err := calendar.ParseKey(args[0])
		if err != nil {
			return err
		}
		sets, err := records.List(week)
		if err != nil {
			return err
		}
		if len(sets) == 0 {
			fmt.Printf("No captures in week %s.\n", week)
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TAKEN\tARTIFACTS\tSIZE\tDIR")
		for _, set := range sets {
			kinds := make([]string, len(set.Artifacts))
			for i, k := range set.Artifacts {
				kinds[i] = string(k)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				set.Taken.Format("2006-01-02 15:04:05"),
				strings.Join(kinds, ","),
				humanize.Bytes(uint64(set.Size)),
				set.Dir,
			)
		}
		return w.Flush()
	},
}

func totalSize(sets []types.RecordSet) uint64 {
	var n int64
	for _, s := range sets {
		n += s.Size
	}
	return uint64(n)
}

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var statusJSON bool

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print the raw status document")
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of the running daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		pid, pidErr := readPID(cfg)

		var doc statusDoc
		_, err := openVault(cfg).DecryptJSON(filepath.Join(cfg.DataDir, statusFileName), &doc)
		if err != nil {
			if pidErr != nil {
				fmt.Println("Daemon not running.")
				return nil
			}
			if errors.Is(err, os.ErrNotExist) {
				fmt.Printf("Daemon running (PID %d), no status published yet.\n", pid)
				return nil
			}
			return fmt.Errorf("read status: %w", err)
		}

		if statusJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(doc)
		}

		if pidErr != nil {
			fmt.Printf("Daemon not running (last status from PID %d).\n", doc.PID)
		} else {
			fmt.Printf("Daemon running (PID %d).\n", pid)
		}
		fmt.Printf("State:    %s\n", doc.State)
		fmt.Printf("Week:     %s\n", doc.Week)
		fmt.Printf("Weekday:  %s\n", doc.Weekday)
		fmt.Printf("Weekend:  %s\n", doc.Weekend)
		fmt.Printf("Total:    %s\n", doc.Total)
		if doc.Message != "" {
			fmt.Printf("Message:  %s\n", doc.Message)
		}
		fmt.Printf("Updated:  %s\n", humanize.Time(doc.UpdatedAt))
		return nil
	},
}

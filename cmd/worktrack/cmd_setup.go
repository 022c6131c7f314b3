package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/worktrack/internal/config"
)

func init() {
	rootCmd.AddCommand(setupCmd)
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		scanner := bufio.NewScanner(os.Stdin)

		fmt.Println("worktrack setup")
		fmt.Println("Press Enter to accept the default value shown in brackets.")
		fmt.Println()

		cfg.DataDir = prompt(scanner, "Data directory", cfg.DataDir)

		minutes := prompt(scanner, "Minutes between captures", strconv.Itoa(cfg.IntervalSeconds/60))
		if n, err := strconv.Atoi(minutes); err == nil && n > 0 {
			cfg.IntervalSeconds = n * 60
		}

		cfg.Capture.Screenshot = promptBool(scanner, "Capture screenshots", cfg.Capture.Screenshot)
		cfg.Capture.Camera = promptBool(scanner, "Capture camera frames", cfg.Capture.Camera)
		if cfg.Capture.Camera {
			cfg.Capture.CameraDevice = prompt(scanner, "Camera device (empty for the platform default)", cfg.Capture.CameraDevice)
		}
		cfg.Capture.Processes = promptBool(scanner, "Record running processes", cfg.Capture.Processes)

		fmt.Println()
		fmt.Println("Changing the passphrase makes previously recorded files unreadable.")
		cfg.Crypto.Passphrase = prompt(scanner, "Encryption passphrase", cfg.Crypto.Passphrase)

		if err := config.Save(cfgPath, cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}

		fmt.Println()
		fmt.Println("Configuration saved to", cfgPath)
		return nil
	},
}

// prompt displays a labeled prompt with a default value and reads user input.
// If the user enters nothing, the default is returned.
func prompt(scanner *bufio.Scanner, label, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", label, defaultVal)
	} else {
		fmt.Printf("%s: ", label)
	}
	if scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		if input != "" {
			return input
		}
	}
	return defaultVal
}

func promptBool(scanner *bufio.Scanner, label string, defaultVal bool) bool {
	def := "n"
	if defaultVal {
		def = "y"
	}
	switch strings.ToLower(prompt(scanner, label+" (y/n)", def)) {
	case "y", "yes", "true":
		return true
	case "n", "no", "false":
		return false
	}
	return defaultVal
}

package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/worktrack/internal/config"
	"github.com/user/worktrack/internal/state"
	"github.com/user/worktrack/internal/vault"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "worktrack",
	Short:         "Record active work time and periodic proof-of-work captures",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config",
		filepath.Join(os.Getenv("HOME"), ".worktrack", "config.json"), "config file path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig loads the config file or exits.
func loadConfig() *config.Config {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func setupLogging(cfg *config.Config) {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func openVault(cfg *config.Config) *vault.Vault {
	return vault.New(cfg.Crypto.Passphrase, cfg.Crypto.Salt)
}

func openStores(cfg *config.Config) (*vault.Vault, *state.StatStore, *state.RecordStore) {
	v := openVault(cfg)
	return v, state.NewStatStore(cfg.DataDir, v), state.NewRecordStore(cfg.DataDir, v)
}

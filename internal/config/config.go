package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type Config struct {
	DataDir            string `json:"data_dir"`
	LogLevel           string `json:"log_level"`
	IntervalSeconds    int    `json:"interval_seconds"`
	CheckpointSchedule string `json:"checkpoint_schedule"`
	Capture            struct {
		Screenshot           bool   `json:"screenshot"`
		Camera               bool   `json:"camera"`
		Processes            bool   `json:"processes"`
		ScreenshotQuality    int    `json:"screenshot_quality"`
		CameraQuality        int    `json:"camera_quality"`
		CameraCommand        string `json:"camera_command"`
		CameraDevice         string `json:"camera_device"`
		CameraTimeoutSeconds int    `json:"camera_timeout_seconds"`
	} `json:"capture"`
	Crypto struct {
		Passphrase string `json:"passphrase"`
		Salt       string `json:"salt"`
	} `json:"crypto"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{
		DataDir:            filepath.Join(os.Getenv("HOME"), ".worktrack"),
		LogLevel:           "info",
		IntervalSeconds:    1800,
		CheckpointSchedule: "@every 10m",
	}
	cfg.Capture.Screenshot = true
	cfg.Capture.Camera = true
	cfg.Capture.Processes = true
	cfg.Capture.ScreenshotQuality = 90
	cfg.Capture.CameraQuality = 85
	cfg.Capture.CameraCommand = "ffmpeg"
	cfg.Capture.CameraTimeoutSeconds = 10
	cfg.Crypto.Passphrase = "SYSU"
	cfg.Crypto.Salt = "fixed_salt_for_work_monitor"
	return cfg
}

// Interval returns the capture interval.
func (c *Config) Interval() time.Duration {
	if c.IntervalSeconds <= 0 {
		return 1800 * time.Second
	}
	return time.Duration(c.IntervalSeconds) * time.Second
}

// CameraTimeout returns the camera command timeout.
func (c *Config) CameraTimeout() time.Duration {
	if c.Capture.CameraTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Capture.CameraTimeoutSeconds) * time.Second
}

func Load(path string) (*Config, error) {
	cfg := Default()

	// Load from file if exists, otherwise write defaults
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if os.IsNotExist(err) {
		if err := Save(path, cfg); err != nil {
			return nil, err
		}
	}

	// Override from env (highest precedence)
	if dir := os.Getenv("WORKTRACK_DATA_DIR"); dir != "" {
		cfg.DataDir = dir
	}
	if level := os.Getenv("WORKTRACK_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	if pass := os.Getenv("WORKTRACK_PASSPHRASE"); pass != "" {
		cfg.Crypto.Passphrase = pass
	}

	return cfg, nil
}

// Save writes cfg to path atomically, creating the directory if needed.
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}

// ToMap converts cfg into its nested JSON map form.
func ToMap(cfg *Config) (map[string]any, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// ListValues returns cfg as a flat map of dot-separated keys, with secrets
// masked when mask is set.
func ListValues(cfg *Config, mask bool) (map[string]any, error) {
	m, err := ToMap(cfg)
	if err != nil {
		return nil, err
	}
	flat := Flatten(m)
	if mask {
		flat = MaskSecrets(flat)
	}
	return flat, nil
}

// GetValue returns the effective value of a dot-separated key. Keys present
// in the file but unknown to Config are returned as stored.
func GetValue(path, key string) (any, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	flat, err := ListValues(cfg, false)
	if err != nil {
		return nil, err
	}
	if v, ok := flat[key]; ok {
		return v, nil
	}

	raw, err := readRaw(path)
	if err != nil {
		return nil, err
	}
	if v, ok := Flatten(raw)[key]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("unknown config key: %s", key)
}

// SetValue stores value under a dot-separated key in the config file. The
// value is converted with Coerce. The file must already exist.
func SetValue(path, key, value string) error {
	raw, err := readRaw(path)
	if err != nil {
		return err
	}

	flat := Flatten(raw)
	flat[key] = Coerce(key, value)
	nested := Unflatten(flat)

	// Reject values that no longer decode into Config.
	data, err := json.MarshalIndent(nested, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := json.Unmarshal(data, Default()); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return writeFile(path, append(data, '\n'))
}

func readRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	raw := make(map[string]any)
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return raw, nil
}

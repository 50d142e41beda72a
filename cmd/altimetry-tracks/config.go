package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/twpayne/go-altimetry"
)

type config struct {
	BaseURL        string
	TimeoutSeconds float64
	LogLevel       slog.Level
}

// loadConfig resolves each setting from its flag if set, then its
// environment variable, then its default.
func loadConfig(cmd *cobra.Command) (config, error) {
	var cfg config
	cfg.BaseURL = getConfigString(cmd, "base-url", "ALTIMETRY_BASE_URL", altimetry.DefaultBaseURL)

	var err error
	cfg.TimeoutSeconds, err = getConfigFloat(cmd, "timeout-seconds", "ALTIMETRY_TIMEOUT_SECONDS", 0)
	if err != nil {
		return config{}, err
	}
	if cfg.TimeoutSeconds < 0 {
		return config{}, fmt.Errorf("timeout-seconds: %v: must not be negative", cfg.TimeoutSeconds)
	}

	logLevel := getConfigString(cmd, "log-level", "ALTIMETRY_LOG_LEVEL", "warn")
	if err := cfg.LogLevel.UnmarshalText([]byte(logLevel)); err != nil {
		return config{}, fmt.Errorf("log-level: %w", err)
	}
	return cfg, nil
}

func (c config) timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds * float64(time.Second))
}

func (c config) newLogger(cmd *cobra.Command) *slog.Logger {
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: c.LogLevel,
	}))
}

func getConfigString(cmd *cobra.Command, flagName, envName, defaultValue string) string {
	if cmd.Flags().Changed(flagName) {
		value, _ := cmd.Flags().GetString(flagName)
		return value
	}
	if value := os.Getenv(envName); value != "" {
		return value
	}
	return defaultValue
}

func getConfigFloat(cmd *cobra.Command, flagName, envName string, defaultValue float64) (float64, error) {
	if cmd.Flags().Changed(flagName) {
		return cmd.Flags().GetFloat64(flagName)
	}
	if value := os.Getenv(envName); value != "" {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", envName, err)
		}
		return f, nil
	}
	return defaultValue, nil
}

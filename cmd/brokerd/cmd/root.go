package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "brokerd",
	Short: "Multi-broker trading execution core",
	Long: `Brokerd tracks live orders and positions against external trading
venues, reconciles venue-reported truth against internal state, and emulates
broker-side order behaviors (stop-loss/take-profit brackets, server-side
conditional orders) that the underlying venue does not natively support.

It is driven by a market-data tick stream and venue execution reports, and
consumed by an order-routing layer.`,
}

var logLevel string

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// venue credentials come from the environment; a .env is optional
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
}

func newLogger() *slog.Logger {
	var level slog.Level
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

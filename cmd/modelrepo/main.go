package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/archicontribs/modelrepo/pkg/telemetry"
)

var (
	configFile string
	logLevel   string
	noPrompt   bool

	// Root command
	rootCmd = &cobra.Command{
		Use:   "modelrepo",
		Short: "Model repository manager - Git lifecycle for design model repositories",
		Long: `modelrepo manages local Git repositories that hold design models: it clones
remote repositories, reports their state and the actions valid for them, commits
and pushes changes, and keeps per-repository credentials encrypted on disk.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := parseLogLevel(logLevel)
			if err != nil {
				return err
			}
			logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			}))
			slog.SetDefault(logger)
			return nil
		},
	}
)

func init() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (default: $MODELREPO_CONFIG or the user config dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&noPrompt, "no-prompt", false, "Never prompt for credentials")

	rootCmd.AddCommand(cloneCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(credentialsCmd)
	rootCmd.AddCommand(versionCmd)
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q, must be one of: debug, info, warn, error", s)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, shutdown, err := telemetry.Setup(ctx, version)
	if err != nil {
		slog.Error("Failed to setup telemetry", "error", err)
		os.Exit(1)
	}

	err = rootCmd.ExecuteContext(ctx)

	if shutdownErr := shutdown(context.Background()); shutdownErr != nil {
		slog.Error("Failed to shutdown telemetry", "error", shutdownErr)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", describeError(err))
		os.Exit(1)
	}
}

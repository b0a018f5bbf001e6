package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func runVersion(cmd *cobra.Command, args []string) error {
	tracer := otel.Tracer("modelrepo")
	_, span := tracer.Start(cmd.Context(), "cmd.version")
	defer span.End()

	slog.Info("Version command executed", "version", version, "commit", commit)

	fmt.Fprintf(cmd.OutOrStdout(), "modelrepo %s (%s)\n", version, commit)
	return nil
}

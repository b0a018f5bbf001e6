package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var initCmd = &cobra.Command{
	Use:   "init <path> [remote-url]",
	Short: "Create a new local model repository",
	Long: `Initialize an empty repository at path on the configured default branch,
with remote-url registered as origin.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("modelrepo")
	ctx, span := tracer.Start(ctx, "cmd.init")
	defer span.End()

	a, err := newApp(ctx)
	if err != nil {
		span.RecordError(err)
		return err
	}

	var remoteURL string
	if len(args) > 1 {
		remoteURL = args[1]
	}
	span.SetAttributes(attribute.String("git.path", args[0]), attribute.String("git.url", remoteURL))

	h, err := a.client.CreateLocalRepository(ctx, args[0], remoteURL)
	if err != nil {
		span.RecordError(err)
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized repository in %s\n", h.Path)
	return nil
}

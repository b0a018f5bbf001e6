package main

import (
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var (
	showRevision string

	showCmd = &cobra.Command{
		Use:   "show <path> <file>",
		Short: "Print a file as of a revision without touching the working tree",
		Args:  cobra.ExactArgs(2),
		RunE:  runShow,
	}
)

func init() {
	showCmd.Flags().StringVarP(&showRevision, "revision", "r", "HEAD", "Revision to read the file at")
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("modelrepo")
	ctx, span := tracer.Start(ctx, "cmd.show")
	defer span.End()

	a, err := newApp(ctx)
	if err != nil {
		span.RecordError(err)
		return err
	}

	h, err := a.requireRepository(ctx, args[0])
	if err != nil {
		span.RecordError(err)
		return err
	}
	span.SetAttributes(
		attribute.String("git.path", h.Path),
		attribute.String("git.file", args[1]),
		attribute.String("git.revision", showRevision),
	)

	data, err := a.client.ReadFileAtRevision(ctx, h, args[1], showRevision)
	if err != nil {
		span.RecordError(err)
		return err
	}

	_, err = cmd.OutOrStdout().Write(data)
	return err
}

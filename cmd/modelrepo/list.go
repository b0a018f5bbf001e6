package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List repositories under the repository root",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("modelrepo")
	ctx, span := tracer.Start(ctx, "cmd.list")
	defer span.End()

	a, err := newApp(ctx)
	if err != nil {
		span.RecordError(err)
		return err
	}

	handles, err := a.resolver.Scan(ctx, a.cfg.RepositoryRoot)
	if err != nil {
		span.RecordError(err)
		return err
	}
	span.SetAttributes(attribute.Int("repository.count", len(handles)))

	if len(handles) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No repositories in %s\n", a.cfg.RepositoryRoot)
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PATH\tSTATE\tREMOTE")
	for _, h := range handles {
		fmt.Fprintf(w, "%s\t%s\t%s\n", h.Path, h.Kind, h.RemoteURL)
	}
	return w.Flush()
}

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/archicontribs/modelrepo/pkg/actions"
)

var statusCmd = &cobra.Command{
	Use:   "status [path]",
	Short: "Show a path's repository state and the actions valid for it",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("modelrepo")
	ctx, span := tracer.Start(ctx, "cmd.status")
	defer span.End()

	a, err := newApp(ctx)
	if err != nil {
		span.RecordError(err)
		return err
	}

	path := "."
	if len(args) > 0 {
		path = args[0]
	}

	h, err := a.resolve(ctx, path)
	if err != nil {
		span.RecordError(err)
		return err
	}
	span.SetAttributes(attribute.String("repository.kind", h.Kind.String()))

	busy := a.client.Busy(h.Path)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Path:\t%s\n", h.Path)
	fmt.Fprintf(w, "State:\t%s\n", h.Kind)
	if h.Kind.IsRepository() {
		remote := h.RemoteURL
		if remote == "" {
			remote = "(none)"
		}
		fmt.Fprintf(w, "Remote:\t%s\n", remote)
		fmt.Fprintf(w, "Model file:\t%s\n", h.ModelFile)

		hasCreds, err := a.vault.Has(ctx, h.GitDir)
		if err != nil {
			return err
		}
		creds := "none"
		if hasCreds {
			creds = "stored"
		}
		fmt.Fprintf(w, "Credentials:\t%s\n", creds)
	}
	fmt.Fprintf(w, "Actions:\t%s\n", actions.EnabledWhile(h.Kind, busy))
	return w.Flush()
}

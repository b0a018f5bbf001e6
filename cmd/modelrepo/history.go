package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/archicontribs/modelrepo/pkg/git"
)

var (
	historyLimit int

	historyCmd = &cobra.Command{
		Use:   "history <path>",
		Short: "Show the commit history of a model repository",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistory,
	}
)

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "Show at most this many commits (0 for all)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("modelrepo")
	ctx, span := tracer.Start(ctx, "cmd.history")
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
	span.SetAttributes(attribute.String("git.path", h.Path))

	out := a.client.Run(ctx, git.OperationRequest{Kind: git.OpShowHistory, Handle: h}, nil)
	if out.Err != nil {
		span.RecordError(out.Err)
		return out.Err
	}

	history := out.History
	if historyLimit > 0 && len(history) > historyLimit {
		history = history[:historyLimit]
	}

	if len(history) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No commits yet")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	for _, c := range history {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", shortHash(c.Hash), c.When.Format(time.DateTime), c.Author, c.Subject())
	}
	return w.Flush()
}

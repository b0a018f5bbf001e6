package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/archicontribs/modelrepo/pkg/git"
)

var (
	commitMessage     string
	commitAuthorName  string
	commitAuthorEmail string

	commitCmd = &cobra.Command{
		Use:   "commit <path>",
		Short: "Commit every change in a model repository",
		Args:  cobra.ExactArgs(1),
		RunE:  runCommit,
	}
)

func init() {
	commitCmd.Flags().StringVarP(&commitMessage, "message", "m", "", "Commit message (required)")
	commitCmd.Flags().StringVar(&commitAuthorName, "author-name", "", "Author name (default from config)")
	commitCmd.Flags().StringVar(&commitAuthorEmail, "author-email", "", "Author email (default from config)")
	// Panic is appropriate in init() since we cannot return errors and this indicates a programming error
	if err := commitCmd.MarkFlagRequired("message"); err != nil {
		panic(err)
	}
}

func runCommit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("modelrepo")
	ctx, span := tracer.Start(ctx, "cmd.commit")
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

	out := a.client.Run(ctx, git.OperationRequest{
		Kind:        git.OpCommit,
		Handle:      h,
		Message:     commitMessage,
		AuthorName:  commitAuthorName,
		AuthorEmail: commitAuthorEmail,
	}, nil)
	if out.Err != nil {
		span.RecordError(out.Err)
		return out.Err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Committed %s\n", shortHash(out.Commit))
	return nil
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}

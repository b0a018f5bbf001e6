package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/archicontribs/modelrepo/pkg/git"
)

var (
	pushCreds credentialFlags

	pushCmd = &cobra.Command{
		Use:   "push <path>",
		Short: "Push committed changes to origin",
		Long: `Push local branches to origin. If the remote has commits you do not have,
the push is refused; fetch and merge them first.`,
		Args: cobra.ExactArgs(1),
		RunE: runPush,
	}
)

func init() {
	pushCreds.register(pushCmd.Flags())
}

func runPush(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("modelrepo")
	ctx, span := tracer.Start(ctx, "cmd.push")
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

	creds, err := pushCreds.credentials(cmd.InOrStdin())
	if err != nil {
		return err
	}

	out := a.runRemote(ctx, git.OperationRequest{Kind: git.OpPush, Handle: h, Credentials: creds})
	if out.Err != nil {
		span.RecordError(out.Err)
		return out.Err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Pushed %s\n", h.Path)
	return nil
}

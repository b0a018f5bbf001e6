package main

import (
	"context"
	"fmt"
	"errors"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/archicontribs/modelrepo/pkg/actions"
	"github.com/archicontribs/modelrepo/pkg/git"
	"github.com/archicontribs/modelrepo/pkg/repository"
	"github.com/archicontribs/modelrepo/pkg/status"
)

var (
	cloneCreds credentialFlags

	cloneCmd = &cobra.Command{
		Use:   "clone <remote-url> [path]",
		Short: "Clone a remote model repository",
		Long: `Clone a remote repository into path, or into a folder under the repository
root named after the remote. The target must be absent or empty. Press Ctrl-C
to cancel; a cancelled or failed clone leaves nothing behind.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runClone,
	}
)

func init() {
	cloneCreds.register(cloneCmd.Flags())
}

// cloneTarget returns the path a clone of remoteURL goes to.
func cloneTarget(root, remoteURL string, args []string) (string, error) {
	if len(args) > 1 {
		return args[1], nil
	}
	name, err := repository.LocalFolderName(remoteURL)
	if err != nil {
		return "", err
	}
	return filepath.Join(root, name), nil
}

func runClone(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("modelrepo")
	ctx, span := tracer.Start(ctx, "cmd.clone")
	defer span.End()

	a, err := newApp(ctx)
	if err != nil {
		span.RecordError(err)
		return err
	}

	remoteURL := args[0]
	target, err := cloneTarget(a.cfg.RepositoryRoot, remoteURL, args)
	if err != nil {
		span.RecordError(err)
		return err
	}

	creds, err := cloneCreds.credentials(cmd.InOrStdin())
	if err != nil {
		return err
	}

	span.SetAttributes(
		attribute.String("git.url", remoteURL),
		attribute.String("git.path", target),
	)

	out := a.runRemote(ctx, git.OperationRequest{
		Kind:        git.OpClone,
		Handle:      repository.NewHandle(target),
		RemoteURL:   remoteURL,
		Credentials: creds,
	})
	if out.Err != nil {
		span.RecordError(out.Err)
		return out.Err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Cloned %s into %s\n", remoteURL, out.Handle.Path)
	fmt.Fprintf(cmd.OutOrStdout(), "Actions: %s\n", actions.Enabled(out.Handle.Kind))
	return nil
}

// runRemote submits a long-running request and waits for its outcome while
// progress is logged. Interrupting the command cancels the operation.
func (a *app) runRemote(ctx context.Context, req git.OperationRequest) git.OperationOutcome {
	ctx, cleanup := status.StartHandler(ctx, statusLogHandler())
	defer cleanup()

	sink := status.NewSink(ctx, req.Handle.Path, string(req.Kind))
	out := <-a.client.Submit(ctx, req, sink)
	reportOutcome(ctx, out)
	return out
}

// reportOutcome publishes the result of an operation on the context's status
// channel.
func reportOutcome(ctx context.Context, out git.OperationOutcome) {
	update := status.NewUpdate(status.LevelSuccess, string(out.Kind)+" completed")
	if out.Err != nil {
		update = status.NewUpdate(status.LevelError, string(out.Kind)+" failed").
			WithMetadata("error", describeError(out.Err))
		var gitErr *git.Error
		if errors.As(out.Err, &gitErr) {
			update = update.WithMetadata("error_kind", gitErr.Kind.String())
		}
	}
	status.Send(ctx, update.WithRepository(out.Handle.Path).WithOperation(string(out.Kind)))
}

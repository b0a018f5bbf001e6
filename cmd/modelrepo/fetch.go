package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/archicontribs/modelrepo/pkg/git"
	"github.com/archicontribs/modelrepo/pkg/repository"
	"github.com/archicontribs/modelrepo/pkg/status"
)

var (
	fetchCreds credentialFlags
	fetchAll   bool

	fetchCmd = &cobra.Command{
		Use:   "fetch [path...]",
		Short: "Fetch from origin",
		Long: `Update remote-tracking branches of one or more repositories. With --all,
every repository under the repository root is fetched concurrently.`,
		RunE: runFetch,
	}
)

func init() {
	fetchCreds.register(fetchCmd.Flags())
	fetchCmd.Flags().BoolVar(&fetchAll, "all", false, "Fetch every repository under the repository root")
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("modelrepo")
	ctx, span := tracer.Start(ctx, "cmd.fetch")
	defer span.End()

	if fetchAll == (len(args) > 0) {
		return fmt.Errorf("give either repository paths or --all")
	}

	a, err := newApp(ctx)
	if err != nil {
		span.RecordError(err)
		return err
	}

	var handles []repository.Handle
	if fetchAll {
		handles, err = a.resolver.Scan(ctx, a.cfg.RepositoryRoot)
		if err != nil {
			span.RecordError(err)
			return err
		}
	} else {
		for _, arg := range args {
			h, err := a.requireRepository(ctx, arg)
			if err != nil {
				span.RecordError(err)
				return err
			}
			handles = append(handles, h)
		}
	}
	span.SetAttributes(attribute.Int("repository.count", len(handles)))

	if len(handles) == 1 {
		creds, err := fetchCreds.credentials(cmd.InOrStdin())
		if err != nil {
			return err
		}
		out := a.runRemote(ctx, git.OperationRequest{Kind: git.OpFetch, Handle: handles[0], Credentials: creds})
		if out.Err != nil {
			span.RecordError(out.Err)
			return out.Err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Fetched %s\n", handles[0].Path)
		return nil
	}

	if fetchCreds.username != "" {
		return fmt.Errorf("--username applies to a single repository")
	}

	ctx, cleanup := status.StartHandler(ctx, statusLogHandler())
	defer cleanup()

	var errs []error
	for _, out := range a.client.FetchAll(ctx, handles, status.NewSink(ctx, a.cfg.RepositoryRoot, string(git.OpFetch))) {
		reportOutcome(ctx, out)
		if out.Err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", out.Handle.Path, describeError(out.Err))
			errs = append(errs, out.Err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: fetched\n", out.Handle.Path)
	}

	if len(errs) > 0 {
		err := fmt.Errorf("%d of %d fetches failed: %w", len(errs), len(handles), errors.Join(errs...))
		span.RecordError(err)
		return err
	}
	return nil
}

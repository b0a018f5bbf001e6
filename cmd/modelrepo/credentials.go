package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var (
	credentialsSetFlags credentialFlags

	credentialsCmd = &cobra.Command{
		Use:   "credentials",
		Short: "Manage a repository's stored credentials",
	}

	credentialsSetCmd = &cobra.Command{
		Use:   "set <path>",
		Short: "Encrypt and store credentials for a repository",
		Args:  cobra.ExactArgs(1),
		RunE:  runCredentialsSet,
	}

	credentialsClearCmd = &cobra.Command{
		Use:   "clear <path>",
		Short: "Delete a repository's stored credentials",
		Args:  cobra.ExactArgs(1),
		RunE:  runCredentialsClear,
	}
)

func init() {
	credentialsSetFlags.register(credentialsSetCmd.Flags())
	// Panic is appropriate in init() since we cannot return errors and this indicates a programming error
	if err := credentialsSetCmd.MarkFlagRequired("username"); err != nil {
		panic(err)
	}

	credentialsCmd.AddCommand(credentialsSetCmd)
	credentialsCmd.AddCommand(credentialsClearCmd)
}

func runCredentialsSet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("modelrepo")
	ctx, span := tracer.Start(ctx, "cmd.credentials.set")
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

	creds, err := credentialsSetFlags.credentials(cmd.InOrStdin())
	if err != nil {
		return err
	}

	if err := a.client.StoreCredentials(ctx, h, *creds); err != nil {
		span.RecordError(err)
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Stored credentials for %s\n", h.Path)
	return nil
}

func runCredentialsClear(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("modelrepo")
	ctx, span := tracer.Start(ctx, "cmd.credentials.clear")
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

	if err := a.client.ForgetCredentials(ctx, h); err != nil {
		span.RecordError(err)
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Cleared credentials for %s\n", h.Path)
	return nil
}

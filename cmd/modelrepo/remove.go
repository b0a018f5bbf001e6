package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var (
	removeYes bool

	removeCmd = &cobra.Command{
		Use:   "remove <path>",
		Short: "Delete a local clone and its stored credentials",
		Args:  cobra.ExactArgs(1),
		RunE:  runRemove,
	}
)

func init() {
	removeCmd.Flags().BoolVarP(&removeYes, "yes", "y", false, "Do not ask for confirmation")
}

func runRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("modelrepo")
	ctx, span := tracer.Start(ctx, "cmd.remove")
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

	if a.registry.IsOpen(h.ModelFile) {
		return fmt.Errorf("the model in %s is open; close it first", h.Path)
	}

	if !removeYes {
		fmt.Fprintf(cmd.ErrOrStderr(), "Delete %s and its stored credentials? [y/N] ", h.Path)
		answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if !strings.EqualFold(strings.TrimSpace(answer), "y") {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
			return nil
		}
	}

	if err := a.client.Remove(ctx, h); err != nil {
		span.RecordError(err)
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", h.Path)
	return nil
}

package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"hyperfind/internal/wiring"
)

func newReindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the term and vector indexes for every stored document",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReindex(cmd.Context())
		},
	}
}

func runReindex(ctx context.Context) error {
	app, err := wiring.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()
	return app.Worker.FullReindex(ctx)
}

package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"hyperfind/internal/apperr"
	"hyperfind/internal/store"
	"hyperfind/internal/wiring"
)

func newCrawlCmd() *cobra.Command {
	var source string
	var configJSON string

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Run a one-shot crawl job against a registered source",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCrawl(cmd.Context(), source, configJSON)
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "crawl source: wikipedia, reddit, hackernews, custom")
	cmd.Flags().StringVar(&configJSON, "config", "{}", "JSON-encoded crawler config")
	_ = cmd.MarkFlagRequired("source")
	return cmd
}

func runCrawl(ctx context.Context, source, configJSON string) error {
	app, err := wiring.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	c, ok := app.Crawlers[source]
	if !ok {
		return apperr.Newf(apperr.BadConfig, "cmd.runCrawl", "unsupported crawl source %q", source)
	}

	var rawConfig map[string]any
	if err := json.Unmarshal([]byte(configJSON), &rawConfig); err != nil {
		return apperr.New(apperr.BadConfig, "cmd.runCrawl", err)
	}

	job, err := app.Backends.Jobs.Create(ctx, store.CrawlJob{ID: uuid.NewString(), Source: source, Config: rawConfig})
	if err != nil {
		return err
	}

	if err := app.Orchestrator.Run(ctx, job.ID, c, rawConfig); err != nil {
		return err
	}

	completed, _, err := app.Backends.Jobs.Get(ctx, job.ID)
	if err != nil {
		return err
	}
	fmt.Printf("job %s: %s (%d found, %d indexed)\n", completed.ID, completed.Status, completed.DocumentsFound, completed.DocumentsIndexed)

	return app.Worker.FullReindex(ctx)
}

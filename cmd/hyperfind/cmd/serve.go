package cmd

import (
	"context"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"hyperfind/internal/httpapi"
	"hyperfind/internal/logging"
	"hyperfind/internal/wiring"
)

const (
	defaultAddr       = ":8080"
	readHeaderTimeout = 10 * time.Second
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the hyperfind HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "address to listen on")
	return cmd
}

func runServe(ctx context.Context, addr string) error {
	app, err := wiring.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	server := httpapi.NewServer(&httpapi.Server{
		BM25:             app.BM25Scorer,
		Semantic:         app.Semantic,
		Hybrid:           app.Hybrid,
		Facade:           app.Facade,
		Controller:       app.Controller,
		Autocomplete:     app.Autocomplete,
		Orchestrator:     app.Orchestrator,
		Worker:           app.Worker,
		Jobs:             app.Backends.Jobs,
		Documents:        app.Backends.Documents,
		FullText:         app.Backends.Manager.Search,
		Cache:            app.Cache,
		Crawlers:         app.Crawlers,
		Ranking:          cfg.Ranking,
		MaxSearchResults: cfg.MaxSearchResults,
	})

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	logging.Log.WithField("addr", addr).Info("hyperfind: listening")
	return httpServer.ListenAndServe()
}

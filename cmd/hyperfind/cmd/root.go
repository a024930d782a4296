// Package cmd provides hyperfind's CLI commands.
package cmd

import (
	"github.com/spf13/cobra"

	"hyperfind/internal/config"
	"hyperfind/internal/logging"
)

var cfg config.Config

// NewRootCmd creates the root command for the hyperfind CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "hyperfind",
		Short: "Hybrid lexical/semantic search over a crawled document corpus",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			cfg = loaded
			logging.Configure(cfg.LogPath, cfg.LogLevel)
			return nil
		},
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newCrawlCmd())
	root.AddCommand(newReindexCmd())
	root.AddCommand(newWorkerCmd())

	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

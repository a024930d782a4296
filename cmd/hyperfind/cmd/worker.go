package cmd

import (
	"context"
	"strings"

	kafka "github.com/segmentio/kafka-go"
	"github.com/spf13/cobra"

	"hyperfind/internal/apperr"
	"hyperfind/internal/indexworker"
	"hyperfind/internal/wiring"
)

const (
	indexTasksTopic = "hyperfind.index.tasks"
	consumerGroupID = "hyperfind-index-worker"
)

func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the background index worker, consuming index tasks from Kafka",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorker(cmd.Context())
		},
	}
}

func runWorker(ctx context.Context) error {
	if cfg.KafkaBrokerURL == "" {
		return apperr.Newf(apperr.BadConfig, "cmd.runWorker", "KAFKA_BROKER_URL must be set to run the index worker")
	}

	app, err := wiring.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	brokers := strings.Split(cfg.KafkaBrokerURL, ",")
	dlq := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    indexTasksTopic + ".dlq",
		Balancer: &kafka.LeastBytes{},
	}
	defer func() { _ = dlq.Close() }()

	workerCount := cfg.IndexWorkerCount
	if workerCount <= 0 {
		workerCount = 1
	}

	return indexworker.StartKafkaConsumer(ctx, app.Worker, brokers, consumerGroupID, indexTasksTopic, dlq, workerCount)
}

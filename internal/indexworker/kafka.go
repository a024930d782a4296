package indexworker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"hyperfind/internal/logging"
)

// TaskEnvelope is the wire format for an index task message, dispatched by
// the crawl orchestrator (or an operator CLI) onto the index tasks topic.
type TaskEnvelope struct {
	Task    string   `json:"task"` // "index.document" | "index.batch" | "index.full"
	DocID   string   `json:"docId,omitempty"`
	DocIDs  []string `json:"docIds,omitempty"`
}

// maxConsumeAttempts bounds in-process retries for one task message before
// it is published to the dead-letter topic.
const maxConsumeAttempts = 3

// StartKafkaConsumer runs a worker pool that reads TaskEnvelope messages from
// tasksTopic and drives w's IndexDocument/IndexBatch/FullReindex, retrying a
// failed task with doubling backoff before giving up and publishing it to
// tasksTopic+".dlq". It returns once ctx is cancelled or the reader fails to
// fetch a message, after every worker has drained its in-flight message.
func StartKafkaConsumer(ctx context.Context, w *Worker, brokers []string, groupID, tasksTopic string, dlq *kafka.Writer, workerCount int) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topic:    tasksTopic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer func() {
		if err := reader.Close(); err != nil {
			logging.Log.WithError(err).Warn("indexworker: error closing kafka reader")
		}
	}()

	if workerCount <= 0 {
		workerCount = 1
	}
	jobs := make(chan kafka.Message, workerCount*4)

	var wg sync.WaitGroup
	wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go func() {
			defer wg.Done()
			for msg := range jobs {
				w.consumeOne(ctx, msg, dlq)
				if err := reader.CommitMessages(ctx, msg); err != nil {
					logging.Log.WithError(err).WithField("offset", msg.Offset).Warn("indexworker: commit failed")
				}
			}
		}()
	}

	for {
		if ctx.Err() != nil {
			break
		}
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			break
		}
		select {
		case jobs <- msg:
		case <-ctx.Done():
		}
	}
	close(jobs)
	wg.Wait()
	return ctx.Err()
}

func (w *Worker) consumeOne(ctx context.Context, msg kafka.Message, dlq *kafka.Writer) {
	var task TaskEnvelope
	if err := json.Unmarshal(msg.Value, &task); err != nil {
		logging.Log.WithError(err).Warn("indexworker: malformed task message, dropping")
		return
	}

	backoff := baseBackoff
	var lastErr error
	for attempt := 1; attempt <= maxConsumeAttempts; attempt++ {
		lastErr = w.dispatch(ctx, task)
		if lastErr == nil {
			return
		}
		if attempt == maxConsumeAttempts {
			break
		}
		logging.Log.WithError(lastErr).WithField("task", task.Task).WithField("attempt", attempt).Warn("indexworker: kafka task failed, retrying")
		timer := time.NewTimer(backoff)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			lastErr = ctx.Err()
		}
		backoff *= 2
	}

	if dlq != nil {
		publishDLQ(ctx, dlq, task, lastErr)
	}
}

func (w *Worker) dispatch(ctx context.Context, task TaskEnvelope) error {
	switch task.Task {
	case "index.document":
		return w.IndexDocument(ctx, task.DocID)
	case "index.batch":
		return w.IndexBatch(ctx, task.DocIDs)
	case "index.full":
		return w.FullReindex(ctx)
	default:
		return fmt.Errorf("indexworker: unknown task %q", task.Task)
	}
}

func publishDLQ(ctx context.Context, dlq *kafka.Writer, task TaskEnvelope, cause error) {
	body, _ := json.Marshal(map[string]any{
		"task":  task,
		"error": cause.Error(),
	})
	if err := dlq.WriteMessages(ctx, kafka.Message{Value: body}); err != nil {
		logging.Log.WithError(err).WithField("task", task.Task).Error("indexworker: failed to publish task to dead-letter topic")
	}
}

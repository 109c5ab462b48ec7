package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/terrep263/snapbrand/internal/entity"
)

// TaskHandler runs one queued export job.
type TaskHandler func(task entity.ExportTask) error

// StartExportConsumer reads export jobs from the topic and hands them to
// the handler until the context is cancelled. Jobs run sequentially; the
// export controller bounds concurrency per job internally.
func StartExportConsumer(ctx context.Context, brokers []string, topic, groupID string, handle TaskHandler) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
		StartOffset:    kafka.FirstOffset,
	})
	defer reader.Close()

	logrus.Infof("Export consumer started, brokers: %v", brokers)

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logrus.Info("Export consumer stopped")
				return
			}
			logrus.Errorf("Error reading message from Kafka: %v", err)
			continue
		}

		var task entity.ExportTask
		if err := json.Unmarshal(msg.Value, &task); err != nil {
			logrus.Errorf("Failed to parse export task: %v", err)
			continue
		}

		logrus.WithFields(logrus.Fields{
			"export_id": task.ExportID,
			"batch_id":  task.BatchID,
			"partition": msg.Partition,
			"offset":    msg.Offset,
		}).Info("Received export job")

		if err := handle(task); err != nil {
			logrus.Errorf("Export %s failed: %v", task.ExportID, err)
		} else {
			logrus.Infof("Export %s completed", task.ExportID)
		}
	}
}

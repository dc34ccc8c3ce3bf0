package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// enqueueTimeout bounds how long a request waits on the broker.
const enqueueTimeout = 2 * time.Second

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Kafka publishes tasks to a topic and consumes them with a consumer group.
// Offsets are committed after a task is handled or re-published for retry.
type Kafka struct {
	writer      messageWriter
	closeWriter func() error
	reader      *kafka.Reader
	mux         *Mux
	maxAttempts int
	log         *zap.Logger
}

func NewKafka(brokers []string, topic, groupID string, mux *Mux, maxAttempts int, log *zap.Logger) *Kafka {
	if log == nil {
		log = zap.NewNop()
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		WriteTimeout:           enqueueTimeout,
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Kafka{
		writer:      writer,
		closeWriter: writer.Close,
		reader:      reader,
		mux:         mux,
		maxAttempts: maxAttempts,
		log:         log,
	}
}

func (k *Kafka) Enqueue(ctx context.Context, name string, payload any) error {
	t, err := NewTask(name, payload)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, enqueueTimeout)
	defer cancel()
	return k.publish(ctx, t)
}

func (k *Kafka) publish(ctx context.Context, t Task) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode task: %w", err)
	}
	if err := k.writer.WriteMessages(ctx, kafka.Message{Key: []byte(t.Name), Value: raw}); err != nil {
		return fmt.Errorf("publish %s: %w", t.Name, err)
	}
	return nil
}

// Run consumes tasks until ctx is cancelled.
func (k *Kafka) Run(ctx context.Context) error {
	for {
		msg, err := k.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("fetch task: %w", err)
		}
		k.handle(ctx, msg.Value)
		if err := k.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("commit task offset: %w", err)
		}
	}
}

func (k *Kafka) handle(ctx context.Context, value []byte) {
	var t Task
	if err := json.Unmarshal(value, &t); err != nil {
		k.log.Error("malformed task message", zap.Error(err))
		return
	}
	err := k.mux.Dispatch(ctx, t)
	if err == nil {
		return
	}
	t.Attempt++
	if errors.Is(err, ErrUnknownTask) || t.Attempt >= k.maxAttempts {
		k.log.Error("task dropped", zap.String("task", t.Name), zap.String("id", t.ID), zap.Int("attempts", t.Attempt), zap.Error(err))
		return
	}
	k.log.Warn("task failed, re-publishing", zap.String("task", t.Name), zap.String("id", t.ID), zap.Int("attempt", t.Attempt), zap.Error(err))
	if err := k.publish(ctx, t); err != nil {
		k.log.Error("re-publish failed", zap.String("task", t.Name), zap.String("id", t.ID), zap.Error(err))
	}
}

func (k *Kafka) Close() error {
	var errs []error
	if k.closeWriter != nil {
		errs = append(errs, k.closeWriter())
	}
	if k.reader != nil {
		errs = append(errs, k.reader.Close())
	}
	return errors.Join(errs...)
}

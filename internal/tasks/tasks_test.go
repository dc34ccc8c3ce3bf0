package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

// stalledWriter blocks like a broker that never acknowledges.
type stalledWriter struct{}

func (stalledWriter) WriteMessages(ctx context.Context, _ ...kafka.Message) error {
	<-ctx.Done()
	return ctx.Err()
}

type recordingEnqueuer struct {
	mu    sync.Mutex
	names []string
}

func (r *recordingEnqueuer) Enqueue(_ context.Context, name string, _ any) error {
	r.mu.Lock()
	r.names = append(r.names, name)
	r.mu.Unlock()
	return nil
}

type payload struct {
	ItemID int64 `json:"itemId"`
}

func TestMuxDispatch(t *testing.T) {
	mux := NewMux()
	var got int64
	mux.Handle("catalog.recompute_rating", Decode(func(_ context.Context, p payload) error {
		got = p.ItemID
		return nil
	}))

	task, err := NewTask("catalog.recompute_rating", payload{ItemID: 9})
	require.NoError(t, err)
	require.NoError(t, mux.Dispatch(context.Background(), task))
	assert.Equal(t, int64(9), got)
	assert.NotEmpty(t, task.ID)

	err = mux.Dispatch(context.Background(), Task{Name: "missing"})
	assert.ErrorIs(t, err, ErrUnknownTask)
}

func TestLocal_RetriesUntilSuccess(t *testing.T) {
	mux := NewMux()
	done := make(chan struct{})
	attempts := 0
	mux.Handle("flaky", func(context.Context, json.RawMessage) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		close(done)
		return nil
	})

	runner := NewLocal(mux, 1, 5, zap.NewNop())
	runner.backoff = func(int) time.Duration { return time.Millisecond }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go runner.Run(ctx)

	require.NoError(t, runner.Enqueue(ctx, "flaky", nil))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task was not retried to success")
	}
	assert.Equal(t, 3, attempts)
}

func TestLocal_EnqueueDoesNotWaitOnFullQueue(t *testing.T) {
	runner := NewLocal(NewMux(), 1, 3, zap.NewNop())
	runner.queue = make(chan Task, 1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	require.NoError(t, runner.Enqueue(ctx, "items.recompute_price", nil))

	start := time.Now()
	err := runner.Enqueue(ctx, "items.recompute_price", nil)
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Less(t, time.Since(start), time.Second)
}

func TestLocal_GivesUpAfterMaxAttempts(t *testing.T) {
	mux := NewMux()
	var mu sync.Mutex
	attempts := 0
	mux.Handle("broken", func(context.Context, json.RawMessage) error {
		mu.Lock()
		attempts++
		mu.Unlock()
		return errors.New("permanent")
	})

	runner := NewLocal(mux, 1, 2, zap.NewNop())
	runner.backoff = func(int) time.Duration { return time.Millisecond }
	task, err := NewTask("broken", nil)
	require.NoError(t, err)

	runner.process(context.Background(), task)
	assert.Equal(t, 2, attempts)
}

func TestKafkaHandle_RepublishesWithAttempt(t *testing.T) {
	mux := NewMux()
	mux.Handle("basket.recompute_total", func(context.Context, json.RawMessage) error {
		return errors.New("db unavailable")
	})
	w := &recordingWriter{}
	k := &Kafka{writer: w, mux: mux, maxAttempts: 3, log: zap.NewNop()}

	task, err := NewTask("basket.recompute_total", payload{ItemID: 1})
	require.NoError(t, err)
	raw, err := json.Marshal(task)
	require.NoError(t, err)

	k.handle(context.Background(), raw)
	require.Len(t, w.msgs, 1)

	var retried Task
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &retried))
	assert.Equal(t, task.ID, retried.ID)
	assert.Equal(t, 1, retried.Attempt)
	assert.Equal(t, []byte("basket.recompute_total"), w.msgs[0].Key)

	retried.Attempt = 2
	raw, _ = json.Marshal(retried)
	k.handle(context.Background(), raw)
	assert.Len(t, w.msgs, 1, "task at max attempts must be dropped")
}

func TestKafkaEnqueue_BoundedWait(t *testing.T) {
	k := &Kafka{writer: stalledWriter{}, mux: NewMux(), maxAttempts: 3, log: zap.NewNop()}

	start := time.Now()
	err := k.Enqueue(context.Background(), "items.recompute_rating", payload{ItemID: 1})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), enqueueTimeout+time.Second)
}

func TestKafkaHandle_Success(t *testing.T) {
	mux := NewMux()
	handled := false
	mux.Handle("mail.activation", func(context.Context, json.RawMessage) error {
		handled = true
		return nil
	})
	w := &recordingWriter{}
	k := &Kafka{writer: w, mux: mux, maxAttempts: 3, log: zap.NewNop()}

	require.NoError(t, k.Enqueue(context.Background(), "mail.activation", payload{}))
	k.handle(context.Background(), w.msgs[0].Value)
	assert.True(t, handled)
	assert.Len(t, w.msgs, 1)

	k.handle(context.Background(), []byte("not json"))
}

func TestScheduler(t *testing.T) {
	enq := &recordingEnqueuer{}
	s := NewScheduler(enq, zap.NewNop())
	require.NoError(t, s.Every(WeeklyMonday, "invites.purge_resolved"))
	require.NoError(t, s.Every(Daily, "items.notify_new"))
	assert.Error(t, s.Every("not a schedule", "x"))
	assert.Len(t, s.cron.Entries(), 2)

	s.fire("invites.purge_resolved")
	assert.Equal(t, []string{"invites.purge_resolved"}, enq.names)
}

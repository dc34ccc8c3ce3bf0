package tasks

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrQueueFull is returned by Local.Enqueue when every queue slot is taken.
var ErrQueueFull = errors.New("task queue full")

// Local runs tasks on an in-process worker pool. Queued tasks do not survive a
// restart; use Kafka when that matters.
type Local struct {
	mux         *Mux
	queue       chan Task
	workers     int
	maxAttempts int
	backoff     func(attempt int) time.Duration
	log         *zap.Logger
}

func NewLocal(mux *Mux, workers, maxAttempts int, log *zap.Logger) *Local {
	if log == nil {
		log = zap.NewNop()
	}
	if workers < 1 {
		workers = 1
	}
	return &Local{
		mux:         mux,
		queue:       make(chan Task, 1024),
		workers:     workers,
		maxAttempts: maxAttempts,
		backoff:     backoff,
		log:         log,
	}
}

// Enqueue never waits for queue space; a full queue returns ErrQueueFull.
func (l *Local) Enqueue(ctx context.Context, name string, payload any) error {
	t, err := NewTask(name, payload)
	if err != nil {
		return err
	}
	select {
	case l.queue <- t:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		l.log.Error("task queue full", zap.String("task", name), zap.Int("capacity", cap(l.queue)))
		return ErrQueueFull
	}
}

// Run processes tasks until ctx is cancelled.
func (l *Local) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for i := 0; i < l.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case t := <-l.queue:
					l.process(ctx, t)
				}
			}
		}()
	}
	wg.Wait()
	return nil
}

func (l *Local) process(ctx context.Context, t Task) {
	for {
		err := l.mux.Dispatch(ctx, t)
		if err == nil {
			return
		}
		t.Attempt++
		if errors.Is(err, ErrUnknownTask) || t.Attempt >= l.maxAttempts {
			l.log.Error("task dropped", zap.String("task", t.Name), zap.String("id", t.ID), zap.Int("attempts", t.Attempt), zap.Error(err))
			return
		}
		l.log.Warn("task failed, retrying", zap.String("task", t.Name), zap.String("id", t.ID), zap.Int("attempt", t.Attempt), zap.Error(err))
		select {
		case <-time.After(l.backoff(t.Attempt)):
		case <-ctx.Done():
			return
		}
	}
}

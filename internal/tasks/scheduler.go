package tasks

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	WeeklyMonday = "0 0 * * 1"
	Daily        = "0 0 * * *"
)

// Scheduler enqueues named tasks on cron schedules (UTC).
type Scheduler struct {
	cron *cron.Cron
	enq  Enqueuer
	log  *zap.Logger
}

func NewScheduler(enq Enqueuer, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		cron: cron.New(cron.WithLocation(time.UTC)),
		enq:  enq,
		log:  log,
	}
}

// Every registers name to be enqueued on expr, a standard five-field cron expression.
func (s *Scheduler) Every(expr, name string) error {
	_, err := s.cron.AddFunc(expr, func() { s.fire(name) })
	return err
}

func (s *Scheduler) fire(name string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.enq.Enqueue(ctx, name, struct{}{}); err != nil {
		s.log.Error("scheduled enqueue failed", zap.String("task", name), zap.Error(err))
		return
	}
	s.log.Info("scheduled task enqueued", zap.String("task", name))
}

// Run starts the scheduler and blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	return nil
}

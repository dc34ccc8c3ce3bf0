// Package events turns domain events into deferred tasks.
package events

import (
	"context"

	"go.uber.org/zap"

	"skins-market/internal/domain"
	"skins-market/internal/tasks"
)

// Task names handled by the worker.
const (
	TaskRecomputeRealPrice = "catalog.recompute_real_price"
	TaskRecomputeRating    = "catalog.recompute_rating"
	TaskRecomputeBasket    = "basket.recompute_total"
	TaskMailActivation     = "mail.activation"
	TaskMailInviteCreated  = "mail.invite_created"
	TaskMailInviteResolved = "mail.invite_resolved"
	TaskMailPasswordReset  = "mail.password_reset"
	TaskPurgeInvites       = "invites.purge_resolved"
	TaskNotifyNewItems     = "items.notify_new"
)

// Publisher is what write paths depend on.
type Publisher interface {
	Publish(ctx context.Context, evs ...domain.Event)
}

type Dispatcher struct {
	enq tasks.Enqueuer
	log *zap.Logger
}

func NewDispatcher(enq tasks.Enqueuer, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{enq: enq, log: log}
}

// Publish enqueues the task for each event. The triggering write has already
// committed, so enqueue failures are logged rather than returned.
func (d *Dispatcher) Publish(ctx context.Context, evs ...domain.Event) {
	for _, ev := range evs {
		name, ok := TaskFor(ev)
		if !ok {
			d.log.Warn("no task for event", zap.String("event", ev.EventName()))
			continue
		}
		if err := d.enq.Enqueue(ctx, name, ev); err != nil {
			d.log.Error("enqueue failed", zap.String("event", ev.EventName()), zap.String("task", name), zap.Error(err))
		}
	}
}

// TaskFor maps an event to the task that reacts to it.
func TaskFor(ev domain.Event) (string, bool) {
	switch ev.(type) {
	case domain.ItemCreated, domain.ItemPriceChanged:
		return TaskRecomputeRealPrice, true
	case domain.ReviewChanged:
		return TaskRecomputeRating, true
	case domain.BasketLineChanged:
		return TaskRecomputeBasket, true
	case domain.UserRegistered:
		return TaskMailActivation, true
	case domain.InviteCreated:
		return TaskMailInviteCreated, true
	case domain.InviteResolved:
		return TaskMailInviteResolved, true
	case domain.PasswordReset:
		return TaskMailPasswordReset, true
	}
	return "", false
}

// Recorder collects events in memory. Services use it in tests.
type Recorder struct {
	Events []domain.Event
}

func (r *Recorder) Publish(_ context.Context, evs ...domain.Event) {
	r.Events = append(r.Events, evs...)
}

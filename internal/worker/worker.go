// Package worker binds deferred task names to the code that reacts to them.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"skins-market/internal/domain"
	"skins-market/internal/events"
	"skins-market/internal/mail"
	"skins-market/internal/tasks"
)

type catalogService interface {
	RecomputeRealPrice(ctx context.Context, id int64) error
	RecomputeRating(ctx context.Context, id int64) error
	NewItemsBetween(ctx context.Context, from, to time.Time) ([]domain.Item, error)
}

type basketService interface {
	RecomputeTotal(ctx context.Context, userID, basketID int64) error
}

type friendsService interface {
	PurgeResolved(ctx context.Context) error
}

type inviteLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.Invite, error)
}

type userLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	ActiveEmails(ctx context.Context) ([]string, error)
}

type passwordIssuer interface {
	IssuePassword(ctx context.Context, userID int64) (*domain.User, string, error)
}

type Deps struct {
	Catalog   catalogService
	Basket    basketService
	Friends   friendsService
	Invites   inviteLookup
	Users     userLookup
	Passwords passwordIssuer
	Mail      mail.Sender
	AppHost string
	Log     *zap.Logger
	Now     func() time.Time
}

type worker struct {
	Deps
}

// Register installs every task handler on mux.
func Register(mux *tasks.Mux, d Deps) {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	w := &worker{Deps: d}

	mux.Handle(events.TaskRecomputeRealPrice, tasks.Decode(func(ctx context.Context, ev domain.ItemPriceChanged) error {
		return w.Catalog.RecomputeRealPrice(ctx, ev.ItemID)
	}))
	mux.Handle(events.TaskRecomputeRating, tasks.Decode(func(ctx context.Context, ev domain.ReviewChanged) error {
		return w.Catalog.RecomputeRating(ctx, ev.ItemID)
	}))
	mux.Handle(events.TaskRecomputeBasket, tasks.Decode(func(ctx context.Context, ev domain.BasketLineChanged) error {
		return w.Basket.RecomputeTotal(ctx, ev.UserID, ev.BasketID)
	}))
	mux.Handle(events.TaskMailActivation, tasks.Decode(w.mailActivation))
	mux.Handle(events.TaskMailInviteCreated, tasks.Decode(w.mailInviteCreated))
	mux.Handle(events.TaskMailInviteResolved, tasks.Decode(w.mailInviteResolved))
	mux.Handle(events.TaskMailPasswordReset, tasks.Decode(w.mailPasswordReset))
	mux.Handle(events.TaskPurgeInvites, func(ctx context.Context, _ json.RawMessage) error {
		return w.Friends.PurgeResolved(ctx)
	})
	mux.Handle(events.TaskNotifyNewItems, func(ctx context.Context, _ json.RawMessage) error {
		return w.notifyNewItems(ctx)
	})
}

// Schedule registers the periodic tasks.
func Schedule(s *tasks.Scheduler) error {
	if err := s.Every(tasks.WeeklyMonday, events.TaskPurgeInvites); err != nil {
		return fmt.Errorf("schedule %s: %w", events.TaskPurgeInvites, err)
	}
	if err := s.Every(tasks.Daily, events.TaskNotifyNewItems); err != nil {
		return fmt.Errorf("schedule %s: %w", events.TaskNotifyNewItems, err)
	}
	return nil
}

func (w *worker) mailActivation(ctx context.Context, ev domain.UserRegistered) error {
	link := strings.TrimRight(w.AppHost, "/") + "/api/v1/activate/" + ev.ActivationCode
	return w.Mail.Send(ctx, subjectActivation, fmt.Sprintf(bodyActivation, link), []string{ev.Email})
}

func (w *worker) mailInviteCreated(ctx context.Context, ev domain.InviteCreated) error {
	inv, err := w.Invites.GetByID(ctx, ev.InviteID)
	if err != nil {
		return w.skipMissing("invite", ev.InviteID, err)
	}
	to, err := w.Users.GetByID(ctx, inv.ToUserID)
	if err != nil {
		return w.skipMissing("user", inv.ToUserID, err)
	}
	return w.Mail.Send(ctx, subjectInvite, fmt.Sprintf(bodyInvite, inv.FromName), []string{to.Email})
}

func (w *worker) mailInviteResolved(ctx context.Context, ev domain.InviteResolved) error {
	inv, err := w.Invites.GetByID(ctx, ev.InviteID)
	if err != nil {
		return w.skipMissing("invite", ev.InviteID, err)
	}
	from, err := w.Users.GetByID(ctx, inv.FromUserID)
	if err != nil {
		return w.skipMissing("user", inv.FromUserID, err)
	}
	subject, body := subjectInviteAccepted, bodyInviteAccepted
	if ev.Status == domain.InviteRejected {
		subject, body = subjectInviteRejected, bodyInviteRejected
	}
	return w.Mail.Send(ctx, subject, fmt.Sprintf(body, inv.ToName), []string{from.Email})
}

func (w *worker) mailPasswordReset(ctx context.Context, ev domain.PasswordReset) error {
	u, password, err := w.Passwords.IssuePassword(ctx, ev.UserID)
	if err != nil {
		return w.skipMissing("user", ev.UserID, err)
	}
	return w.Mail.Send(ctx, subjectPasswordReset, fmt.Sprintf(bodyPasswordReset, password), []string{u.Email})
}

// notifyNewItems mails every active user when items were added during the previous UTC day.
func (w *worker) notifyNewItems(ctx context.Context) error {
	to := w.Now().UTC().Truncate(24 * time.Hour)
	from := to.Add(-24 * time.Hour)
	items, err := w.Catalog.NewItemsBetween(ctx, from, to)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		w.Log.Debug("no new items to announce")
		return nil
	}
	emails, err := w.Users.ActiveEmails(ctx)
	if err != nil {
		return err
	}
	if len(emails) == 0 {
		return nil
	}
	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, it.Name)
	}
	w.Log.Info("announcing new items", zap.Int("items", len(items)), zap.Int("recipients", len(emails)))
	return w.Mail.Send(ctx, subjectNewItems, fmt.Sprintf(bodyNewItems, strings.Join(names, "\n")), emails)
}

// skipMissing drops tasks whose subject was deleted in the meantime; retrying cannot help.
func (w *worker) skipMissing(kind string, id int64, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		w.Log.Warn("task subject gone", zap.String("kind", kind), zap.Int64("id", id))
		return nil
	}
	return err
}

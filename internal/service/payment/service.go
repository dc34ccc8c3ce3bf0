// Package payment tops up user cash through the payment provider.
package payment

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"skins-market/internal/cache"
	"skins-market/internal/domain"
	"skins-market/internal/paygate"
)

type gateway interface {
	CreateIntent(ctx context.Context, amount int64, currency string, userID int64) (paygate.Intent, error)
	ParseWebhook(payload []byte, signature string) (paygate.WebhookEvent, error)
}

type paymentRepo interface {
	CreatePending(ctx context.Context, p domain.Payment) (*domain.Payment, error)
	Complete(ctx context.Context, p domain.Payment) (bool, error)
	MarkFailed(ctx context.Context, intentID string) error
}

type Service struct {
	gateway  gateway
	repo     paymentRepo
	currency string
	cache    cache.Cache
	log      *zap.Logger
}

func New(gw gateway, repo paymentRepo, currency string, c cache.Cache, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if currency == "" {
		currency = "usd"
	}
	return &Service{gateway: gw, repo: repo, currency: currency, cache: c, log: log}
}

// CreateIntent opens a provider payment intent for amount minor units.
func (s *Service) CreateIntent(ctx context.Context, userID, amount int64) (paygate.Intent, error) {
	if amount < domain.MinPaymentAmount {
		return paygate.Intent{}, domain.Invalid("amount", fmt.Sprintf("must be at least %d", domain.MinPaymentAmount))
	}
	intent, err := s.gateway.CreateIntent(ctx, amount, s.currency, userID)
	if err != nil {
		s.log.Error("payment intent failed", zap.Int64("user_id", userID), zap.Bool("critical", true), zap.Error(err))
		return paygate.Intent{}, domain.Critical("create payment intent", err)
	}
	if _, err := s.repo.CreatePending(ctx, domain.Payment{
		UserID:   &userID,
		Amount:   amount,
		Currency: intent.Currency,
		IntentID: intent.ID,
	}); err != nil {
		return paygate.Intent{}, err
	}
	return intent, nil
}

// HandleWebhook verifies and applies a provider event. Event types other than
// intent success and failure are acknowledged and ignored.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ev, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		s.log.Warn("webhook rejected", zap.Error(err))
		return domain.Invalid("signature", "webhook could not be verified")
	}

	switch ev.Type {
	case paygate.EventIntentSucceeded:
		applied, err := s.repo.Complete(ctx, domain.Payment{
			UserID:        ev.UserID,
			Amount:        ev.Amount,
			Currency:      ev.Currency,
			IntentID:      ev.IntentID,
			TransactionID: ev.TransactionID,
		})
		if err != nil {
			return fmt.Errorf("complete payment %s: %w", ev.IntentID, err)
		}
		if !applied {
			s.log.Info("duplicate payment event", zap.String("intent_id", ev.IntentID))
			return nil
		}
		if ev.UserID != nil {
			cache.Invalidate(ctx, s.cache, s.log, cache.UserInfo(*ev.UserID))
		}
		s.log.Info("payment completed", zap.String("intent_id", ev.IntentID), zap.Int64("amount", ev.Amount))
	case paygate.EventIntentFailed:
		if err := s.repo.MarkFailed(ctx, ev.IntentID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("mark payment %s failed: %w", ev.IntentID, err)
		}
		s.log.Warn("payment failed", zap.String("intent_id", ev.IntentID))
	default:
		s.log.Debug("webhook ignored", zap.String("type", ev.Type), zap.String("event_id", ev.ID))
	}
	return nil
}

// Package messenger stores direct messages encrypted at rest.
package messenger

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"skins-market/internal/domain"
)

type messageRepo interface {
	Create(ctx context.Context, m domain.Message) (*domain.Message, error)
	History(ctx context.Context, a, b int64, cursor domain.MessageCursor, limit int) ([]domain.Message, error)
	MarkRead(ctx context.Context, reader, sender int64) (int64, error)
}

type userLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

type codec interface {
	Encrypt(plain string) (string, error)
	Decrypt(cipher string) (string, error)
}

type Service struct {
	repo  messageRepo
	users userLookup
	codec codec
	log   *zap.Logger
}

func New(repo messageRepo, users userLookup, c codec, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, users: users, codec: c, log: log}
}

type SendInput struct {
	Recipient string `json:"recipient" binding:"required"`
	Content   string `json:"content" binding:"required"`
}

// Send encrypts the content and stores it for the recipient.
func (s *Service) Send(ctx context.Context, senderID int64, in SendInput) (*domain.Message, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, domain.Invalid("content", "required")
	}
	if utf8.RuneCountInString(content) > domain.MaxMessageLength {
		return nil, domain.Invalid("content", "must be at most 500 characters")
	}
	to, err := s.users.GetByUsername(ctx, strings.TrimSpace(in.Recipient))
	if err != nil {
		return nil, err
	}
	if to.ID == senderID {
		return nil, domain.Invalid("recipient", "cannot message yourself")
	}

	sealed, err := s.codec.Encrypt(content)
	if err != nil {
		return nil, fmt.Errorf("encrypt message: %w", err)
	}
	m, err := s.repo.Create(ctx, domain.Message{SenderID: senderID, RecipientID: to.ID, Content: sealed})
	if err != nil {
		return nil, err
	}
	m.Content = content
	return m, nil
}

// History returns one page of the conversation with peerID, newest first, and
// marks the peer's messages as read. A zero cursor starts from now; the last
// message of a page gives the cursor for the next.
func (s *Service) History(ctx context.Context, userID, peerID int64, cursor domain.MessageCursor) ([]domain.Message, error) {
	if _, err := s.users.GetByID(ctx, peerID); err != nil {
		return nil, err
	}
	if cursor.Before.IsZero() {
		cursor = domain.MessageCursor{Before: time.Now()}
	}
	msgs, err := s.repo.History(ctx, userID, peerID, cursor, domain.MessagePageSize)
	if err != nil {
		return nil, err
	}
	for i := range msgs {
		plain, err := s.codec.Decrypt(msgs[i].Content)
		if err != nil {
			return nil, fmt.Errorf("decrypt message %d: %w", msgs[i].ID, err)
		}
		msgs[i].Content = plain
	}
	if _, err := s.repo.MarkRead(ctx, userID, peerID); err != nil {
		s.log.Warn("mark messages read failed", zap.Int64("user_id", userID), zap.Error(err))
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	return msgs, nil
}

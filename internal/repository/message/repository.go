package message

import (
	"context"

	"skins-market/internal/domain"
)

type Repository interface {
	Create(ctx context.Context, m domain.Message) (*domain.Message, error)
	// History returns messages between a and b that lie before the cursor, newest first.
	History(ctx context.Context, a, b int64, cursor domain.MessageCursor, limit int) ([]domain.Message, error)
	// MarkRead flags every message from sender to reader as delivered and read.
	MarkRead(ctx context.Context, reader, sender int64) (int64, error)
}

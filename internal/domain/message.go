package domain

import "time"

type Message struct {
	ID          int64     `json:"id"`
	SenderID    int64     `json:"sender"`
	RecipientID int64     `json:"recipient"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"createdAt"`
	Delivered   bool      `json:"delivered"`
	Read        bool      `json:"read"`
}

const (
	MaxMessageLength = 500
	MessagePageSize  = 40
)

// MessageCursor pages backwards through a conversation by (created_at, id).
// A zero BeforeID keeps only messages strictly older than Before.
type MessageCursor struct {
	Before   time.Time
	BeforeID int64
}

// Includes reports whether m lies before the cursor.
func (c MessageCursor) Includes(m Message) bool {
	return m.CreatedAt.Before(c.Before) || (m.CreatedAt.Equal(c.Before) && m.ID < c.BeforeID)
}

package message

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skins-market/internal/db/dbtest"
	"skins-market/internal/domain"
)

func TestPostgres_History(t *testing.T) {
	pool := dbtest.Pool(t)
	ctx := context.Background()
	repo := NewPostgres(pool, nil)

	a := dbtest.InsertUser(t, pool, "fay", 0)
	b := dbtest.InsertUser(t, pool, "gus", 0)
	c := dbtest.InsertUser(t, pool, "hal", 0)

	for _, m := range []domain.Message{
		{SenderID: a, RecipientID: b, Content: "one"},
		{SenderID: b, RecipientID: a, Content: "two"},
		{SenderID: a, RecipientID: c, Content: "other"},
		{SenderID: a, RecipientID: b, Content: "three"},
	} {
		_, err := repo.Create(ctx, m)
		require.NoError(t, err)
	}

	_, err := repo.Create(ctx, domain.Message{SenderID: a, RecipientID: 9999, Content: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	history, err := repo.History(ctx, b, a, domain.MessageCursor{Before: time.Now().Add(time.Minute)}, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "three", history[0].Content)
	assert.Equal(t, "two", history[1].Content)

	older, err := repo.History(ctx, a, b, domain.MessageCursor{Before: history[1].CreatedAt, BeforeID: history[1].ID}, 10)
	require.NoError(t, err)
	for _, m := range older {
		assert.NotEqual(t, "other", m.Content)
	}

	marked, err := repo.MarkRead(ctx, b, a)
	require.NoError(t, err)
	assert.Equal(t, int64(2), marked)
}

func TestPostgres_HistorySharedTimestamp(t *testing.T) {
	pool := dbtest.Pool(t)
	ctx := context.Background()
	repo := NewPostgres(pool, nil)

	a := dbtest.InsertUser(t, pool, "ida", 0)
	b := dbtest.InsertUser(t, pool, "jon", 0)
	at := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	for _, content := range []string{"m1", "m2", "m3", "m4", "m5"} {
		_, err := pool.Exec(ctx, `INSERT INTO messages (sender_id, recipient_id, content, created_at) VALUES ($1, $2, $3, $4)`, a, b, content, at)
		require.NoError(t, err)
	}

	var seen []string
	cursor := domain.MessageCursor{Before: at.Add(time.Second)}
	for {
		page, err := repo.History(ctx, a, b, cursor, 2)
		require.NoError(t, err)
		if len(page) == 0 {
			break
		}
		for _, m := range page {
			seen = append(seen, m.Content)
		}
		last := page[len(page)-1]
		cursor = domain.MessageCursor{Before: last.CreatedAt, BeforeID: last.ID}
	}
	assert.Equal(t, []string{"m5", "m4", "m3", "m2", "m1"}, seen)

	strict, err := repo.History(ctx, a, b, domain.MessageCursor{Before: at}, 10)
	require.NoError(t, err)
	assert.Empty(t, strict)
}

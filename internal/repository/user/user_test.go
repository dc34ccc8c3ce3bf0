package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skins-market/internal/db/dbtest"
	"skins-market/internal/domain"
)

func TestPostgres_CreateAndActivate(t *testing.T) {
	pool := dbtest.Pool(t)
	ctx := context.Background()
	repo := NewPostgres(pool, nil)

	created, err := repo.Create(ctx, domain.User{
		Email:          "Carol@Example.com",
		Username:       "carol",
		PasswordHash:   "hash",
		Cash:           1000,
		ActivationCode: "code-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "carol@example.com", created.Email)
	assert.False(t, created.IsActive)
	assert.Empty(t, created.Friends)

	_, err = repo.Create(ctx, domain.User{Email: "CAROL@example.com", Username: "other", PasswordHash: "x"})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	byCode, err := repo.GetByActivationCode(ctx, "code-1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byCode.ID)

	require.NoError(t, repo.Activate(ctx, created.ID))
	_, err = repo.GetByActivationCode(ctx, "code-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	byEmail, err := repo.GetByEmail(ctx, "CAROL@EXAMPLE.COM")
	require.NoError(t, err)
	assert.True(t, byEmail.IsActive)
	assert.True(t, byEmail.IsVerified)

	require.NoError(t, repo.UpdatePassword(ctx, created.ID, "new-hash"))
	require.NoError(t, repo.TouchLastLogin(ctx, created.ID))
	got, err := repo.GetByUsername(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)
	assert.NotNil(t, got.LastLogin)

	emails, err := repo.ActiveEmails(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"carol@example.com"}, emails)

	_, err = repo.GetByID(ctx, 9999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPostgres_ProfileAndCollection(t *testing.T) {
	pool := dbtest.Pool(t)
	ctx := context.Background()
	repo := NewPostgres(pool, nil)

	a := dbtest.InsertUser(t, pool, "dave", 0)
	b := dbtest.InsertUser(t, pool, "erin", 0)
	item := dbtest.InsertItem(t, pool, "M4A4 | Howl", 5000, 0, 5000)

	updated, err := repo.UpdateProfile(ctx, domain.User{ID: a, FirstName: "Dave", LastName: "D"})
	require.NoError(t, err)
	assert.Equal(t, "Dave", updated.FirstName)

	users, err := repo.ListByIDs(ctx, []int64{b, a})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "dave", users[0].Username)

	_, err = pool.Exec(ctx, `INSERT INTO ownerships (user_id, item_id, quantity) VALUES ($1, $2, 3)`, a, item)
	require.NoError(t, err)
	owned, err := repo.Collection(ctx, a)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, 3, owned[0].Quantity)
	assert.Equal(t, "M4A4 | Howl", owned[0].Item.Name)
}

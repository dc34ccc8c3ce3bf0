package account

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"skins-market/internal/cache"
	"skins-market/internal/domain"
	"skins-market/internal/events"
)

type stubRepo struct {
	users  map[int64]*domain.User
	nextID int64
}

func newStubRepo() *stubRepo { return &stubRepo{users: map[int64]*domain.User{}} }

func (s *stubRepo) find(match func(*domain.User) bool) (*domain.User, error) {
	for _, u := range s.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubRepo) Create(_ context.Context, u domain.User) (*domain.User, error) {
	for _, e := range s.users {
		if e.Username == u.Username || e.Email == u.Email {
			return nil, domain.ErrAlreadyExists
		}
	}
	s.nextID++
	u.ID = s.nextID
	s.users[u.ID] = &u
	cp := u
	return &cp, nil
}

func (s *stubRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	return s.find(func(u *domain.User) bool { return u.ID == id })
}

func (s *stubRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return s.find(func(u *domain.User) bool { return u.Username == username })
}

func (s *stubRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return s.find(func(u *domain.User) bool { return u.Email == email })
}

func (s *stubRepo) GetByActivationCode(_ context.Context, code string) (*domain.User, error) {
	return s.find(func(u *domain.User) bool { return code != "" && u.ActivationCode == code })
}

func (s *stubRepo) Activate(_ context.Context, id int64) error {
	u := s.users[id]
	u.IsActive, u.IsVerified, u.ActivationCode = true, true, ""
	return nil
}

func (s *stubRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	s.users[id].PasswordHash = hash
	return nil
}

func (s *stubRepo) UpdateProfile(_ context.Context, u domain.User) (*domain.User, error) {
	cur := s.users[u.ID]
	cur.FirstName, cur.LastName, cur.PhotoURL = u.FirstName, u.LastName, u.PhotoURL
	cp := *cur
	return &cp, nil
}

func (s *stubRepo) TouchLastLogin(_ context.Context, id int64) error {
	now := time.Now()
	s.users[id].LastLogin = &now
	return nil
}

func (s *stubRepo) ActiveEmails(context.Context) ([]string, error) {
	var out []string
	for _, u := range s.users {
		if u.IsActive {
			out = append(out, u.Email)
		}
	}
	return out, nil
}

func (s *stubRepo) Collection(_ context.Context, userID int64) ([]domain.Ownership, error) {
	return []domain.Ownership{{UserID: userID, ItemID: 1, Quantity: 2}}, nil
}

const goodPassword = "Str0ng_Pass"

func newService(repo *stubRepo) (*Service, *cache.Memory, *events.Recorder) {
	mem := cache.NewMemory()
	rec := &events.Recorder{}
	svc := New(repo, Options{JWTSecret: "test-secret", StartingCash: 1000}, mem, rec, nil)
	svc.bcryptCost = bcrypt.MinCost
	return svc, mem, rec
}

func registerActive(t *testing.T, svc *Service, username string) *domain.User {
	t.Helper()
	u, err := svc.Register(context.Background(), RegisterInput{Email: username + "@example.com", Username: username, Password: goodPassword})
	require.NoError(t, err)
	require.NoError(t, svc.Activate(context.Background(), u.ActivationCode))
	return u
}

func TestValidatePassword(t *testing.T) {
	cases := []struct {
		password string
		ok       bool
	}{
		{"Str0ng_Pass", true},
		{"Aa1!Aa1!Aa", true},
		{"short1A!", false},
		{"alllowercase1!", false},
		{"NoDigitsHere!", false},
		{"NoSpecial123", false},
		{"Has Space1!a", false},
		{"Unicode1!ü_Aa", false},
		{"Aa1!" + strings.Repeat("x", 30), false},
	}
	for _, tc := range cases {
		err := validatePassword("password", tc.password)
		if tc.ok {
			assert.NoError(t, err, tc.password)
		} else {
			assert.Error(t, err, tc.password)
		}
	}
}

func TestRandomPasswordIsValid(t *testing.T) {
	for range 50 {
		p, err := randomPassword()
		require.NoError(t, err)
		assert.NoError(t, validatePassword("password", p), p)
	}
}

func TestRegister(t *testing.T) {
	repo := newStubRepo()
	svc, _, rec := newService(repo)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Email: " Zed@Example.com ", Username: "zed", Password: goodPassword})
	require.NoError(t, err)
	assert.Equal(t, "zed@example.com", u.Email)
	assert.Equal(t, int64(1000), u.Cash)
	assert.False(t, u.IsActive)
	assert.Len(t, u.ActivationCode, 40)
	assert.Equal(t, []domain.Event{domain.UserRegistered{UserID: u.ID, Email: u.Email, ActivationCode: u.ActivationCode}}, rec.Events)

	_, err = svc.Register(ctx, RegisterInput{Email: "zed@example.com", Username: "zed2", Password: goodPassword})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	_, err = svc.Register(ctx, RegisterInput{Email: "a@example.com", Username: goodPassword, Password: goodPassword})
	assert.ErrorIs(t, err, domain.ErrPasswordMatchesUsername)

	var verr *domain.ValidationError
	_, err = svc.Register(ctx, RegisterInput{Email: "not-an-email", Username: "x", Password: goodPassword})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Field)
	_, err = svc.Register(ctx, RegisterInput{Email: strings.Repeat("a", 40) + "@example.com", Username: "long", Password: goodPassword})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Field)
	_, err = svc.Register(ctx, RegisterInput{Email: "b@example.com", Username: "bad name", Password: goodPassword})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "username", verr.Field)
}

func TestActivateAndLogin(t *testing.T) {
	repo := newStubRepo()
	svc, _, _ := newService(repo)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Email: "kim@example.com", Username: "kim", Password: goodPassword})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "kim", goodPassword)
	assert.ErrorIs(t, err, domain.ErrInactiveUser)

	require.NoError(t, svc.Activate(ctx, u.ActivationCode))
	assert.ErrorIs(t, svc.Activate(ctx, u.ActivationCode), domain.ErrNotFound)

	_, err = svc.Login(ctx, "kim", "Wrong_Pass1")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody", goodPassword)
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	tokens, err := svc.Login(ctx, "kim", goodPassword)
	require.NoError(t, err)
	assert.NotNil(t, repo.users[u.ID].LastLogin)

	claims, err := svc.ParseAccess(tokens.Access)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.False(t, claims.Staff)

	_, err = svc.ParseAccess(tokens.Refresh)
	assert.ErrorIs(t, err, ErrInvalidToken, "refresh token is not an access token")

	refreshed, err := svc.Refresh(ctx, tokens.Refresh)
	require.NoError(t, err)
	_, err = svc.ParseAccess(refreshed.Access)
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, tokens.Access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokensExpire(t *testing.T) {
	svc, _, _ := newService(newStubRepo())
	now := time.Now()
	svc.tokens.now = func() time.Time { return now }
	token, err := svc.tokens.Issue(1, true, kindAccess, time.Minute)
	require.NoError(t, err)

	claims, err := svc.ParseAccess(token)
	require.NoError(t, err)
	assert.True(t, claims.Staff)

	svc.tokens.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, err = svc.ParseAccess(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := newTokenManager("other-secret")
	forged, err := other.Issue(1, true, kindAccess, time.Hour)
	require.NoError(t, err)
	svc.tokens.now = time.Now
	_, err = svc.ParseAccess(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestChangePassword(t *testing.T) {
	repo := newStubRepo()
	svc, _, _ := newService(repo)
	ctx := context.Background()
	u := registerActive(t, svc, "lea")

	assert.ErrorIs(t, svc.ChangePassword(ctx, u.ID, goodPassword, goodPassword), domain.ErrSamePassword)
	assert.ErrorIs(t, svc.ChangePassword(ctx, u.ID, "Wrong_Pass1", "New_Pass_22"), domain.ErrInvalidCredentials)

	var verr *domain.ValidationError
	require.ErrorAs(t, svc.ChangePassword(ctx, u.ID, goodPassword, "weak"), &verr)
	assert.Equal(t, "newPassword", verr.Field)

	require.NoError(t, svc.ChangePassword(ctx, u.ID, goodPassword, "New_Pass_22"))
	_, err := svc.Login(ctx, "lea", "New_Pass_22")
	require.NoError(t, err)
}

func TestResetPassword(t *testing.T) {
	repo := newStubRepo()
	svc, _, rec := newService(repo)
	ctx := context.Background()
	u := registerActive(t, svc, "max")

	assert.ErrorIs(t, svc.ResetPassword(ctx, "ghost@example.com", "max"), domain.ErrNotFound)
	var verr *domain.ValidationError
	require.ErrorAs(t, svc.ResetPassword(ctx, u.Email, "someone"), &verr)

	require.NoError(t, svc.ResetPassword(ctx, u.Email, "max"))
	reset, ok := rec.Events[len(rec.Events)-1].(domain.PasswordReset)
	require.True(t, ok)
	assert.Equal(t, domain.PasswordReset{UserID: u.ID}, reset)

	_, err := svc.Login(ctx, "max", goodPassword)
	require.NoError(t, err, "password is unchanged until the reset task runs")

	owner, password, err := svc.IssuePassword(ctx, reset.UserID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, owner.Email)
	assert.NoError(t, validatePassword("password", password))

	_, err = svc.Login(ctx, "max", goodPassword)
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = svc.Login(ctx, "max", password)
	require.NoError(t, err)

	_, _, err = svc.IssuePassword(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProfileCaching(t *testing.T) {
	repo := newStubRepo()
	svc, mem, _ := newService(repo)
	ctx := context.Background()
	u := registerActive(t, svc, "ned")
	repo.users[u.ID].Friends = []int64{42}
	require.NoError(t, mem.Set(ctx, cache.UserFriends(42), []domain.PublicUser{{ID: u.ID, Username: "ned"}}, 0))

	got, err := svc.Profile(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
	assert.True(t, mem.Has(cache.UserInfo(u.ID)))

	updated, err := svc.UpdateProfile(ctx, u.ID, ProfilePatch{FirstName: ptr(" Ned ")})
	require.NoError(t, err)
	assert.Equal(t, "Ned", updated.FirstName)
	assert.False(t, mem.Has(cache.UserInfo(u.ID)))
	assert.False(t, mem.Has(cache.UserFriends(42)))

	owned, err := svc.Collection(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, owned, 1)
}

func ptr[T any](v T) *T { return &v }

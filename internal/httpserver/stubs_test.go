package httpserver

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"skins-market/internal/domain"
	"skins-market/internal/paygate"
	"skins-market/internal/service/account"
	"skins-market/internal/service/catalog"
	"skins-market/internal/service/messenger"
	"skins-market/internal/service/review"
)

const (
	userToken  = "user-token"
	staffToken = "staff-token"
)

type stubAccounts struct {
	user     *domain.User
	tokens   account.Tokens
	err      error
	lastCode string
}

func (s *stubAccounts) ParseAccess(token string) (*account.Claims, error) {
	switch token {
	case userToken:
		return &account.Claims{UserID: 7}, nil
	case staffToken:
		return &account.Claims{UserID: 1, Staff: true}, nil
	}
	return nil, account.ErrInvalidToken
}

func (s *stubAccounts) Register(context.Context, account.RegisterInput) (*domain.User, error) {
	return s.user, s.err
}

func (s *stubAccounts) Activate(_ context.Context, code string) error {
	s.lastCode = code
	return s.err
}

func (s *stubAccounts) Login(context.Context, string, string) (account.Tokens, error) {
	return s.tokens, s.err
}

func (s *stubAccounts) Refresh(context.Context, string) (account.Tokens, error) {
	return s.tokens, s.err
}

func (s *stubAccounts) ChangePassword(context.Context, int64, string, string) error { return s.err }

func (s *stubAccounts) ResetPassword(context.Context, string, string) error { return s.err }

func (s *stubAccounts) Profile(context.Context, int64) (*domain.User, error) { return s.user, s.err }

func (s *stubAccounts) UpdateProfile(context.Context, int64, account.ProfilePatch) (*domain.User, error) {
	return s.user, s.err
}

func (s *stubAccounts) Collection(context.Context, int64) ([]domain.Ownership, error) {
	return nil, s.err
}

type stubFriends struct {
	err        error
	removedFor int64
}

func (s *stubFriends) Invite(_ context.Context, fromID int64, to string) (*domain.Invite, error) {
	return &domain.Invite{ID: 1, FromUserID: fromID, ToName: to, Status: domain.InvitePending}, s.err
}

func (s *stubFriends) ListInvites(context.Context, int64) ([]domain.Invite, error) { return nil, s.err }

func (s *stubFriends) Respond(context.Context, int64, string, string) (*domain.Invite, error) {
	return &domain.Invite{ID: 1, Status: domain.InviteAccepted}, s.err
}

func (s *stubFriends) ListFriends(context.Context, int64) ([]domain.PublicUser, error) {
	return nil, s.err
}

func (s *stubFriends) RemoveFriend(_ context.Context, userID, _ int64) error {
	s.removedFor = userID
	return s.err
}

type stubCatalog struct {
	page        catalog.Page
	lastFilter  domain.ItemFilter
	recommended []domain.Item
	err         error
}

func (s *stubCatalog) ListItems(_ context.Context, f domain.ItemFilter, _, _ int) (catalog.Page, error) {
	s.lastFilter = f
	return s.page, s.err
}

func (s *stubCatalog) GetItem(_ context.Context, id int64) (*domain.Item, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Item{ID: id, Name: "item"}, nil
}

func (s *stubCatalog) ListCategories(context.Context) ([]domain.Category, error) { return nil, s.err }

func (s *stubCatalog) UpsertCategory(_ context.Context, c domain.Category) (*domain.Category, error) {
	return &c, s.err
}

func (s *stubCatalog) CreateItem(_ context.Context, in catalog.ItemInput) (*domain.Item, error) {
	return &domain.Item{ID: 10, Name: in.Name, BasePrice: in.BasePrice}, s.err
}

func (s *stubCatalog) UpdateItem(_ context.Context, id int64, _ catalog.ItemPatch) (*domain.Item, error) {
	return &domain.Item{ID: id}, s.err
}

func (s *stubCatalog) SetItemImage(_ context.Context, id int64, kind, _ string, r io.Reader, _ int64) (*domain.Item, error) {
	if _, err := io.ReadAll(r); err != nil {
		return nil, err
	}
	return &domain.Item{ID: id, ImageURL: "http://cdn/" + kind}, s.err
}

func (s *stubCatalog) Recommended(context.Context, int) ([]domain.Item, error) {
	return s.recommended, s.err
}

type stubReviews struct{ created bool }

func (s *stubReviews) ListForItem(context.Context, int64) ([]domain.Review, error) { return nil, nil }

func (s *stubReviews) Submit(_ context.Context, userID int64, in review.SubmitInput) (*domain.Review, bool, error) {
	return &domain.Review{UserID: userID, ItemID: in.ItemID, Rating: in.Rating}, s.created, nil
}

func (s *stubReviews) Delete(context.Context, int64, int64) error { return nil }

type stubBasket struct {
	basket *domain.Basket
	err    error
	plan   domain.CheckoutPlan
}

func (s *stubBasket) Get(context.Context, int64) (*domain.Basket, error) {
	if s.basket == nil {
		return nil, domain.ErrNotFound
	}
	return s.basket, nil
}

func (s *stubBasket) AddItem(context.Context, int64, int64) error { return s.err }

func (s *stubBasket) Update(context.Context, int64, int64, string) error { return s.err }

func (s *stubBasket) Clear(context.Context, int64) error { return s.err }

func (s *stubBasket) Checkout(context.Context, int64) (domain.CheckoutPlan, error) {
	return s.plan, s.err
}

type stubMessages struct{ cursor domain.MessageCursor }

func (s *stubMessages) Send(_ context.Context, senderID int64, in messenger.SendInput) (*domain.Message, error) {
	return &domain.Message{ID: 1, SenderID: senderID, Content: in.Content}, nil
}

func (s *stubMessages) History(_ context.Context, _, _ int64, cursor domain.MessageCursor) ([]domain.Message, error) {
	s.cursor = cursor
	return []domain.Message{}, nil
}

type stubPayments struct {
	err       error
	payload   []byte
	signature string
}

func (s *stubPayments) CreateIntent(_ context.Context, _, amount int64) (paygate.Intent, error) {
	return paygate.Intent{ID: "pi_1", ClientSecret: "secret", Amount: amount, Currency: "usd"}, s.err
}

func (s *stubPayments) HandleWebhook(_ context.Context, payload []byte, signature string) error {
	s.payload, s.signature = payload, signature
	return s.err
}

type testDeps struct {
	accounts *stubAccounts
	friends  *stubFriends
	catalog  *stubCatalog
	reviews  *stubReviews
	basket   *stubBasket
	messages *stubMessages
	payments *stubPayments
}

func newTestDeps() *testDeps {
	return &testDeps{
		accounts: &stubAccounts{},
		friends:  &stubFriends{},
		catalog:  &stubCatalog{},
		reviews:  &stubReviews{},
		basket:   &stubBasket{},
		messages: &stubMessages{},
		payments: &stubPayments{},
	}
}

func (d *testDeps) router(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return buildRouter(nil, nil, Deps{
		Accounts: d.accounts,
		Friends:  d.friends,
		Catalog:  d.catalog,
		Reviews:  d.reviews,
		Basket:   d.basket,
		Messages: d.messages,
		Payments: d.payments,
	}, Options{})
}

func do(t *testing.T, r http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

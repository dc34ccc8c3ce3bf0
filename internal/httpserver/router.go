package httpserver

import (
	"context"
	"io"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"skins-market/internal/domain"
	"skins-market/internal/paygate"
	"skins-market/internal/service/account"
	"skins-market/internal/service/catalog"
	"skins-market/internal/service/messenger"
	"skins-market/internal/service/review"
)

type AccountService interface {
	tokenParser
	Register(ctx context.Context, in account.RegisterInput) (*domain.User, error)
	Activate(ctx context.Context, code string) error
	Login(ctx context.Context, username, password string) (account.Tokens, error)
	Refresh(ctx context.Context, refresh string) (account.Tokens, error)
	ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error
	ResetPassword(ctx context.Context, email, username string) error
	Profile(ctx context.Context, userID int64) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID int64, patch account.ProfilePatch) (*domain.User, error)
	Collection(ctx context.Context, userID int64) ([]domain.Ownership, error)
}

type FriendsService interface {
	Invite(ctx context.Context, fromID int64, toUsername string) (*domain.Invite, error)
	ListInvites(ctx context.Context, userID int64) ([]domain.Invite, error)
	Respond(ctx context.Context, userID int64, fromUsername, action string) (*domain.Invite, error)
	ListFriends(ctx context.Context, userID int64) ([]domain.PublicUser, error)
	RemoveFriend(ctx context.Context, userID, friendID int64) error
}

type CatalogService interface {
	ListItems(ctx context.Context, f domain.ItemFilter, page, size int) (catalog.Page, error)
	GetItem(ctx context.Context, id int64) (*domain.Item, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	UpsertCategory(ctx context.Context, c domain.Category) (*domain.Category, error)
	CreateItem(ctx context.Context, in catalog.ItemInput) (*domain.Item, error)
	UpdateItem(ctx context.Context, id int64, patch catalog.ItemPatch) (*domain.Item, error)
	SetItemImage(ctx context.Context, id int64, kind, contentType string, r io.Reader, size int64) (*domain.Item, error)
	Recommended(ctx context.Context, n int) ([]domain.Item, error)
}

type ReviewService interface {
	ListForItem(ctx context.Context, itemID int64) ([]domain.Review, error)
	Submit(ctx context.Context, userID int64, in review.SubmitInput) (*domain.Review, bool, error)
	Delete(ctx context.Context, userID, itemID int64) error
}

type BasketService interface {
	Get(ctx context.Context, userID int64) (*domain.Basket, error)
	AddItem(ctx context.Context, userID, itemID int64) error
	Update(ctx context.Context, userID, itemID int64, action string) error
	Clear(ctx context.Context, userID int64) error
	Checkout(ctx context.Context, userID int64) (domain.CheckoutPlan, error)
}

type MessageService interface {
	Send(ctx context.Context, senderID int64, in messenger.SendInput) (*domain.Message, error)
	History(ctx context.Context, userID, peerID int64, cursor domain.MessageCursor) ([]domain.Message, error)
}

type PaymentService interface {
	CreateIntent(ctx context.Context, userID, amount int64) (paygate.Intent, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

// Deps are the services the API routes to.
type Deps struct {
	Accounts AccountService
	Friends  FriendsService
	Catalog  CatalogService
	Reviews  ReviewService
	Basket   BasketService
	Messages MessageService
	Payments PaymentService
}

type Options struct {
	CORSOrigins    []string
	MaxUploadBytes int64
}

type handlers struct {
	Deps
	log  *zap.Logger
	opts Options
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, db pinger, deps Deps, opts Options) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 5 << 20
	}
	useJSONFieldNames()
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(accessLog(logger), recovery(logger))
	if len(opts.CORSOrigins) > 0 {
		cfg := cors.DefaultConfig()
		cfg.AllowOrigins = opts.CORSOrigins
		cfg.AddAllowHeaders("Authorization")
		router.Use(cors.New(cfg))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	h := &handlers{Deps: deps, log: logger, opts: opts}
	auth := authRequired(deps.Accounts, logger)

	api := router.Group("/api/v1")
	api.POST("/registration", h.register)
	api.GET("/activate/:code", h.activate)
	api.POST("/token", h.token)
	api.POST("/token/refresh", h.refresh)
	api.POST("/reset-password", h.resetPassword)
	api.POST("/webhook", h.webhook)

	api.GET("/items", h.listItems)
	api.GET("/items/:id", h.getItem)
	api.GET("/categories", h.listCategories)
	api.GET("/reviews/:itemId", h.listReviews)

	user := api.Group("", auth)
	user.PATCH("/change-password", h.changePassword)
	user.GET("/per-cab", h.profile)
	user.PATCH("/per-cab", h.updateProfile)
	user.GET("/collection", h.collection)

	user.GET("/friends", h.listFriends)
	user.DELETE("/friends/:id", h.removeFriend)
	user.GET("/invites", h.listInvites)
	user.POST("/invites", h.sendInvite)
	user.PATCH("/invites", h.respondInvite)

	user.POST("/reviews", h.submitReview)
	user.DELETE("/reviews/:itemId", h.deleteReview)

	user.GET("/basket", h.getBasket)
	user.PUT("/basket", h.addToBasket)
	user.PATCH("/basket", h.updateBasket)
	user.POST("/basket", h.checkout)
	user.DELETE("/basket", h.clearBasket)

	user.GET("/messages/:userId", h.messageHistory)
	user.POST("/messages", h.sendMessage)

	user.POST("/payments/intents", h.createIntent)

	staff := user.Group("", staffOnly())
	staff.POST("/items", h.createItem)
	staff.PATCH("/items/:id", h.updateItem)
	staff.POST("/items/:id/image", h.uploadItemImage)
	staff.PUT("/categories", h.upsertCategory)

	return router
}

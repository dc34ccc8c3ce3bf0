// Package account handles registration, activation, login and the personal cabinet.
package account

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"skins-market/internal/cache"
	"skins-market/internal/domain"
	"skins-market/internal/events"
)

var validate = validator.New()

type userRepo interface {
	Create(ctx context.Context, u domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByActivationCode(ctx context.Context, code string) (*domain.User, error)
	Activate(ctx context.Context, id int64) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	UpdateProfile(ctx context.Context, u domain.User) (*domain.User, error)
	TouchLastLogin(ctx context.Context, id int64) error
	ActiveEmails(ctx context.Context) ([]string, error)
	Collection(ctx context.Context, userID int64) ([]domain.Ownership, error)
}

type Options struct {
	JWTSecret    string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	StartingCash int64
}

// Service handles account flows.
type Service struct {
	repo         userRepo
	tokens       *tokenManager
	accessTTL    time.Duration
	refreshTTL   time.Duration
	startingCash int64
	bcryptCost   int
	cache        cache.Cache
	events       events.Publisher
	log          *zap.Logger
}

func New(repo userRepo, opts Options, c cache.Cache, pub events.Publisher, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = 48 * time.Hour
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = 30 * 24 * time.Hour
	}
	return &Service{
		repo:         repo,
		tokens:       newTokenManager(opts.JWTSecret),
		accessTTL:    opts.AccessTTL,
		refreshTTL:   opts.RefreshTTL,
		startingCash: opts.StartingCash,
		bcryptCost:   bcrypt.DefaultCost,
		cache:        c,
		events:       pub,
		log:          log,
	}
}

type RegisterInput struct {
	Email    string `json:"email" binding:"required,email,max=50"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

type ProfilePatch struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	PhotoURL  *string `json:"photo"`
}

// Register creates an inactive account and schedules the activation mail.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := validate.Var(email, "required,email,max=50"); err != nil {
		return nil, domain.Invalid("email", "must be a valid address of at most 50 characters")
	}
	username := strings.TrimSpace(in.Username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validatePassword("password", in.Password); err != nil {
		return nil, err
	}
	if in.Password == username {
		return nil, domain.ErrPasswordMatchesUsername
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}
	code, err := activationCode()
	if err != nil {
		return nil, err
	}
	u, err := s.repo.Create(ctx, domain.User{
		Email:          email,
		Username:       username,
		PasswordHash:   string(hash),
		Cash:           s.startingCash,
		ActivationCode: code,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("user registered", zap.Int64("user_id", u.ID), zap.String("username", u.Username))
	s.events.Publish(ctx, domain.UserRegistered{UserID: u.ID, Email: u.Email, ActivationCode: code})
	return u, nil
}

func (s *Service) Activate(ctx context.Context, code string) error {
	u, err := s.repo.GetByActivationCode(ctx, code)
	if err != nil {
		return err
	}
	if u.IsActive {
		return domain.ErrAlreadyActive
	}
	if err := s.repo.Activate(ctx, u.ID); err != nil {
		return err
	}
	cache.Invalidate(ctx, s.cache, s.log, cache.UserInfo(u.ID))
	return nil
}

// Login checks credentials and issues an access and a refresh token.
func (s *Service) Login(ctx context.Context, username, password string) (Tokens, error) {
	u, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Tokens{}, domain.ErrInvalidCredentials
		}
		return Tokens{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return Tokens{}, domain.ErrInvalidCredentials
	}
	if !u.IsActive {
		return Tokens{}, domain.ErrInactiveUser
	}

	access, err := s.tokens.Issue(u.ID, u.IsStaff, kindAccess, s.accessTTL)
	if err != nil {
		return Tokens{}, err
	}
	refresh, err := s.tokens.Issue(u.ID, u.IsStaff, kindRefresh, s.refreshTTL)
	if err != nil {
		return Tokens{}, err
	}
	if err := s.repo.TouchLastLogin(ctx, u.ID); err != nil {
		s.log.Warn("last login not recorded", zap.Int64("user_id", u.ID), zap.Error(err))
	}
	return Tokens{Access: access, Refresh: refresh}, nil
}

// Refresh exchanges a refresh token for a new access token.
func (s *Service) Refresh(ctx context.Context, refresh string) (Tokens, error) {
	claims, err := s.tokens.Validate(refresh, kindRefresh)
	if err != nil {
		return Tokens{}, err
	}
	u, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Tokens{}, ErrInvalidToken
		}
		return Tokens{}, err
	}
	if !u.IsActive {
		return Tokens{}, domain.ErrInactiveUser
	}
	access, err := s.tokens.Issue(u.ID, u.IsStaff, kindAccess, s.accessTTL)
	if err != nil {
		return Tokens{}, err
	}
	return Tokens{Access: access}, nil
}

// ParseAccess validates an access token and returns its claims.
func (s *Service) ParseAccess(token string) (*Claims, error) {
	return s.tokens.Validate(token, kindAccess)
}

func (s *Service) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	if err := validatePassword("oldPassword", oldPassword); err != nil {
		return err
	}
	if err := validatePassword("newPassword", newPassword); err != nil {
		return err
	}
	if oldPassword == newPassword {
		return domain.ErrSamePassword
	}
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if newPassword == u.Username {
		return domain.ErrPasswordMatchesUsername
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(oldPassword)); err != nil {
		return domain.ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return err
	}
	s.log.Info("password changed", zap.Int64("user_id", userID))
	return nil
}

// ResetPassword checks that email and username name the same account and
// schedules a reset. IssuePassword does the replacement when the task runs.
func (s *Service) ResetPassword(ctx context.Context, email, username string) error {
	u, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return err
	}
	if u.Username != strings.TrimSpace(username) {
		return domain.Invalid("username", "does not match the account")
	}
	s.events.Publish(ctx, domain.PasswordReset{UserID: u.ID})
	return nil
}

// IssuePassword replaces the user's password with a random one and returns it
// for mailing.
func (s *Service) IssuePassword(ctx context.Context, userID int64) (*domain.User, string, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	password, err := randomPassword()
	if err != nil {
		return nil, "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, "", err
	}
	if err := s.repo.UpdatePassword(ctx, u.ID, string(hash)); err != nil {
		return nil, "", err
	}
	s.log.Info("password reset issued", zap.Int64("user_id", u.ID))
	return u, password, nil
}

func (s *Service) Profile(ctx context.Context, userID int64) (*domain.User, error) {
	return cache.Fetch(ctx, s.cache, s.log, cache.UserInfo(userID), cache.EntityTTL, func(ctx context.Context) (*domain.User, error) {
		return s.repo.GetByID(ctx, userID)
	})
}

func (s *Service) UpdateProfile(ctx context.Context, userID int64, patch ProfilePatch) (*domain.User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if patch.FirstName != nil {
		u.FirstName = strings.TrimSpace(*patch.FirstName)
	}
	if patch.LastName != nil {
		u.LastName = strings.TrimSpace(*patch.LastName)
	}
	if patch.PhotoURL != nil {
		u.PhotoURL = strings.TrimSpace(*patch.PhotoURL)
	}
	if len(u.FirstName) > 20 {
		return nil, domain.Invalid("firstName", "must be at most 20 characters")
	}
	if len(u.LastName) > 20 {
		return nil, domain.Invalid("lastName", "must be at most 20 characters")
	}
	updated, err := s.repo.UpdateProfile(ctx, *u)
	if err != nil {
		return nil, err
	}
	keys := []string{cache.UserInfo(userID)}
	for _, f := range u.Friends {
		keys = append(keys, cache.UserFriends(f))
	}
	cache.Invalidate(ctx, s.cache, s.log, keys...)
	return updated, nil
}

func (s *Service) Collection(ctx context.Context, userID int64) ([]domain.Ownership, error) {
	return cache.Fetch(ctx, s.cache, s.log, cache.UserCollection(userID), cache.EntityTTL, func(ctx context.Context) ([]domain.Ownership, error) {
		return s.repo.Collection(ctx, userID)
	})
}

// ActiveEmails lists addresses of activated accounts.
func (s *Service) ActiveEmails(ctx context.Context) ([]string, error) {
	return s.repo.ActiveEmails(ctx)
}

func activationCode() (string, error) {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

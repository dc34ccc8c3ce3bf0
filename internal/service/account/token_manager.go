package account

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	kindAccess  = "access"
	kindRefresh = "refresh"
)

// ErrInvalidToken indicates the provided token could not be validated.
var ErrInvalidToken = errors.New("invalid token")

// Claims are carried by access and refresh tokens.
type Claims struct {
	UserID int64  `json:"user_id"`
	Staff  bool   `json:"staff,omitempty"`
	Kind   string `json:"kind"`
	jwt.RegisteredClaims
}

type tokenManager struct {
	secret []byte
	now    func() time.Time
}

func newTokenManager(secret string) *tokenManager {
	return &tokenManager{secret: []byte(secret), now: time.Now}
}

func (m *tokenManager) Issue(userID int64, staff bool, kind string, ttl time.Duration) (string, error) {
	now := m.now()
	claims := Claims{
		UserID: userID,
		Staff:  staff,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Validate parses token and checks it is of the wanted kind.
func (m *tokenManager) Validate(token, kind string) (*Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Kind != kind || claims.UserID <= 0 {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

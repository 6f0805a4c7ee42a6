package service

import (
	"errors"
	"fmt"
	"time"

	"yamdb/internal/microservices/http-api/models"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carried by an access token.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies access tokens.
type TokenIssuer interface {
	Issue(u *models.User) (string, error)
	Parse(token string) (*Claims, error)
}

type jwtIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTIssuer signs HS256 tokens with secret, valid for ttl.
func NewJWTIssuer(secret string, ttl time.Duration) TokenIssuer {
	return &jwtIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (i *jwtIssuer) Issue(u *models.User) (string, error) {
	now := i.now()
	claims := Claims{
		UserID:   u.ID,
		Username: u.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

func (i *jwtIssuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("token expired: %w", ErrAuthentication)
		}
		return nil, fmt.Errorf("invalid token: %w", ErrAuthentication)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("invalid token: %w", ErrAuthentication)
	}
	return claims, nil
}

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	apperrors "userhandler/internal/errors"
)

// DefaultTokenLifetime is used when a codec is built with a non-positive lifetime.
const DefaultTokenLifetime = 10 * time.Hour

// Claims represents JWT claims. Name mirrors the subject.
type Claims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// TokenCodec issues and verifies HS256 signed tokens.
type TokenCodec struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

// Option configures a TokenCodec.
type Option func(*TokenCodec)

// WithClock overrides the clock used for issuing and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *TokenCodec) {
		if now != nil {
			c.now = now
		}
	}
}

// NewTokenCodec creates a codec signing with secret; issued tokens expire after lifetime.
func NewTokenCodec(secret string, lifetime time.Duration, opts ...Option) *TokenCodec {
	if lifetime <= 0 {
		lifetime = DefaultTokenLifetime
	}
	c := &TokenCodec{
		secret:   []byte(secret),
		lifetime: lifetime,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lifetime returns the validity window of issued tokens.
func (c *TokenCodec) Lifetime() time.Duration {
	return c.lifetime
}

// Issue builds a signed token for subject.
func (c *TokenCodec) Issue(subject string) (string, error) {
	now := c.now()
	claims := &Claims{
		Name: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.lifetime)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseClaims checks the signature and structure of tokenString and returns
// its claims. Expiry is not checked here.
func (c *TokenCodec) ParseClaims(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return c.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperrors.ErrInvalidToken
	}
	if claims.ExpiresAt == nil {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}

// ExtractSubject returns the subject of a well-formed token.
func (c *TokenCodec) ExtractSubject(tokenString string) (string, error) {
	claims, err := c.ParseClaims(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// ExtractExpiration returns the expiration time of a well-formed token.
func (c *TokenCodec) ExtractExpiration(tokenString string) (time.Time, error) {
	claims, err := c.ParseClaims(tokenString)
	if err != nil {
		return time.Time{}, err
	}
	return claims.ExpiresAt.Time, nil
}

// IsExpired reports whether the token expiration is at or before now.
func (c *TokenCodec) IsExpired(tokenString string) (bool, error) {
	claims, err := c.ParseClaims(tokenString)
	if err != nil {
		return false, err
	}
	return c.expired(claims), nil
}

// Validate reports whether the token parses, belongs to expectedSubject and has not expired.
func (c *TokenCodec) Validate(tokenString, expectedSubject string) bool {
	claims, err := c.ParseClaims(tokenString)
	if err != nil {
		return false
	}
	return claims.Subject == expectedSubject && !c.expired(claims)
}

// Verify parses tokenString and rejects it with ErrTokenExpired when it is past expiration.
func (c *TokenCodec) Verify(tokenString string) (*Claims, error) {
	claims, err := c.ParseClaims(tokenString)
	if err != nil {
		return nil, err
	}
	if c.expired(claims) {
		return nil, apperrors.ErrTokenExpired
	}
	return claims, nil
}

func (c *TokenCodec) expired(claims *Claims) bool {
	return !claims.VerifyExpiresAt(c.now(), true)
}

package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultSessionTTL = 24 * time.Hour

var (
	ErrMissingSigningSecret = errors.New("auth: signing secret required")
	ErrMissingSubject       = errors.New("auth: subject required")
	ErrInvalidSessionToken  = errors.New("auth: invalid session token")
	ErrExpiredSessionToken  = errors.New("auth: session token expired")
)

// SessionIssuerConfig configures the cookie session token issuer.
type SessionIssuerConfig struct {
	SigningSecret []byte
	Issuer        string
	TokenTTL      time.Duration
	Clock         func() time.Time
}

// SessionIssuer issues and validates HS256 session tokens carried in an
// httpOnly cookie.
type SessionIssuer struct {
	signingSecret []byte
	issuer        string
	tokenTTL      time.Duration
	clock         func() time.Time
}

// NewSessionIssuer constructs a SessionIssuer with sane defaults.
func NewSessionIssuer(cfg SessionIssuerConfig) (*SessionIssuer, error) {
	if len(cfg.SigningSecret) == 0 {
		return nil, ErrMissingSigningSecret
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &SessionIssuer{
		signingSecret: append([]byte(nil), cfg.SigningSecret...),
		issuer:        strings.TrimSpace(cfg.Issuer),
		tokenTTL:      ttl,
		clock:         clock,
	}, nil
}

// TokenTTL exposes the configured session lifetime, used for cookie expiry.
func (i *SessionIssuer) TokenTTL() time.Duration {
	return i.tokenTTL
}

// IssueSessionToken produces a signed JWT for the given user identifier.
func (i *SessionIssuer) IssueSessionToken(userID string) (string, error) {
	subject := strings.TrimSpace(userID)
	if subject == "" {
		return "", ErrMissingSubject
	}

	now := i.clock().UTC()
	registered := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    i.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.tokenTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, registered)
	return token.SignedString(i.signingSecret)
}

// ValidateSessionToken ensures the token is well formed and returns the user
// identifier it was issued for.
func (i *SessionIssuer) ValidateSessionToken(tokenString string) (string, error) {
	token := strings.TrimSpace(tokenString)
	if token == "" {
		return "", ErrInvalidSessionToken
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(
		token,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("%w: unexpected signing algorithm %s", ErrInvalidSessionToken, t.Method.Alg())
			}
			return i.signingSecret, nil
		},
		jwt.WithTimeFunc(i.clock),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredSessionToken
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidSessionToken, err)
	}
	if parsed == nil || !parsed.Valid {
		return "", ErrInvalidSessionToken
	}
	if i.issuer != "" && claims.Issuer != i.issuer {
		return "", ErrInvalidSessionToken
	}
	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return "", ErrMissingSubject
	}
	return subject, nil
}

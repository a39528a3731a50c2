package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"storefront/api/internal/apperr"
	"storefront/api/internal/ids"
)

// DefaultTokenTTL is the lifetime of an issued credential.
const DefaultTokenTTL = 7 * 24 * time.Hour

var ErrEmptySecret = errors.New("token signing secret is empty")

type TokenClaims struct {
	AccountID string `json:"_id"`
	jwt.RegisteredClaims
}

// Credential is the decoded content of a token. ExpiresAt may be in the past; expiry is
// enforced by callers, not by the codec.
type Credential struct {
	AccountID string
	ExpiresAt time.Time
}

func (c Credential) Expired(now time.Time) bool {
	return c.ExpiresAt.Before(now)
}

// TokenCodec signs and verifies account credentials with a single HMAC secret.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenCodec(secret string, ttl time.Duration) (*TokenCodec, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenCodec{secret: []byte(secret), ttl: ttl}, nil
}

func (c *TokenCodec) Issue(accountID string) (string, error) {
	return c.IssueAt(accountID, time.Now())
}

// IssueAt signs a credential as if issued at issuedAt. Every token carries a unique jti so
// two tokens issued within the same second never collide.
func (c *TokenCodec) IssueAt(accountID string, issuedAt time.Time) (string, error) {
	claims := TokenClaims{
		AccountID: accountID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(c.ttl)),
			ID:        ids.New(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return signed, nil
}

// Decode verifies the signature and returns the credential even when it has expired.
func (c *TokenCodec) Decode(tokenStr string) (Credential, error) {
	var claims TokenClaims
	_, err := jwt.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return Credential{}, apperr.Wrap(apperr.KindInvalidCredential, "invalid token", err)
	}
	if claims.AccountID == "" || claims.ExpiresAt == nil {
		return Credential{}, apperr.New(apperr.KindInvalidCredential, "invalid token")
	}

	return Credential{
		AccountID: claims.AccountID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/api/internal/apperr"
	"storefront/api/internal/models"
	"storefront/api/internal/response"
	"storefront/api/internal/service"
)

const (
	currentAccountKey = "current_account"
	currentTokenKey   = "current_token"
)

type Authenticator interface {
	AuthenticateByToken(ctx context.Context, requestPath string, token string) (service.Session, error)
}

// Auth resolves the bearer token to an account. The matched route pattern is what the
// grace-window policy sees, so expired tokens pass only on the routes registered for it.
func Auth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Fail(c, apperr.New(apperr.KindInvalidToken, "missing token"))
			return
		}

		session, err := auth.AuthenticateByToken(c.Request.Context(), c.FullPath(), tokenStr)
		if err != nil {
			response.Fail(c, err)
			return
		}

		account := session.Account
		c.Set(currentAccountKey, &account)
		c.Set(currentTokenKey, session.Token)

		c.Next()
	}
}

// bearerToken extracts the credential from an Authorization header. The scheme is
// matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func CurrentAccount(c *gin.Context) (*models.Account, bool) {
	v, ok := c.Get(currentAccountKey)
	if !ok {
		return nil, false
	}
	account, ok := v.(*models.Account)
	return account, ok && account != nil
}

// CurrentToken is the exact token string that authenticated the request.
func CurrentToken(c *gin.Context) string {
	return c.GetString(currentTokenKey)
}

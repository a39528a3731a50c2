package middleware

import (
	"github.com/gin-gonic/gin"

	"storefront/api/internal/apperr"
	"storefront/api/internal/models"
	"storefront/api/internal/response"
)

func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	roleSet := make(map[models.Role]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}

	return func(c *gin.Context) {
		account, ok := CurrentAccount(c)
		if !ok {
			response.Fail(c, apperr.New(apperr.KindInvalidToken, "unauthorized"))
			return
		}

		if _, ok := roleSet[account.Role]; !ok {
			response.Fail(c, apperr.New(apperr.KindForbidden, "forbidden"))
			return
		}

		c.Next()
	}
}

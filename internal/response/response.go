// Package response writes the JSON envelope every API route answers with and maps
// classified errors onto HTTP status codes.
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"storefront/api/internal/apperr"
)

const unknownMessage = "unknown error"

type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Result  any    `json:"result,omitempty"`
}

func OK(c *gin.Context, result any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Result: result})
}

// Fail aborts the request with the status for err's kind. Unclassified errors are attached
// to the context for the request logger and answered with a generic message.
func Fail(c *gin.Context, err error) {
	e, ok := apperr.As(err)
	if !ok || e.Kind == apperr.KindUnknown {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, Envelope{Message: unknownMessage})
		return
	}

	c.AbortWithStatusJSON(StatusOf(e.Kind), Envelope{Message: e.Message})
}

func StatusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindInvalidProductID:
		return http.StatusBadRequest
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindInvalidCredential, apperr.KindInvalidToken, apperr.KindExpired,
		apperr.KindAccountNotFound, apperr.KindBadPassword:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindProductUnavailable:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// BindError turns a gin binding failure into a validation error naming the first bad field.
func BindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return apperr.Validation(fe.Field(), fe.Field()+" failed "+fe.Tag()+" check")
	}
	return apperr.Validation("body", "invalid request body")
}

package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront/api/internal/apperr"
	"storefront/api/internal/ids"
	"storefront/api/internal/repository"
	"storefront/api/internal/response"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

func pagination(c *gin.Context) (limit, offset int) {
	limit = defaultPageSize

	if perPage := c.Query("perPage"); perPage != "" {
		if v, err := strconv.Atoi(perPage); err == nil && v > 0 && v <= maxPageSize {
			limit = v
		}
	}
	if page := c.Query("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v > 1 {
			offset = (v - 1) * limit
		}
	}
	return limit, offset
}

func (h HandlerSet) ListProducts(c *gin.Context) {
	limit, offset := pagination(c)

	products, err := h.products.List(c.Request.Context(), true, limit, offset)
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, products)
}

// GetProduct serves one sellable product through the cache.
func (h HandlerSet) GetProduct(c *gin.Context) {
	id := c.Param("id")
	if !ids.Valid(id) {
		response.Fail(c, apperr.New(apperr.KindInvalidProductID, "invalid product id"))
		return
	}

	product, err := h.productCache.FindProduct(c.Request.Context(), id)
	if errors.Is(err, repository.ErrProductNotFound) || (err == nil && !product.Sellable) {
		response.Fail(c, apperr.New(apperr.KindProductUnavailable, "product not found"))
		return
	}
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, product)
}

package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"storefront/api/internal/apperr"
	"storefront/api/internal/ids"
	"storefront/api/internal/models"
	"storefront/api/internal/repository"
	"storefront/api/internal/response"
)

type createProductRequest struct {
	Name        string `json:"name" binding:"required"`
	Price       int64  `json:"price" binding:"gte=0"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Category    string `json:"category" binding:"required"`
	Sell        bool   `json:"sell"`
}

type updateProductRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1"`
	Price       *int64  `json:"price" binding:"omitempty,gte=0"`
	Description *string `json:"description"`
	Image       *string `json:"image"`
	Category    *string `json:"category" binding:"omitempty,min=1"`
	Sell        *bool   `json:"sell"`
}

// AdminListProducts lists the whole catalogue, including products withdrawn from sale.
func (h HandlerSet) AdminListProducts(c *gin.Context) {
	limit, offset := pagination(c)

	products, err := h.products.List(c.Request.Context(), false, limit, offset)
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, products)
}

func (h HandlerSet) AdminCreateProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, response.BindError(err))
		return
	}

	product := models.Product{
		ID:          ids.New(),
		Name:        req.Name,
		Price:       req.Price,
		Description: req.Description,
		Image:       req.Image,
		Category:    req.Category,
		Sellable:    req.Sell,
	}
	if err := h.products.Create(c.Request.Context(), &product); err != nil {
		response.Fail(c, err)
		return
	}

	h.log.Info().Str("product_id", product.ID).Msg("product created")
	response.OK(c, product)
}

func (h HandlerSet) AdminUpdateProduct(c *gin.Context) {
	id := c.Param("id")
	if !ids.Valid(id) {
		response.Fail(c, apperr.New(apperr.KindInvalidProductID, "invalid product id"))
		return
	}

	var req updateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, response.BindError(err))
		return
	}

	ctx := c.Request.Context()
	product, err := h.products.GetByID(ctx, id)
	if errors.Is(err, repository.ErrProductNotFound) {
		response.Fail(c, apperr.New(apperr.KindProductUnavailable, "product not found"))
		return
	}
	if err != nil {
		response.Fail(c, err)
		return
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Image != nil {
		product.Image = *req.Image
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.Sell != nil {
		product.Sellable = *req.Sell
	}

	if err := h.products.Update(ctx, &product); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			err = apperr.New(apperr.KindProductUnavailable, "product not found")
		}
		response.Fail(c, err)
		return
	}

	if err := h.productCache.Invalidate(ctx, id); err != nil {
		h.log.Warn().Err(err).Str("product_id", id).Msg("product cache invalidate failed")
	}

	response.OK(c, product)
}

package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/api/internal/models"
	"storefront/api/internal/response"
)

// quantityDelta accepts a JSON integer or a string holding one, as older clients send
// form-encoded numbers.
type quantityDelta int

func (q *quantityDelta) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		raw = []byte(strings.TrimSpace(s))
	}

	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return fmt.Errorf("quantity %s is not an integer", data)
	}
	*q = quantityDelta(n)
	return nil
}

type editCartRequest struct {
	Product  string         `json:"product"`
	Quantity *quantityDelta `json:"quantity" binding:"required,min=-2147483648,max=2147483647"`
}

type cartItemResponse struct {
	Product  *models.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

// EditCart applies a signed quantity delta and answers with the new aggregate item count.
func (h HandlerSet) EditCart(c *gin.Context) {
	account, ok := h.currentAccount(c)
	if !ok {
		return
	}

	var req editCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, response.BindError(err))
		return
	}

	count, err := h.cartService.ApplyDelta(c.Request.Context(), account, req.Product, int(*req.Quantity))
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, count)
}

func (h HandlerSet) GetCart(c *gin.Context) {
	account, ok := h.currentAccount(c)
	if !ok {
		return
	}

	items, err := h.cartService.GetCart(c.Request.Context(), account)
	if err != nil {
		response.Fail(c, err)
		return
	}

	resp := make([]cartItemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, cartItemResponse{Product: item.Product, Quantity: item.Quantity})
	}
	response.OK(c, resp)
}

package handlers

import (
	"github.com/gin-gonic/gin"

	"storefront/api/internal/apperr"
	"storefront/api/internal/middleware"
	"storefront/api/internal/models"
	"storefront/api/internal/response"
	"storefront/api/internal/service"
)

type registerRequest struct {
	Account  string `json:"account"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Account  string `json:"account" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type profileResponse struct {
	Token   string `json:"token,omitempty"`
	Account string `json:"account"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	Cart    int    `json:"cart"`
}

func (h HandlerSet) RegisterAccount(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, response.BindError(err))
		return
	}

	if _, err := h.authService.Register(c.Request.Context(), service.RegisterInput{
		AccountName: req.Account,
		Email:       req.Email,
		Password:    req.Password,
	}); err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, nil)
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, response.BindError(err))
		return
	}

	session, err := h.authService.Login(c.Request.Context(), req.Account, req.Password)
	if err != nil {
		response.Fail(c, err)
		return
	}

	resp := h.profile(&session.Account)
	resp.Token = session.Token
	response.OK(c, resp)
}

func (h HandlerSet) Logout(c *gin.Context) {
	account, ok := h.currentAccount(c)
	if !ok {
		return
	}

	if err := h.authService.Logout(c.Request.Context(), account, middleware.CurrentToken(c)); err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, nil)
}

func (h HandlerSet) Extend(c *gin.Context) {
	account, ok := h.currentAccount(c)
	if !ok {
		return
	}

	token, err := h.authService.Rotate(c.Request.Context(), account, middleware.CurrentToken(c))
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, token)
}

func (h HandlerSet) Me(c *gin.Context) {
	account, ok := h.currentAccount(c)
	if !ok {
		return
	}

	response.OK(c, h.profile(account))
}

func (h HandlerSet) profile(account *models.Account) profileResponse {
	p := h.authService.Profile(account)
	return profileResponse{
		Account: p.AccountName,
		Email:   p.Email,
		Role:    string(p.Role),
		Cart:    p.CartItemCount,
	}
}

func (h HandlerSet) currentAccount(c *gin.Context) (*models.Account, bool) {
	account, ok := middleware.CurrentAccount(c)
	if !ok {
		response.Fail(c, apperr.New(apperr.KindInvalidToken, "unauthorized"))
	}
	return account, ok
}

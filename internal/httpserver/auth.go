package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"glowloops/internal/domain"
	customersvc "glowloops/internal/service/customer"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const customerCtxKey = "customer"

type tokenRequest struct {
	GrantType string `form:"grant_type"`
	Username  string `form:"username" binding:"required"`
	Password  string `form:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	CustomerID  string `json:"customer_id"`
}

type customerResponse struct {
	Customer domain.Customer `json:"customer"`
}

// authMiddleware resolves the bearer token into a customer or aborts with 401.
func authMiddleware(svc customerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			errorResponse(c, http.StatusUnauthorized, "missing bearer token")
			c.Abort()
			return
		}
		cust, err := svc.LookupByToken(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, customersvc.ErrInvalidToken) {
				errorResponse(c, http.StatusUnauthorized, "invalid token")
			} else {
				errorResponse(c, http.StatusInternalServerError, "token lookup failed")
			}
			c.Abort()
			return
		}
		c.Set(customerCtxKey, cust)
		c.Next()
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func currentCustomer(c *gin.Context) *domain.Customer {
	v, ok := c.Get(customerCtxKey)
	if !ok {
		return nil
	}
	cust, _ := v.(*domain.Customer)
	return cust
}

func (h *handlers) signup(c *gin.Context) {
	var req customersvc.SignupInput
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "email and password required")
		return
	}
	cust, err := h.deps.CustomerSvc.Signup(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			errorResponse(c, http.StatusConflict, "customer already exists")
			return
		}
		if errors.Is(err, customersvc.ErrInvalidSignup) {
			errorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("signup failed", zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, "signup failed")
		return
	}
	c.JSON(http.StatusCreated, customerResponse{Customer: *cust})
}

func (h *handlers) token(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBind(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "username and password required")
		return
	}
	if req.GrantType != "" && req.GrantType != "password" {
		errorResponse(c, http.StatusBadRequest, "unsupported grant_type")
		return
	}
	cust, access, err := h.deps.CustomerSvc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, customersvc.ErrInvalidCredentials) {
			errorResponse(c, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.logger.Error("login failed", zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, "login failed")
		return
	}
	c.JSON(http.StatusOK, tokenResponse{
		AccessToken: access,
		TokenType:   "Bearer",
		ExpiresIn:   h.deps.CustomerSvc.AccessTTLSeconds(),
		CustomerID:  cust.ID,
	})
}

func (h *handlers) logout(c *gin.Context) {
	token := bearerToken(c.GetHeader("Authorization"))
	if token == "" {
		errorResponse(c, http.StatusUnauthorized, "missing bearer token")
		return
	}
	if err := h.deps.CustomerSvc.Logout(c.Request.Context(), token); err != nil {
		h.logger.Error("logout failed", zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, "logout failed")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) me(c *gin.Context) {
	c.JSON(http.StatusOK, customerResponse{Customer: *currentCustomer(c)})
}

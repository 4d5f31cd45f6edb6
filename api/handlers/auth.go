package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/OldStager01/resource-autoscaler/internal/auth"
	"github.com/gin-gonic/gin"
)

// AuthHandler exchanges the configured operator key for a short-lived
// JWT used against the protected diagnostics endpoints.
type AuthHandler struct {
	authService *auth.Service
	operatorKey string
}

func NewAuthHandler(authService *auth.Service, operatorKey string) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		operatorKey: operatorKey,
	}
}

type TokenRequest struct {
	Operator string `json:"operator" binding:"required,min=1,max=64"`
	Key      string `json:"key" binding:"required"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

func (h *AuthHandler) Token(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if h.operatorKey == "" ||
		subtle.ConstantTimeCompare([]byte(req.Key), []byte(h.operatorKey)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid operator key"})
		return
	}

	token, err := h.authService.GenerateToken(req.Operator)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, TokenResponse{Token: token})
}

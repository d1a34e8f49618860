package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"farmflow/internal/auth"
)

// AuthHandler mints bearer tokens. The marketplace treats identity as an
// environment-supplied fact; this endpoint is the stand-in for the external
// identity provider in front of the service.
type AuthHandler struct {
	JWT auth.JWT
}

func (h *AuthHandler) Register(r *gin.Engine) {
	r.POST("/api/v1/auth/token", h.token)
}

type tokenRequest struct {
	Identity string `json:"identity" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

// @Summary Issue a bearer token for an identity
// @Tags auth
// @Accept json
// @Produce json
// @Param request body tokenRequest true "identity and role"
// @Success 200 {object} map[string]any
// @Router /api/v1/auth/token [post]
func (h *AuthHandler) token(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	role := strings.ToLower(strings.TrimSpace(req.Role))
	switch role {
	case auth.RoleFarmer, auth.RoleBuyer, auth.RoleAuthority, auth.RoleOracle:
	default:
		Error(c, http.StatusBadRequest, "unknown role", nil)
		return
	}

	token, expiresAt, err := h.JWT.Sign(auth.Claims{
		Identity: strings.TrimSpace(req.Identity),
		Role:     role,
	})
	if err != nil {
		Error(c, http.StatusInternalServerError, "token signing failed", nil)
		return
	}
	Ok(c, gin.H{
		"token":      token,
		"expires_at": expiresAt,
	}, nil)
}

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/radarjoki/backend/internal/auth"
	"github.com/radarjoki/backend/internal/domain"
	"github.com/radarjoki/backend/internal/store"
)

type registerInput struct {
	Username string `json:"username" binding:"required,min=3,max=32"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type loginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) register(c *gin.Context) {
	var in registerInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid registration payload")
		return
	}

	ctx := c.Request.Context()
	if _, err := h.store.UserByEmail(ctx, in.Email); err == nil {
		respondError(c, http.StatusBadRequest, "Email already in use")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		h.logger.Error("user lookup failed", "error", err)
		respondError(c, http.StatusInternalServerError, "Registration failed")
		return
	}
	if _, err := h.store.UserByUsername(ctx, in.Username); err == nil {
		respondError(c, http.StatusBadRequest, "Username already in use")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		h.logger.Error("user lookup failed", "error", err)
		respondError(c, http.StatusInternalServerError, "Registration failed")
		return
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		h.logger.Error("password hash failed", "error", err)
		respondError(c, http.StatusInternalServerError, "Registration failed")
		return
	}

	user, err := h.store.CreateUser(ctx, in.Username, in.Email, hash, domain.RoleUser)
	if err != nil {
		h.logger.Error("user insert failed", "error", err)
		respondError(c, http.StatusInternalServerError, "Registration failed")
		return
	}

	respondCreated(c, "User registered", user)
}

func (h *Handler) login(c *gin.Context) {
	var in loginInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid login payload")
		return
	}

	ctx := c.Request.Context()
	user, err := h.store.UserByEmail(ctx, in.Email)
	if err != nil {
		// Same answer whether the account exists or not
		respondError(c, http.StatusBadRequest, "Invalid email or password")
		return
	}
	if !auth.CheckPassword(user.PasswordHash, in.Password) {
		respondError(c, http.StatusBadRequest, "Invalid email or password")
		return
	}

	token, err := h.authManager.IssueToken(user)
	if err != nil {
		h.logger.Error("token issue failed", "error", err)
		respondError(c, http.StatusInternalServerError, "Login failed")
		return
	}

	maxAge := int(h.authManager.TokenTTL().Seconds())
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(auth.CookieName, token, maxAge, "/", "", false, true)

	respondOK(c, "Login successful", token)
}

func (h *Handler) logout(c *gin.Context) {
	c.SetCookie(auth.CookieName, "", -1, "/", "", false, true)
	respondOK(c, "Logged out", nil)
}

func (h *Handler) me(c *gin.Context) {
	claims := auth.ClaimsFrom(c)
	if claims == nil {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}
	respondOK(c, "", gin.H{
		"userId":   claims.UserID,
		"email":    claims.Email,
		"username": claims.Username,
		"role":     claims.Role,
	})
}

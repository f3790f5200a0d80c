package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"todo-manager/backend/internal/middleware"
	"todo-manager/backend/internal/models"
	"todo-manager/backend/internal/services"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService  services.AuthService
	sessions     services.SessionProvider
	cookieName   string
	secureCookie bool
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UserResponse struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

type SessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

func NewAuthHandler(authService services.AuthService, sessions services.SessionProvider, cookieName string, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		sessions:     sessions,
		cookieName:   cookieName,
		secureCookie: secureCookie,
	}
}

// RegisterRoutes mounts the public endpoints on group and the session
// lookup behind requireSession.
func (h *AuthHandler) RegisterRoutes(group *gin.RouterGroup, requireSession gin.HandlerFunc) {
	auth := group.Group("/auth")
	auth.POST("/sign-up", h.SignUp)
	auth.POST("/sign-in", h.SignIn)
	auth.GET("/session", requireSession, h.Session)
}

func (h *AuthHandler) SignIn(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_input", "Invalid request format")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	user, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			writeError(c, http.StatusUnauthorized, "unauthorized", "Invalid email or password")
			return
		}
		log.Printf("Sign-in error: %v", err)
		writeError(c, http.StatusInternalServerError, "internal_error", "Internal server error")
		return
	}

	h.respondWithSession(c, http.StatusOK, user)
}

func (h *AuthHandler) Session(c *gin.Context) {
	session := middleware.CurrentSession(c)
	if session == nil {
		writeError(c, http.StatusUnauthorized, "unauthorized", services.MsgUnauthorized)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user": UserResponse{
			ID:    session.UserID,
			Name:  session.Name,
			Email: session.Email,
			Role:  session.Role,
		},
	})
}

func (h *AuthHandler) respondWithSession(c *gin.Context, status int, user *models.User) {
	token, expiresAt, err := h.sessions.Issue(user)
	if err != nil {
		log.Printf("Token generation failed for %s: %v", user.ID, err)
		writeError(c, http.StatusInternalServerError, "internal_error", "Failed to generate session token")
		return
	}

	maxAge := int(time.Until(expiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, token, maxAge, "/", "", h.secureCookie, true)

	c.JSON(status, SessionResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User: UserResponse{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
			Role:  user.Role,
		},
	})
}

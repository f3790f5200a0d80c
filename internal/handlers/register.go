package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"todo-manager/backend/internal/repositories"
	"todo-manager/backend/internal/services"

	"github.com/gin-gonic/gin"
)

// SignUp creates a user-role account and signs it in. Any role in the
// body is ignored.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req services.RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_input", "Invalid request data")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if strings.TrimSpace(req.Name) == "" {
		writeError(c, http.StatusBadRequest, "invalid_input", "Name is required")
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, repositories.ErrEmailTaken) {
			writeError(c, http.StatusConflict, "conflict", "An account with this email already exists")
			return
		}
		log.Printf("Registration error: %v", err)
		writeError(c, http.StatusInternalServerError, "internal_error", "Internal server error")
		return
	}

	log.Printf("User registered: id=%s", user.ID)
	h.respondWithSession(c, http.StatusCreated, user)
}

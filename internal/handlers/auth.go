package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/softdesk-dev/softdesk/internal/auth"
	"github.com/softdesk-dev/softdesk/internal/services"
	"github.com/softdesk-dev/softdesk/internal/throttle"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

type AuthHandler struct {
	users  *services.UserService
	tokens *auth.TokenManager
	guard  throttle.LoginGuard
}

func NewAuthHandler(users *services.UserService, tokens *auth.TokenManager, guard throttle.LoginGuard) *AuthHandler {
	if guard == nil {
		guard = throttle.Noop{}
	}
	return &AuthHandler{users: users, tokens: tokens, guard: guard}
}

// Login exchanges credentials for an access/refresh token pair.
func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !bindJSON(ctx, &req) {
		return
	}

	username := strings.TrimSpace(req.Username)
	reqCtx := ctx.Request.Context()

	if h.guard.Blocked(reqCtx, username) {
		respondError(ctx, services.ThrottledError("Too many failed login attempts, try again later"))
		return
	}

	user, err := h.users.Authenticate(reqCtx, username, req.Password)

	if err != nil {
		if svcErr, ok := services.AsError(err); ok && svcErr.Kind == services.KindAuthentication {
			h.guard.RecordFailure(reqCtx, username)
		}
		respondError(ctx, err)
		return
	}

	h.guard.Reset(reqCtx, username)

	pair, err := h.tokens.IssuePair(user.ID)

	if err != nil {
		log.Printf("Failed to issue tokens: %v", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error", Code: "server_error"})
		return
	}

	ctx.JSON(http.StatusOK, pair)
}

// Refresh trades a refresh token for a new access token.
func (h *AuthHandler) Refresh(ctx *gin.Context) {
	var req RefreshRequest

	if !bindJSON(ctx, &req) {
		return
	}

	access, err := h.tokens.Refresh(req.Refresh)

	if err != nil {
		message := "Token is invalid or expired"
		if errors.Is(err, auth.ErrWrongTokenType) {
			message = "Token has wrong type"
		}
		ctx.JSON(http.StatusUnauthorized, ErrorResponse{Error: message, Code: "token_not_valid"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"access": access})
}

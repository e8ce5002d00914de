package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/softdesk-dev/softdesk/internal/auth"
	"github.com/softdesk-dev/softdesk/internal/models"
	"github.com/softdesk-dev/softdesk/internal/types"
)

// UserFinder loads the account a verified token points at.
type UserFinder interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
}

func AuthMiddleware(tokens *auth.TokenManager, users UserFinder) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")

		if authHeader == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication credentials were not provided", "code": "not_authenticated"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)

		if len(parts) != 2 || parts[0] != "Bearer" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}", "code": "not_authenticated"})
			return
		}

		claims, err := tokens.Verify(strings.TrimSpace(parts[1]), auth.AccessToken)

		if err != nil {
			message := "Invalid or expired token"
			if errors.Is(err, auth.ErrWrongTokenType) {
				message = "Token has wrong type"
			}
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message, "code": "token_not_valid"})
			return
		}

		user, err := users.FindByID(ctx.Request.Context(), claims.UserID)

		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not found", "code": "user_not_found"})
			return
		}

		ctx.Set(types.ContextUserKey, types.AuthenticatedUser{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
		})
		ctx.Next()
	}
}

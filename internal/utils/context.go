package utils

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/softdesk-dev/softdesk/internal/types"
)

func GetCurrentUser(ctx *gin.Context) (types.AuthenticatedUser, error) {
	user, exists := ctx.Get(types.ContextUserKey)

	if !exists {
		return types.AuthenticatedUser{}, fmt.Errorf("User not authenticated")
	}

	authenticatedUser, ok := user.(types.AuthenticatedUser)

	if !ok {
		return types.AuthenticatedUser{}, fmt.Errorf("Invalid user type in context")
	}

	return authenticatedUser, nil
}

func GetCurrentUserID(ctx *gin.Context) (uint, error) {
	user, err := GetCurrentUser(ctx)

	if err != nil {
		return 0, err
	}

	return user.ID, nil
}

// GetPathScope returns the parent ids the scope middleware resolved.
func GetPathScope(ctx *gin.Context) (types.PathScope, error) {
	scope, exists := ctx.Get(types.ContextScopeKey)

	if !exists {
		return types.PathScope{}, fmt.Errorf("Path scope not resolved")
	}

	pathScope, ok := scope.(types.PathScope)

	if !ok {
		return types.PathScope{}, fmt.Errorf("Invalid scope type in context")
	}

	return pathScope, nil
}

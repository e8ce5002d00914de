package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/softdesk-dev/softdesk/internal/types"
	"github.com/softdesk-dev/softdesk/internal/utils"
)

// PathScope parses the parent ids of a nested route and stores them in the
// context. A malformed id cannot name an existing resource, so it is a 404.
func PathScope() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var scope types.PathScope

		if ctx.Param("project_id") != "" {
			projectID, err := utils.GetIDParam(ctx, "project_id")
			if err != nil {
				ctx.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Project not found", "code": "not_found"})
				return
			}
			scope.ProjectID = projectID
		}

		if ctx.Param("issue_id") != "" {
			issueID, err := utils.GetIDParam(ctx, "issue_id")
			if err != nil {
				ctx.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Issue not found", "code": "not_found"})
				return
			}
			scope.IssueID = issueID
		}

		ctx.Set(types.ContextScopeKey, scope)
		ctx.Next()
	}
}

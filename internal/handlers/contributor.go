package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/softdesk-dev/softdesk/internal/models"
	"github.com/softdesk-dev/softdesk/internal/services"
)

// AddContributorRequest accepts the user id as "user" or "user_id".
type AddContributorRequest struct {
	User   uint `json:"user"`
	UserID uint `json:"user_id"`
}

type ContributorResponse struct {
	ID           uint      `json:"id"`
	User         uint      `json:"user"`
	UserUsername string    `json:"user_username"`
	Project      uint      `json:"project"`
	CreatedTime  time.Time `json:"created_time"`
}

func newContributorResponse(c models.Contributor) ContributorResponse {
	return ContributorResponse{
		ID:           c.ID,
		User:         c.UserID,
		UserUsername: c.User.Username,
		Project:      c.ProjectID,
		CreatedTime:  c.CreatedAt,
	}
}

type ContributorHandler struct {
	contributors *services.ContributorService
}

func NewContributorHandler(contributors *services.ContributorService) *ContributorHandler {
	return &ContributorHandler{contributors: contributors}
}

func (h *ContributorHandler) List(ctx *gin.Context) {
	userID, scope, ok := scopeFor(ctx)
	if !ok {
		return
	}

	req, ok := pageRequest(ctx)
	if !ok {
		return
	}

	page, err := h.contributors.List(ctx.Request.Context(), userID, scope.ProjectID, req)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, paginated(ctx, page, newContributorResponse))
}

func (h *ContributorHandler) Create(ctx *gin.Context) {
	userID, scope, ok := scopeFor(ctx)
	if !ok {
		return
	}

	var body AddContributorRequest

	if !bindJSON(ctx, &body) {
		return
	}

	target := body.User
	if target == 0 {
		target = body.UserID
	}
	if target == 0 {
		respondError(ctx, services.ValidationError("user", "This field is required"))
		return
	}

	contributor, err := h.contributors.Add(ctx.Request.Context(), userID, scope.ProjectID, target)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, newContributorResponse(*contributor))
}

func (h *ContributorHandler) Delete(ctx *gin.Context) {
	userID, scope, ok := scopeFor(ctx)
	if !ok {
		return
	}

	contributorID, ok := pathID(ctx, "contributor_id", "Contributor")
	if !ok {
		return
	}

	if err := h.contributors.Remove(ctx.Request.Context(), userID, scope.ProjectID, contributorID); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/softdesk-dev/softdesk/internal/models"
	"github.com/softdesk-dev/softdesk/internal/services"
	"github.com/softdesk-dev/softdesk/internal/types"
	"github.com/softdesk-dev/softdesk/internal/utils"
)

type CreateProjectRequest struct {
	Name        string             `json:"name" binding:"required,max=255"`
	Description string             `json:"description"`
	Type        models.ProjectType `json:"type" binding:"required"`
}

type UpdateProjectRequest struct {
	Name        *string             `json:"name" binding:"omitempty,max=255"`
	Description *string             `json:"description"`
	Type        *models.ProjectType `json:"type"`
}

type GetProjectResponse struct {
	ID                uint               `json:"id"`
	Name              string             `json:"name"`
	Description       string             `json:"description"`
	Type              models.ProjectType `json:"type"`
	Author            uint               `json:"author"`
	AuthorUsername    string             `json:"author_username"`
	ContributorsCount int64              `json:"contributors_count"`
	CreatedTime       time.Time          `json:"created_time"`
}

func newProjectResponse(p services.ProjectSummary) GetProjectResponse {
	return GetProjectResponse{
		ID:                p.ID,
		Name:              p.Name,
		Description:       p.Description,
		Type:              p.Type,
		Author:            p.AuthorID,
		AuthorUsername:    p.Author.Username,
		ContributorsCount: p.ContributorsCount,
		CreatedTime:       p.CreatedAt,
	}
}

type ProjectHandler struct {
	projects *services.ProjectService
}

func NewProjectHandler(projects *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// scopeFor returns the caller and the resolved path scope of a nested route.
func scopeFor(ctx *gin.Context) (uint, types.PathScope, bool) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return 0, types.PathScope{}, false
	}

	scope, err := utils.GetPathScope(ctx)

	if err != nil {
		respondError(ctx, err)
		return 0, types.PathScope{}, false
	}

	return userID, scope, true
}

func (h *ProjectHandler) Create(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var body CreateProjectRequest

	if !bindJSON(ctx, &body) {
		return
	}

	project, err := h.projects.Create(ctx.Request.Context(), userID, services.ProjectInput{
		Name:        body.Name,
		Description: body.Description,
		Type:        body.Type,
	})

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, newProjectResponse(*project))
}

func (h *ProjectHandler) List(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	req, ok := pageRequest(ctx)
	if !ok {
		return
	}

	page, err := h.projects.List(ctx.Request.Context(), userID, req)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, paginated(ctx, page, newProjectResponse))
}

func (h *ProjectHandler) Get(ctx *gin.Context) {
	userID, scope, ok := scopeFor(ctx)
	if !ok {
		return
	}

	project, err := h.projects.Get(ctx.Request.Context(), userID, scope.ProjectID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, newProjectResponse(*project))
}

// Replace handles PUT, which needs every writable field.
func (h *ProjectHandler) Replace(ctx *gin.Context) {
	userID, scope, ok := scopeFor(ctx)
	if !ok {
		return
	}

	var body CreateProjectRequest

	if !bindJSON(ctx, &body) {
		return
	}

	h.update(ctx, userID, scope.ProjectID, services.UpdateProjectInput{
		Name:        &body.Name,
		Description: &body.Description,
		Type:        &body.Type,
	})
}

// Update handles PATCH.
func (h *ProjectHandler) Update(ctx *gin.Context) {
	userID, scope, ok := scopeFor(ctx)
	if !ok {
		return
	}

	var body UpdateProjectRequest

	if !bindJSON(ctx, &body) {
		return
	}

	h.update(ctx, userID, scope.ProjectID, services.UpdateProjectInput{
		Name:        body.Name,
		Description: body.Description,
		Type:        body.Type,
	})
}

func (h *ProjectHandler) update(ctx *gin.Context, userID, projectID uint, input services.UpdateProjectInput) {
	project, err := h.projects.Update(ctx.Request.Context(), userID, projectID, input)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, newProjectResponse(*project))
}

func (h *ProjectHandler) Delete(ctx *gin.Context) {
	userID, scope, ok := scopeFor(ctx)
	if !ok {
		return
	}

	if err := h.projects.Delete(ctx.Request.Context(), userID, scope.ProjectID); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

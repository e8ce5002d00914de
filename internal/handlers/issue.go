package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/softdesk-dev/softdesk/internal/models"
	"github.com/softdesk-dev/softdesk/internal/services"
)

type CreateIssueRequest struct {
	Name        string               `json:"name" binding:"required,max=255"`
	Description string               `json:"description"`
	Priority    models.IssuePriority `json:"priority"`
	Tag         models.IssueTag      `json:"tag"`
	Status      models.IssueStatus   `json:"status"`
	AssignedTo  *uint                `json:"assigned_to"`
}

type UpdateIssueRequest struct {
	Name        *string               `json:"name" binding:"omitempty,max=255"`
	Description *string               `json:"description"`
	Priority    *models.IssuePriority `json:"priority"`
	Tag         *models.IssueTag      `json:"tag"`
	Status      *models.IssueStatus   `json:"status"`
	AssignedTo  services.NullableID   `json:"assigned_to"`
}

type IssueResponse struct {
	ID                 uint                 `json:"id"`
	Name               string               `json:"name"`
	Description        string               `json:"description"`
	Priority           models.IssuePriority `json:"priority"`
	Tag                models.IssueTag      `json:"tag"`
	Status             models.IssueStatus   `json:"status"`
	Project            uint                 `json:"project"`
	ProjectName        string               `json:"project_name"`
	Author             uint                 `json:"author"`
	AuthorUsername     string               `json:"author_username"`
	AssignedTo         *uint                `json:"assigned_to"`
	AssignedToUsername *string              `json:"assigned_to_username"`
	CreatedTime        time.Time            `json:"created_time"`
}

func newIssueResponse(i models.Issue) IssueResponse {
	response := IssueResponse{
		ID:             i.ID,
		Name:           i.Name,
		Description:    i.Description,
		Priority:       i.Priority,
		Tag:            i.Tag,
		Status:         i.Status,
		Project:        i.ProjectID,
		ProjectName:    i.Project.Name,
		Author:         i.AuthorID,
		AuthorUsername: i.Author.Username,
		AssignedTo:     i.AssignedToID,
		CreatedTime:    i.CreatedAt,
	}

	if i.AssignedTo != nil {
		response.AssignedToUsername = &i.AssignedTo.Username
	}

	return response
}

type IssueHandler struct {
	issues *services.IssueService
}

func NewIssueHandler(issues *services.IssueService) *IssueHandler {
	return &IssueHandler{issues: issues}
}

// List serves both /projects/:project_id/issues and the global /issues.
func (h *IssueHandler) List(ctx *gin.Context) {
	userID, scope, ok := scopeFor(ctx)
	if !ok {
		return
	}

	req, ok := pageRequest(ctx)
	if !ok {
		return
	}

	var (
		page *services.Page[models.Issue]
		err  error
	)

	if scope.ProjectID != 0 {
		page, err = h.issues.ListForProject(ctx.Request.Context(), userID, scope.ProjectID, req)
	} else {
		page, err = h.issues.ListAll(ctx.Request.Context(), userID, req)
	}

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, paginated(ctx, page, newIssueResponse))
}

func (h *IssueHandler) Get(ctx *gin.Context) {
	userID, scope, ok := scopeFor(ctx)
	if !ok {
		return
	}

	issue, err := h.issues.Get(ctx.Request.Context(), userID, scope.ProjectID, scope.IssueID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, newIssueResponse(*issue))
}

func (h *IssueHandler) Create(ctx *gin.Context) {
	userID, scope, ok := scopeFor(ctx)
	if !ok {
		return
	}

	var body CreateIssueRequest

	if !bindJSON(ctx, &body) {
		return
	}

	issue, err := h.issues.Create(ctx.Request.Context(), userID, scope.ProjectID, services.IssueInput{
		Name:        body.Name,
		Description: body.Description,
		Priority:    body.Priority,
		Tag:         body.Tag,
		Status:      body.Status,
		AssignedTo:  body.AssignedTo,
	})

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, newIssueResponse(*issue))
}

// Replace handles PUT. Enum fields left out fall back to their defaults and
// a missing assignee clears the assignment.
func (h *IssueHandler) Replace(ctx *gin.Context) {
	userID, scope, ok := scopeFor(ctx)
	if !ok {
		return
	}

	var body CreateIssueRequest

	if !bindJSON(ctx, &body) {
		return
	}

	priority, tag, status := body.Priority, body.Tag, body.Status
	if priority == "" {
		priority = models.PriorityMedium
	}
	if tag == "" {
		tag = models.TagTask
	}
	if status == "" {
		status = models.StatusToDo
	}

	h.update(ctx, userID, scope.ProjectID, scope.IssueID, services.UpdateIssueInput{
		Name:        &body.Name,
		Description: &body.Description,
		Priority:    &priority,
		Tag:         &tag,
		Status:      &status,
		AssignedTo:  services.NullableID{Set: true, Value: body.AssignedTo},
	})
}

// Update handles PATCH.
func (h *IssueHandler) Update(ctx *gin.Context) {
	userID, scope, ok := scopeFor(ctx)
	if !ok {
		return
	}

	var body UpdateIssueRequest

	if !bindJSON(ctx, &body) {
		return
	}

	h.update(ctx, userID, scope.ProjectID, scope.IssueID, services.UpdateIssueInput{
		Name:        body.Name,
		Description: body.Description,
		Priority:    body.Priority,
		Tag:         body.Tag,
		Status:      body.Status,
		AssignedTo:  body.AssignedTo,
	})
}

func (h *IssueHandler) update(ctx *gin.Context, userID, projectID, issueID uint, input services.UpdateIssueInput) {
	issue, err := h.issues.Update(ctx.Request.Context(), userID, projectID, issueID, input)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, newIssueResponse(*issue))
}

func (h *IssueHandler) Delete(ctx *gin.Context) {
	userID, scope, ok := scopeFor(ctx)
	if !ok {
		return
	}

	if err := h.issues.Delete(ctx.Request.Context(), userID, scope.ProjectID, scope.IssueID); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/softdesk-dev/softdesk/internal/models"
	"github.com/softdesk-dev/softdesk/internal/services"
)

type CommentRequest struct {
	Description string `json:"description" binding:"required"`
}

type UpdateCommentRequest struct {
	Description *string `json:"description"`
}

type CommentResponse struct {
	ID             uint      `json:"id"`
	UUID           uuid.UUID `json:"uuid"`
	Description    string    `json:"description"`
	Issue          uint      `json:"issue"`
	IssueName      string    `json:"issue_name"`
	Author         uint      `json:"author"`
	AuthorUsername string    `json:"author_username"`
	CreatedTime    time.Time `json:"created_time"`
}

func newCommentResponse(c models.Comment) CommentResponse {
	return CommentResponse{
		ID:             c.ID,
		UUID:           c.UUID,
		Description:    c.Description,
		Issue:          c.IssueID,
		IssueName:      c.Issue.Name,
		Author:         c.AuthorID,
		AuthorUsername: c.Author.Username,
		CreatedTime:    c.CreatedAt,
	}
}

type CommentHandler struct {
	comments *services.CommentService
}

func NewCommentHandler(comments *services.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

// List serves both the issue-scoped and the global comment listing.
func (h *CommentHandler) List(ctx *gin.Context) {
	userID, scope, ok := scopeFor(ctx)
	if !ok {
		return
	}

	req, ok := pageRequest(ctx)
	if !ok {
		return
	}

	var (
		page *services.Page[models.Comment]
		err  error
	)

	if scope.IssueID != 0 {
		page, err = h.comments.ListForIssue(ctx.Request.Context(), userID, scope.ProjectID, scope.IssueID, req)
	} else {
		page, err = h.comments.ListAll(ctx.Request.Context(), userID, req)
	}

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, paginated(ctx, page, newCommentResponse))
}

func (h *CommentHandler) Get(ctx *gin.Context) {
	userID, scope, ok := scopeFor(ctx)
	if !ok {
		return
	}

	commentID, ok := pathID(ctx, "comment_id", "Comment")
	if !ok {
		return
	}

	comment, err := h.comments.Get(ctx.Request.Context(), userID, scope.ProjectID, scope.IssueID, commentID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, newCommentResponse(*comment))
}

func (h *CommentHandler) Create(ctx *gin.Context) {
	userID, scope, ok := scopeFor(ctx)
	if !ok {
		return
	}

	var body CommentRequest

	if !bindJSON(ctx, &body) {
		return
	}

	comment, err := h.comments.Create(ctx.Request.Context(), userID, scope.ProjectID, scope.IssueID, body.Description)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, newCommentResponse(*comment))
}

// Replace handles PUT.
func (h *CommentHandler) Replace(ctx *gin.Context) {
	var body CommentRequest

	if !bindJSON(ctx, &body) {
		return
	}

	h.update(ctx, &body.Description)
}

// Update handles PATCH.
func (h *CommentHandler) Update(ctx *gin.Context) {
	var body UpdateCommentRequest

	if !bindJSON(ctx, &body) {
		return
	}

	h.update(ctx, body.Description)
}

func (h *CommentHandler) update(ctx *gin.Context, description *string) {
	userID, scope, ok := scopeFor(ctx)
	if !ok {
		return
	}

	commentID, ok := pathID(ctx, "comment_id", "Comment")
	if !ok {
		return
	}

	comment, err := h.comments.Update(ctx.Request.Context(), userID, scope.ProjectID, scope.IssueID, commentID, description)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, newCommentResponse(*comment))
}

func (h *CommentHandler) Delete(ctx *gin.Context) {
	userID, scope, ok := scopeFor(ctx)
	if !ok {
		return
	}

	commentID, ok := pathID(ctx, "comment_id", "Comment")
	if !ok {
		return
	}

	if err := h.comments.Delete(ctx.Request.Context(), userID, scope.ProjectID, scope.IssueID, commentID); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/softdesk-dev/softdesk/internal/models"
	"github.com/softdesk-dev/softdesk/internal/services"
)

type ActivityResponse struct {
	ID            uint            `json:"id"`
	Project       uint            `json:"project"`
	Actor         uint            `json:"actor"`
	ActorUsername string          `json:"actor_username"`
	Action        string          `json:"action"`
	ResourceType  string          `json:"resource_type"`
	ResourceID    uint            `json:"resource_id"`
	Details       json.RawMessage `json:"details"`
	CreatedTime   time.Time       `json:"created_time"`
}

func newActivityResponse(a models.Activity) ActivityResponse {
	details := json.RawMessage(a.Details)
	if len(details) == 0 {
		details = json.RawMessage("{}")
	}

	return ActivityResponse{
		ID:            a.ID,
		Project:       a.ProjectID,
		Actor:         a.ActorID,
		ActorUsername: a.Actor.Username,
		Action:        a.Action,
		ResourceType:  a.ResourceType,
		ResourceID:    a.ResourceID,
		Details:       details,
		CreatedTime:   a.CreatedAt,
	}
}

type ActivityHandler struct {
	activity *services.ActivityService
}

func NewActivityHandler(activity *services.ActivityService) *ActivityHandler {
	return &ActivityHandler{activity: activity}
}

func (h *ActivityHandler) List(ctx *gin.Context) {
	userID, scope, ok := scopeFor(ctx)
	if !ok {
		return
	}

	req, ok := pageRequest(ctx)
	if !ok {
		return
	}

	page, err := h.activity.List(ctx.Request.Context(), userID, scope.ProjectID, req)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, paginated(ctx, page, newActivityResponse))
}

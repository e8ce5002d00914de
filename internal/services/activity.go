package services

import (
	"context"
	"encoding/json"

	"github.com/softdesk-dev/softdesk/internal/models"
	"github.com/softdesk-dev/softdesk/internal/permissions"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ActionProjectCreated     = "project.created"
	ActionProjectUpdated     = "project.updated"
	ActionContributorAdded   = "contributor.added"
	ActionContributorRemoved = "contributor.removed"
	ActionIssueCreated       = "issue.created"
	ActionIssueUpdated       = "issue.updated"
	ActionIssueDeleted       = "issue.deleted"
	ActionCommentCreated     = "comment.created"
	ActionCommentUpdated     = "comment.updated"
	ActionCommentDeleted     = "comment.deleted"
)

const (
	ResourceProject     = "project"
	ResourceContributor = "contributor"
	ResourceIssue       = "issue"
	ResourceComment     = "comment"
)

// recordActivity appends to the project's log. It must run on the same tx as
// the mutation it describes.
func recordActivity(tx *gorm.DB, projectID, actorID uint, action, resourceType string, resourceID uint, details map[string]any) error {
	activity := models.Activity{
		ProjectID:    projectID,
		ActorID:      actorID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}

	if len(details) > 0 {
		raw, err := json.Marshal(details)
		if err != nil {
			return err
		}
		activity.Details = datatypes.JSON(raw)
	}

	return tx.Create(&activity).Error
}

type ActivityService struct {
	db *gorm.DB
}

func NewActivityService(db *gorm.DB) *ActivityService {
	return &ActivityService{db: db}
}

// List returns the project's log newest first. Non-contributors get NotFound,
// not an empty page.
func (s *ActivityService) List(ctx context.Context, actorID, projectID uint, req PageRequest) (*Page[models.Activity], error) {
	db := s.db.WithContext(ctx)

	if _, err := resolveProject(db, actorID, projectID, permissions.Read); err != nil {
		return nil, err
	}

	query := db.Model(&models.Activity{}).Where("project_id = ?", projectID)

	return paginate[models.Activity](query, req, func(q *gorm.DB) *gorm.DB {
		return q.Preload("Actor").Order("created_at DESC").Order("id DESC")
	})
}

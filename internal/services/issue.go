package services

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/softdesk-dev/softdesk/internal/models"
	"github.com/softdesk-dev/softdesk/internal/permissions"
	"gorm.io/gorm"
)

// NullableID tells an absent JSON field apart from an explicit null.
type NullableID struct {
	Set   bool
	Value *uint
}

func (n *NullableID) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}

	var id uint
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	n.Value = &id
	return nil
}

type IssueInput struct {
	Name        string
	Description string
	Priority    models.IssuePriority
	Tag         models.IssueTag
	Status      models.IssueStatus
	AssignedTo  *uint
}

type UpdateIssueInput struct {
	Name        *string
	Description *string
	Priority    *models.IssuePriority
	Tag         *models.IssueTag
	Status      *models.IssueStatus
	AssignedTo  NullableID
}

type IssueService struct {
	db *gorm.DB
}

func NewIssueService(db *gorm.DB) *IssueService {
	return &IssueService{db: db}
}

func validateIssueFields(priority models.IssuePriority, tag models.IssueTag, status models.IssueStatus) error {
	if !priority.Valid() {
		return ValidationError("priority", "\""+string(priority)+"\" is not a valid choice")
	}
	if !tag.Valid() {
		return ValidationError("tag", "\""+string(tag)+"\" is not a valid choice")
	}
	if !status.Valid() {
		return ValidationError("status", "\""+string(status)+"\" is not a valid choice")
	}
	return nil
}

// checkAssignee runs inside the write transaction and share-locks the
// assignee's contributor row, so a concurrent removal blocks until the issue
// is committed and then clears the assignment.
func checkAssignee(tx *gorm.DB, projectID uint, assignee *uint) error {
	if assignee == nil {
		return nil
	}

	member, err := isContributor(tx, *assignee, projectID, true)
	if err != nil {
		return err
	}
	if !member {
		return ValidationError("assigned_to", "The assignee must be a contributor of the project")
	}
	return nil
}

func preloadIssue(q *gorm.DB) *gorm.DB {
	return q.Preload("Author").Preload("AssignedTo").Preload("Project")
}

func (s *IssueService) load(tx *gorm.DB, issueID uint) (*models.Issue, error) {
	var issue models.Issue

	if err := preloadIssue(tx).First(&issue, issueID).Error; err != nil {
		return nil, notFoundOr(err, "Issue")
	}

	return &issue, nil
}

// ListForProject returns a project's issues, or an empty page when the
// caller does not contribute to it.
func (s *IssueService) ListForProject(ctx context.Context, actorID, projectID uint, req PageRequest) (*Page[models.Issue], error) {
	db := s.db.WithContext(ctx)

	if _, err := resolveProject(db, actorID, projectID, permissions.Read); err != nil {
		if e, ok := AsError(err); ok && e.Kind == KindNotFound {
			return emptyPage[models.Issue](req), nil
		}
		return nil, err
	}

	query := db.Model(&models.Issue{}).Where("project_id = ?", projectID)

	return paginate[models.Issue](query, req, func(q *gorm.DB) *gorm.DB {
		return preloadIssue(q).Order("id")
	})
}

// ListAll returns issues across every project the caller contributes to.
func (s *IssueService) ListAll(ctx context.Context, actorID uint, req PageRequest) (*Page[models.Issue], error) {
	db := s.db.WithContext(ctx)

	query := db.Model(&models.Issue{}).Where("project_id IN (?)", contributorProjects(db, actorID))

	return paginate[models.Issue](query, req, func(q *gorm.DB) *gorm.DB {
		return preloadIssue(q).Order("id")
	})
}

func (s *IssueService) Get(ctx context.Context, actorID, projectID, issueID uint) (*models.Issue, error) {
	db := s.db.WithContext(ctx)

	if _, err := resolveIssue(db, actorID, projectID, issueID, permissions.Read); err != nil {
		return nil, err
	}

	return s.load(db, issueID)
}

func (s *IssueService) Create(ctx context.Context, actorID, projectID uint, input IssueInput) (*models.Issue, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ValidationError("name", "This field may not be blank")
	}

	issue := models.Issue{
		Name:         strings.TrimSpace(input.Name),
		Description:  input.Description,
		Priority:     input.Priority,
		Tag:          input.Tag,
		Status:       input.Status,
		ProjectID:    projectID,
		AuthorID:     actorID,
		AssignedToID: input.AssignedTo,
	}
	if issue.Priority == "" {
		issue.Priority = models.PriorityMedium
	}
	if issue.Tag == "" {
		issue.Tag = models.TagTask
	}
	if issue.Status == "" {
		issue.Status = models.StatusToDo
	}
	if err := validateIssueFields(issue.Priority, issue.Tag, issue.Status); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)

	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := resolveProject(tx, actorID, projectID, permissions.Write); err != nil {
			return err
		}
		if err := checkAssignee(tx, projectID, issue.AssignedToID); err != nil {
			return err
		}

		if err := tx.Create(&issue).Error; err != nil {
			return err
		}

		return recordActivity(tx, projectID, actorID, ActionIssueCreated, ResourceIssue, issue.ID, map[string]any{
			"name": issue.Name,
		})
	})

	if err != nil {
		return nil, err
	}

	return s.load(db, issue.ID)
}

func (s *IssueService) Update(ctx context.Context, actorID, projectID, issueID uint, input UpdateIssueInput) (*models.Issue, error) {
	db := s.db.WithContext(ctx)

	err := db.Transaction(func(tx *gorm.DB) error {
		scope, err := resolveIssue(tx, actorID, projectID, issueID, permissions.Write, permissions.AuthorOrReadOnly)
		if err != nil {
			return err
		}

		issue := scope.Issue
		changes := map[string]any{}

		if input.Name != nil {
			if strings.TrimSpace(*input.Name) == "" {
				return ValidationError("name", "This field may not be blank")
			}
			issue.Name = strings.TrimSpace(*input.Name)
			changes["name"] = issue.Name
		}
		if input.Description != nil {
			issue.Description = *input.Description
			changes["description"] = issue.Description
		}
		if input.Priority != nil {
			issue.Priority = *input.Priority
			changes["priority"] = issue.Priority
		}
		if input.Tag != nil {
			issue.Tag = *input.Tag
			changes["tag"] = issue.Tag
		}
		if input.Status != nil {
			issue.Status = *input.Status
			changes["status"] = issue.Status
		}
		if err := validateIssueFields(issue.Priority, issue.Tag, issue.Status); err != nil {
			return err
		}

		if input.AssignedTo.Set {
			if err := checkAssignee(tx, projectID, input.AssignedTo.Value); err != nil {
				return err
			}
			issue.AssignedToID = input.AssignedTo.Value
			changes["assigned_to"] = issue.AssignedToID
		}

		if err := tx.Save(&issue).Error; err != nil {
			return err
		}

		return recordActivity(tx, projectID, actorID, ActionIssueUpdated, ResourceIssue, issue.ID, changes)
	})

	if err != nil {
		return nil, err
	}

	return s.load(db, issueID)
}

// Delete removes the issue and its comments.
func (s *IssueService) Delete(ctx context.Context, actorID, projectID, issueID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		scope, err := resolveIssue(tx, actorID, projectID, issueID, permissions.Write, permissions.AuthorOrReadOnly)
		if err != nil {
			return err
		}

		if err := deleteIssues(tx, []uint{issueID}); err != nil {
			return err
		}

		return recordActivity(tx, projectID, actorID, ActionIssueDeleted, ResourceIssue, issueID, map[string]any{
			"name": scope.Issue.Name,
		})
	})
}

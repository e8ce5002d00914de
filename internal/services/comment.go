package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/softdesk-dev/softdesk/internal/models"
	"github.com/softdesk-dev/softdesk/internal/permissions"
	"gorm.io/gorm"
)

type CommentService struct {
	db *gorm.DB
}

func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{db: db}
}

func preloadComment(q *gorm.DB) *gorm.DB {
	return q.Preload("Author").Preload("Issue")
}

func (s *CommentService) load(tx *gorm.DB, commentID uint) (*models.Comment, error) {
	var comment models.Comment

	if err := preloadComment(tx).First(&comment, commentID).Error; err != nil {
		return nil, notFoundOr(err, "Comment")
	}

	return &comment, nil
}

// ListForIssue returns the comments of one issue. Non-contributors get an
// empty page whether or not the issue exists.
func (s *CommentService) ListForIssue(ctx context.Context, actorID, projectID, issueID uint, req PageRequest) (*Page[models.Comment], error) {
	db := s.db.WithContext(ctx)

	if _, err := resolveProject(db, actorID, projectID, permissions.Read); err != nil {
		if e, ok := AsError(err); ok && e.Kind == KindNotFound {
			return emptyPage[models.Comment](req), nil
		}
		return nil, err
	}

	if _, err := resolveIssue(db, actorID, projectID, issueID, permissions.Read); err != nil {
		return nil, err
	}

	query := db.Model(&models.Comment{}).Where("issue_id = ?", issueID)

	return paginate[models.Comment](query, req, func(q *gorm.DB) *gorm.DB {
		return preloadComment(q).Order("id")
	})
}

// ListAll returns comments on issues of every project the caller contributes to.
func (s *CommentService) ListAll(ctx context.Context, actorID uint, req PageRequest) (*Page[models.Comment], error) {
	db := s.db.WithContext(ctx)

	issues := db.Model(&models.Issue{}).Select("id").Where("project_id IN (?)", contributorProjects(db, actorID))
	query := db.Model(&models.Comment{}).Where("issue_id IN (?)", issues)

	return paginate[models.Comment](query, req, func(q *gorm.DB) *gorm.DB {
		return preloadComment(q).Order("id")
	})
}

func (s *CommentService) Get(ctx context.Context, actorID, projectID, issueID, commentID uint) (*models.Comment, error) {
	db := s.db.WithContext(ctx)

	if _, err := resolveComment(db, actorID, projectID, issueID, commentID, permissions.Read); err != nil {
		return nil, err
	}

	return s.load(db, commentID)
}

func (s *CommentService) Create(ctx context.Context, actorID, projectID, issueID uint, description string) (*models.Comment, error) {
	if strings.TrimSpace(description) == "" {
		return nil, ValidationError("description", "This field may not be blank")
	}

	comment := models.Comment{
		UUID:        uuid.New(),
		Description: description,
		IssueID:     issueID,
		AuthorID:    actorID,
	}

	db := s.db.WithContext(ctx)

	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := resolveIssue(tx, actorID, projectID, issueID, permissions.Write); err != nil {
			return err
		}

		if err := tx.Create(&comment).Error; err != nil {
			return err
		}

		return recordActivity(tx, projectID, actorID, ActionCommentCreated, ResourceComment, comment.ID, map[string]any{
			"issue_id": issueID,
			"uuid":     comment.UUID.String(),
		})
	})

	if err != nil {
		return nil, err
	}

	return s.load(db, comment.ID)
}

// Update only ever touches the description; the uuid is fixed at creation.
func (s *CommentService) Update(ctx context.Context, actorID, projectID, issueID, commentID uint, description *string) (*models.Comment, error) {
	db := s.db.WithContext(ctx)

	err := db.Transaction(func(tx *gorm.DB) error {
		scope, err := resolveComment(tx, actorID, projectID, issueID, commentID, permissions.Write, permissions.AuthorOrReadOnly)
		if err != nil {
			return err
		}

		if description == nil {
			return nil
		}
		if strings.TrimSpace(*description) == "" {
			return ValidationError("description", "This field may not be blank")
		}

		err = tx.Model(&scope.Comment).Update("description", *description).Error
		if err != nil {
			return err
		}

		return recordActivity(tx, projectID, actorID, ActionCommentUpdated, ResourceComment, commentID, map[string]any{
			"issue_id": issueID,
			"uuid":     scope.Comment.UUID.String(),
		})
	})

	if err != nil {
		return nil, err
	}

	return s.load(db, commentID)
}

func (s *CommentService) Delete(ctx context.Context, actorID, projectID, issueID, commentID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		scope, err := resolveComment(tx, actorID, projectID, issueID, commentID, permissions.Write, permissions.AuthorOrReadOnly)
		if err != nil {
			return err
		}

		if err := tx.Delete(&scope.Comment).Error; err != nil {
			return err
		}

		return recordActivity(tx, projectID, actorID, ActionCommentDeleted, ResourceComment, commentID, map[string]any{
			"issue_id": issueID,
			"uuid":     scope.Comment.UUID.String(),
		})
	})
}

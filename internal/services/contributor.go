package services

import (
	"context"
	"errors"

	"github.com/softdesk-dev/softdesk/internal/models"
	"github.com/softdesk-dev/softdesk/internal/permissions"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ContributorService struct {
	db *gorm.DB
}

func NewContributorService(db *gorm.DB) *ContributorService {
	return &ContributorService{db: db}
}

// List shows a project's contributors to its contributors. Anyone else gets
// an empty page.
func (s *ContributorService) List(ctx context.Context, actorID, projectID uint, req PageRequest) (*Page[models.Contributor], error) {
	db := s.db.WithContext(ctx)

	if _, err := resolveProject(db, actorID, projectID, permissions.Read); err != nil {
		if e, ok := AsError(err); ok && e.Kind == KindNotFound {
			return emptyPage[models.Contributor](req), nil
		}
		return nil, err
	}

	query := db.Model(&models.Contributor{}).Where("project_id = ?", projectID)

	return paginate[models.Contributor](query, req, func(q *gorm.DB) *gorm.DB {
		return q.Preload("User").Order("id")
	})
}

// Add makes userID a contributor of the project. The duplicate check and the
// insert share a transaction, and the unique index settles any race between
// two concurrent adds.
func (s *ContributorService) Add(ctx context.Context, actorID, projectID, userID uint) (*models.Contributor, error) {
	var contributor models.Contributor

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := resolveProject(tx, actorID, projectID, permissions.Write, permissions.ProjectAuthor); err != nil {
			return err
		}

		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NotFoundError("User not found")
			}
			return err
		}

		exists, err := isContributor(tx, userID, projectID, false)
		if err != nil {
			return err
		}
		if exists {
			return ConflictError("user", "This user is already a contributor of the project")
		}

		contributor = models.Contributor{UserID: userID, ProjectID: projectID}
		if err := tx.Create(&contributor).Error; err != nil {
			return err
		}
		contributor.User = user

		return recordActivity(tx, projectID, actorID, ActionContributorAdded, ResourceContributor, contributor.ID, map[string]any{
			"user_id":  user.ID,
			"username": user.Username,
		})
	})

	if isUniqueViolation(err) {
		return nil, ConflictError("user", "This user is already a contributor of the project")
	}
	if err != nil {
		return nil, err
	}

	return &contributor, nil
}

// lockContributor selects a contributor row for removal and holds it
// exclusively. Writes that checked this membership hold a share lock on it,
// so removal waits for them to commit.
func lockContributor(tx *gorm.DB, projectID, contributorID uint) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		Where("id = ? AND project_id = ?", contributorID, projectID)
}

// Remove deletes a contributor row. The author's own row is permanent. Issues
// assigned to the removed user in this project lose their assignee so no
// issue points at a non-contributor.
func (s *ContributorService) Remove(ctx context.Context, actorID, projectID, contributorID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		scope, err := resolveProject(tx, actorID, projectID, permissions.Write, permissions.ProjectAuthor)
		if err != nil {
			return err
		}

		var contributor models.Contributor
		err = lockContributor(tx, projectID, contributorID).Preload("User").First(&contributor).Error
		if err != nil {
			return notFoundOr(err, "Contributor")
		}

		if contributor.UserID == scope.Project.AuthorID {
			return ValidationError("", "The project author cannot be removed from the project")
		}

		err = tx.Model(&models.Issue{}).
			Where("project_id = ? AND assigned_to_id = ?", projectID, contributor.UserID).
			Update("assigned_to_id", nil).Error
		if err != nil {
			return err
		}

		if err := tx.Delete(&contributor).Error; err != nil {
			return err
		}

		return recordActivity(tx, projectID, actorID, ActionContributorRemoved, ResourceContributor, contributor.ID, map[string]any{
			"user_id":  contributor.UserID,
			"username": contributor.User.Username,
		})
	})
}

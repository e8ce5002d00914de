package services

import (
	"context"
	"strings"

	"github.com/softdesk-dev/softdesk/internal/models"
	"github.com/softdesk-dev/softdesk/internal/permissions"
	"gorm.io/gorm"
)

type ProjectInput struct {
	Name        string
	Description string
	Type        models.ProjectType
}

type UpdateProjectInput struct {
	Name        *string
	Description *string
	Type        *models.ProjectType
}

// ProjectSummary is a project with its author loaded and its contributor count.
type ProjectSummary struct {
	models.Project
	ContributorsCount int64
}

type ProjectService struct {
	db *gorm.DB
}

func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{db: db}
}

func validateProjectName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ValidationError("name", "This field may not be blank")
	}
	if len(name) > 255 {
		return ValidationError("name", "Ensure this field has no more than 255 characters")
	}
	return nil
}

func validateProjectType(t models.ProjectType) error {
	if !t.Valid() {
		return ValidationError("type", "\""+string(t)+"\" is not a valid choice")
	}
	return nil
}

// Create stores the project and makes its author the first contributor. Both
// rows commit together or not at all.
func (s *ProjectService) Create(ctx context.Context, actorID uint, input ProjectInput) (*ProjectSummary, error) {
	if err := validateProjectName(input.Name); err != nil {
		return nil, err
	}
	if err := validateProjectType(input.Type); err != nil {
		return nil, err
	}

	project := models.Project{
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Type:        input.Type,
		AuthorID:    actorID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}

		contributor := models.Contributor{UserID: actorID, ProjectID: project.ID}
		if err := tx.Create(&contributor).Error; err != nil {
			return err
		}

		return recordActivity(tx, project.ID, actorID, ActionProjectCreated, ResourceProject, project.ID, map[string]any{
			"name": project.Name,
			"type": project.Type,
		})
	})

	if err != nil {
		return nil, err
	}

	return s.summary(s.db.WithContext(ctx), project.ID)
}

func (s *ProjectService) summary(tx *gorm.DB, projectID uint) (*ProjectSummary, error) {
	var summary ProjectSummary

	if err := tx.Preload("Author").First(&summary.Project, projectID).Error; err != nil {
		return nil, notFoundOr(err, "Project")
	}

	counts, err := contributorCounts(tx, []uint{projectID})
	if err != nil {
		return nil, err
	}
	summary.ContributorsCount = counts[projectID]

	return &summary, nil
}

func contributorCounts(tx *gorm.DB, projectIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(projectIDs))
	if len(projectIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		ProjectID uint
		Total     int64
	}

	err := tx.Model(&models.Contributor{}).
		Select("project_id, COUNT(*) AS total").
		Where("project_id IN ?", projectIDs).
		Group("project_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.ProjectID] = row.Total
	}

	return counts, nil
}

// List returns the projects the caller contributes to.
func (s *ProjectService) List(ctx context.Context, actorID uint, req PageRequest) (*Page[ProjectSummary], error) {
	db := s.db.WithContext(ctx)

	query := db.Model(&models.Project{}).Where("id IN (?)", contributorProjects(db, actorID))

	page, err := paginate[models.Project](query, req, func(q *gorm.DB) *gorm.DB {
		return q.Preload("Author").Order("id")
	})
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(page.Items))
	for _, p := range page.Items {
		ids = append(ids, p.ID)
	}

	counts, err := contributorCounts(db, ids)
	if err != nil {
		return nil, err
	}

	summaries := make([]ProjectSummary, 0, len(page.Items))
	for _, p := range page.Items {
		summaries = append(summaries, ProjectSummary{Project: p, ContributorsCount: counts[p.ID]})
	}

	return &Page[ProjectSummary]{Items: summaries, Total: page.Total, Page: page.Page, Size: page.Size}, nil
}

func (s *ProjectService) Get(ctx context.Context, actorID, projectID uint) (*ProjectSummary, error) {
	db := s.db.WithContext(ctx)

	if _, err := resolveProject(db, actorID, projectID, permissions.Read); err != nil {
		return nil, err
	}

	return s.summary(db, projectID)
}

func (s *ProjectService) Update(ctx context.Context, actorID, projectID uint, input UpdateProjectInput) (*ProjectSummary, error) {
	db := s.db.WithContext(ctx)

	err := db.Transaction(func(tx *gorm.DB) error {
		scope, err := resolveProject(tx, actorID, projectID, permissions.Write, permissions.ProjectAuthorOrReadOnly)
		if err != nil {
			return err
		}

		project := scope.Project
		changes := map[string]any{}

		if input.Name != nil {
			if err := validateProjectName(*input.Name); err != nil {
				return err
			}
			project.Name = strings.TrimSpace(*input.Name)
			changes["name"] = project.Name
		}
		if input.Description != nil {
			project.Description = *input.Description
			changes["description"] = project.Description
		}
		if input.Type != nil {
			if err := validateProjectType(*input.Type); err != nil {
				return err
			}
			project.Type = *input.Type
			changes["type"] = project.Type
		}

		if err := tx.Save(&project).Error; err != nil {
			return err
		}

		return recordActivity(tx, project.ID, actorID, ActionProjectUpdated, ResourceProject, project.ID, changes)
	})

	if err != nil {
		return nil, err
	}

	return s.summary(db, projectID)
}

// Delete removes the project with its contributors, issues, comments and log.
func (s *ProjectService) Delete(ctx context.Context, actorID, projectID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := resolveProject(tx, actorID, projectID, permissions.Write, permissions.ProjectAuthor); err != nil {
			return err
		}

		return deleteProjects(tx, []uint{projectID})
	})
}

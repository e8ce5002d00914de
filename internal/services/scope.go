package services

import (
	"github.com/softdesk-dev/softdesk/internal/models"
	"github.com/softdesk-dev/softdesk/internal/permissions"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProjectScope is what a nested path resolves to before any handler runs.
type ProjectScope struct {
	Project       models.Project
	IsContributor bool
}

func (s *ProjectScope) Subject(actorID uint, op permissions.Operation) permissions.Subject {
	return permissions.Subject{
		ActorID:         actorID,
		Operation:       op,
		IsContributor:   s.IsContributor,
		ProjectAuthorID: s.Project.AuthorID,
	}
}

type IssueScope struct {
	ProjectScope
	Issue models.Issue
}

func (s *IssueScope) Subject(actorID uint, op permissions.Operation) permissions.Subject {
	subject := s.ProjectScope.Subject(actorID, op)
	subject.ObjectAuthorID = s.Issue.AuthorID
	return subject
}

type CommentScope struct {
	IssueScope
	Comment models.Comment
}

func (s *CommentScope) Subject(actorID uint, op permissions.Operation) permissions.Subject {
	subject := s.ProjectScope.Subject(actorID, op)
	subject.ObjectAuthorID = s.Comment.AuthorID
	return subject
}

// membership selects the caller's contributor row. A locked read holds the row
// in share mode until the transaction ends, so a concurrent removal waits for
// the write that relied on it.
func membership(tx *gorm.DB, userID, projectID uint, lock bool) *gorm.DB {
	query := tx.Where("user_id = ? AND project_id = ?", userID, projectID)
	if lock {
		query = query.Clauses(clause.Locking{Strength: clause.LockingStrengthShare})
	}
	return query.Limit(1)
}

func isContributor(tx *gorm.DB, userID, projectID uint, lock bool) (bool, error) {
	var rows []models.Contributor

	result := membership(tx, userID, projectID, lock).Find(&rows)
	return result.RowsAffected > 0, result.Error
}

// contributorProjects selects the ids of every project the user contributes to.
func contributorProjects(tx *gorm.DB, userID uint) *gorm.DB {
	return tx.Model(&models.Contributor{}).Select("project_id").Where("user_id = ?", userID)
}

// resolveProject loads the project and the caller's membership. A missing
// project and a project the caller cannot see both deny with NotFound, so the
// caller cannot tell them apart. Writes keep the membership row locked.
func resolveProject(tx *gorm.DB, actorID, projectID uint, op permissions.Operation, predicates ...permissions.Predicate) (*ProjectScope, error) {
	scope := &ProjectScope{}

	if err := tx.First(&scope.Project, projectID).Error; err != nil {
		return nil, notFoundOr(err, "Project")
	}

	member, err := isContributor(tx, actorID, projectID, op == permissions.Write)
	if err != nil {
		return nil, err
	}
	scope.IsContributor = member

	checks := append([]permissions.Predicate{permissions.Authenticated, permissions.ProjectMember}, predicates...)
	if d := permissions.All(scope.Subject(actorID, op), checks...); !d.Allowed() {
		return nil, denied(d, "Project")
	}

	return scope, nil
}

// resolveIssue walks project then issue. Membership is checked before the
// issue is looked up so a non-contributor never learns which issues exist.
func resolveIssue(tx *gorm.DB, actorID, projectID, issueID uint, op permissions.Operation, predicates ...permissions.Predicate) (*IssueScope, error) {
	project, err := resolveProject(tx, actorID, projectID, op)
	if err != nil {
		return nil, err
	}

	scope := &IssueScope{ProjectScope: *project}

	err = tx.Where("id = ? AND project_id = ?", issueID, projectID).First(&scope.Issue).Error
	if err != nil {
		return nil, notFoundOr(err, "Issue")
	}

	if d := permissions.All(scope.Subject(actorID, op), predicates...); !d.Allowed() {
		return nil, denied(d, "Issue")
	}

	return scope, nil
}

func resolveComment(tx *gorm.DB, actorID, projectID, issueID, commentID uint, op permissions.Operation, predicates ...permissions.Predicate) (*CommentScope, error) {
	issue, err := resolveIssue(tx, actorID, projectID, issueID, op)
	if err != nil {
		return nil, err
	}

	scope := &CommentScope{IssueScope: *issue}

	err = tx.Where("id = ? AND issue_id = ?", commentID, issueID).First(&scope.Comment).Error
	if err != nil {
		return nil, notFoundOr(err, "Comment")
	}

	if d := permissions.All(scope.Subject(actorID, op), predicates...); !d.Allowed() {
		return nil, denied(d, "Comment")
	}

	return scope, nil
}

package services

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/softdesk-dev/softdesk/internal/auth"
	"github.com/softdesk-dev/softdesk/internal/models"
	"github.com/softdesk-dev/softdesk/internal/permissions"
	"gorm.io/gorm"
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

const maxUsernameLength = 150

type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	Password2       string
	Age             *int
	CanBeContacted  bool
	CanDataBeShared bool
}

// UpdateUserInput carries a partial update; nil fields are left untouched.
type UpdateUserInput struct {
	Username        *string
	Email           *string
	Age             *int
	CanBeContacted  *bool
	CanDataBeShared *bool
}

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func validateUsername(username string) error {
	if username == "" {
		return ValidationError("username", "This field may not be blank")
	}
	if len(username) > maxUsernameLength {
		return ValidationError("username", "Ensure this field has no more than 150 characters")
	}
	if !usernamePattern.MatchString(username) {
		return ValidationError("username", "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters")
	}
	return nil
}

func validateAge(age *int) error {
	if age == nil {
		return ValidationError("age", "This field is required")
	}
	if *age < models.MinimumAge {
		return ValidationError("age", "You must be at least 15 years old to register")
	}
	return nil
}

func (s *UserService) usernameTaken(tx *gorm.DB, username string, exceptID uint) (bool, error) {
	var count int64

	query := tx.Model(&models.User{}).Where("username = ?", username)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}

	err := query.Count(&count).Error
	return count > 0, err
}

func (s *UserService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)

	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateAge(input.Age); err != nil {
		return nil, err
	}
	if input.Password != input.Password2 {
		return nil, ValidationError("password", "Password fields didn't match")
	}
	if err := auth.ValidatePassword(input.Password, username, input.Email); err != nil {
		return nil, ValidationError("password", err.Error())
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Username:        username,
		Email:           strings.TrimSpace(input.Email),
		PasswordHash:    hash,
		Age:             *input.Age,
		CanBeContacted:  input.CanBeContacted,
		CanDataBeShared: input.CanDataBeShared,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := s.usernameTaken(tx, username, 0)
		if err != nil {
			return err
		}
		if taken {
			return ConflictError("username", "A user with that username already exists")
		}

		return tx.Create(&user).Error
	})

	if isUniqueViolation(err) {
		return nil, ConflictError("username", "A user with that username already exists")
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// Authenticate checks a username/password pair. Unknown users and wrong
// passwords fail the same way.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User

	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, AuthenticationError("No active account found with the given credentials")
	}
	if err != nil {
		return nil, err
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, AuthenticationError("No active account found with the given credentials")
	}

	return &user, nil
}

// FindByID loads the account behind a verified token.
func (s *UserService) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User

	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFoundOr(err, "User")
	}

	return &user, nil
}

// List only ever contains the caller's own account.
func (s *UserService) List(ctx context.Context, actorID uint, req PageRequest) (*Page[models.User], error) {
	query := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", actorID)

	return paginate[models.User](query, req, func(q *gorm.DB) *gorm.DB {
		return q.Order("id")
	})
}

func (s *UserService) authorize(actorID, userID uint, op permissions.Operation) error {
	subject := permissions.Subject{ActorID: actorID, Operation: op, TargetUserID: userID}

	if d := permissions.All(subject, permissions.Authenticated, permissions.Self); !d.Allowed() {
		return denied(d, "User")
	}
	return nil
}

func (s *UserService) Get(ctx context.Context, actorID, userID uint) (*models.User, error) {
	if err := s.authorize(actorID, userID, permissions.Read); err != nil {
		return nil, err
	}
	return s.FindByID(ctx, userID)
}

func (s *UserService) Update(ctx context.Context, actorID, userID uint, input UpdateUserInput) (*models.User, error) {
	if err := s.authorize(actorID, userID, permissions.Write); err != nil {
		return nil, err
	}

	var user models.User

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, userID).Error; err != nil {
			return notFoundOr(err, "User")
		}

		if input.Username != nil {
			username := strings.TrimSpace(*input.Username)
			if err := validateUsername(username); err != nil {
				return err
			}

			taken, err := s.usernameTaken(tx, username, user.ID)
			if err != nil {
				return err
			}
			if taken {
				return ConflictError("username", "A user with that username already exists")
			}
			user.Username = username
		}
		if input.Email != nil {
			user.Email = strings.TrimSpace(*input.Email)
		}
		if input.Age != nil {
			if err := validateAge(input.Age); err != nil {
				return err
			}
			user.Age = *input.Age
		}
		if input.CanBeContacted != nil {
			user.CanBeContacted = *input.CanBeContacted
		}
		if input.CanDataBeShared != nil {
			user.CanDataBeShared = *input.CanDataBeShared
		}

		return tx.Save(&user).Error
	})

	if isUniqueViolation(err) {
		return nil, ConflictError("username", "A user with that username already exists")
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// Delete erases the account and everything it owns. Issues merely assigned
// to the user survive with no assignee.
func (s *UserService) Delete(ctx context.Context, actorID, userID uint) error {
	if err := s.authorize(actorID, userID, permissions.Write); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return notFoundOr(err, "User")
		}

		var projectIDs []uint
		if err := tx.Model(&models.Project{}).Where("author_id = ?", userID).Pluck("id", &projectIDs).Error; err != nil {
			return err
		}
		if err := deleteProjects(tx, projectIDs); err != nil {
			return err
		}

		var issueIDs []uint
		if err := tx.Model(&models.Issue{}).Where("author_id = ?", userID).Pluck("id", &issueIDs).Error; err != nil {
			return err
		}
		if err := deleteIssues(tx, issueIDs); err != nil {
			return err
		}

		if err := tx.Where("author_id = ?", userID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Issue{}).Where("assigned_to_id = ?", userID).Update("assigned_to_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.Contributor{}).Error; err != nil {
			return err
		}
		if err := tx.Where("actor_id = ?", userID).Delete(&models.Activity{}).Error; err != nil {
			return err
		}

		return tx.Delete(&user).Error
	})
}

// deleteIssues removes issues together with their comments.
func deleteIssues(tx *gorm.DB, issueIDs []uint) error {
	if len(issueIDs) == 0 {
		return nil
	}

	if err := tx.Where("issue_id IN ?", issueIDs).Delete(&models.Comment{}).Error; err != nil {
		return err
	}

	return tx.Where("id IN ?", issueIDs).Delete(&models.Issue{}).Error
}

// deleteProjects removes projects and everything hanging off them, children
// first so the foreign keys hold at every step.
func deleteProjects(tx *gorm.DB, projectIDs []uint) error {
	if len(projectIDs) == 0 {
		return nil
	}

	var issueIDs []uint
	if err := tx.Model(&models.Issue{}).Where("project_id IN ?", projectIDs).Pluck("id", &issueIDs).Error; err != nil {
		return err
	}
	if err := deleteIssues(tx, issueIDs); err != nil {
		return err
	}

	if err := tx.Where("project_id IN ?", projectIDs).Delete(&models.Contributor{}).Error; err != nil {
		return err
	}
	if err := tx.Where("project_id IN ?", projectIDs).Delete(&models.Activity{}).Error; err != nil {
		return err
	}

	return tx.Where("id IN ?", projectIDs).Delete(&models.Project{}).Error
}

package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/softdesk-dev/softdesk/internal/models"
	"github.com/softdesk-dev/softdesk/internal/services"
)

type CreateUserRequest struct {
	Username        string `json:"username" binding:"required,max=150"`
	Email           string `json:"email" binding:"omitempty,email"`
	Password        string `json:"password" binding:"required"`
	Password2       string `json:"password2" binding:"required"`
	Age             *int   `json:"age" binding:"required"`
	CanBeContacted  bool   `json:"can_be_contacted"`
	CanDataBeShared bool   `json:"can_data_be_shared"`
}

type UpdateUserRequest struct {
	Username        *string `json:"username" binding:"omitempty,max=150"`
	Email           *string `json:"email" binding:"omitempty,email"`
	Age             *int    `json:"age"`
	CanBeContacted  *bool   `json:"can_be_contacted"`
	CanDataBeShared *bool   `json:"can_data_be_shared"`
}

type UserResponse struct {
	ID              uint      `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	Age             int       `json:"age"`
	CanBeContacted  bool      `json:"can_be_contacted"`
	CanDataBeShared bool      `json:"can_data_be_shared"`
	CreatedTime     time.Time `json:"created_time"`
}

func newUserResponse(u models.User) UserResponse {
	return UserResponse{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		Age:             u.Age,
		CanBeContacted:  u.CanBeContacted,
		CanDataBeShared: u.CanDataBeShared,
		CreatedTime:     u.CreatedAt,
	}
}

type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Register is open to anonymous callers.
func (h *UserHandler) Register(ctx *gin.Context) {
	var req CreateUserRequest

	if !bindJSON(ctx, &req) {
		return
	}

	user, err := h.users.Register(ctx.Request.Context(), services.RegisterInput{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		Password2:       req.Password2,
		Age:             req.Age,
		CanBeContacted:  req.CanBeContacted,
		CanDataBeShared: req.CanDataBeShared,
	})

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, newUserResponse(*user))
}

func (h *UserHandler) List(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	req, ok := pageRequest(ctx)
	if !ok {
		return
	}

	page, err := h.users.List(ctx.Request.Context(), userID, req)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, paginated(ctx, page, newUserResponse))
}

func (h *UserHandler) Get(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	targetID, ok := pathID(ctx, "user_id", "User")
	if !ok {
		return
	}

	user, err := h.users.Get(ctx.Request.Context(), userID, targetID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, newUserResponse(*user))
}

// Update serves both PUT and PATCH; omitted fields keep their value.
func (h *UserHandler) Update(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	targetID, ok := pathID(ctx, "user_id", "User")
	if !ok {
		return
	}

	var req UpdateUserRequest

	if !bindJSON(ctx, &req) {
		return
	}

	user, err := h.users.Update(ctx.Request.Context(), userID, targetID, services.UpdateUserInput{
		Username:        req.Username,
		Email:           req.Email,
		Age:             req.Age,
		CanBeContacted:  req.CanBeContacted,
		CanDataBeShared: req.CanDataBeShared,
	})

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, newUserResponse(*user))
}

func (h *UserHandler) Delete(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	targetID, ok := pathID(ctx, "user_id", "User")
	if !ok {
		return
	}

	if err := h.users.Delete(ctx.Request.Context(), userID, targetID); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/softdesk-dev/softdesk/internal/services"
	"github.com/softdesk-dev/softdesk/internal/utils"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}

type PaginatedResponse[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// respondError writes a service error with its status. Anything else is an
// internal failure: it is logged and hidden from the client.
func respondError(ctx *gin.Context, err error) {
	if svcErr, ok := services.AsError(err); ok {
		ctx.JSON(svcErr.Status(), ErrorResponse{
			Error: svcErr.Message,
			Code:  string(svcErr.Kind),
			Field: svcErr.Field,
		})
		return
	}

	log.Printf("%s %s failed: %v", ctx.Request.Method, ctx.Request.URL.Path, err)
	ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error", Code: "server_error"})
}

// bindJSON decodes the body and reports the first offending field.
func bindJSON(ctx *gin.Context, dest any) bool {
	err := ctx.ShouldBindJSON(dest)

	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors

	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		respondError(ctx, services.ValidationError(fe.Field(), validationMessage(fe)))
		return false
	}

	respondError(ctx, services.ValidationError("", "Invalid request body"))
	return false
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Enter a valid email address"
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this value is at least %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("\"%v\" is not a valid choice", fe.Value())
	default:
		return "Invalid value"
	}
}

func currentUserID(ctx *gin.Context) (uint, bool) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated", Code: "not_authenticated"})
		return 0, false
	}

	return userID, true
}

func pageRequest(ctx *gin.Context) (services.PageRequest, bool) {
	req, err := utils.GetPageRequest(ctx)

	if err != nil {
		respondError(ctx, services.NotFoundError("Invalid page"))
		return req, false
	}

	return req, true
}

func pathID(ctx *gin.Context, name, resource string) (uint, bool) {
	id, err := utils.GetIDParam(ctx, name)

	if err != nil {
		respondError(ctx, services.NotFoundError(resource+" not found"))
		return 0, false
	}

	return id, true
}

// pageURL rebuilds the current request URL as an absolute link to another page.
func pageURL(ctx *gin.Context, page int) string {
	scheme := "http"
	if ctx.Request.TLS != nil {
		scheme = "https"
	}
	if proto := ctx.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	query := ctx.Request.URL.Query()
	if page <= 1 {
		query.Del("page")
	} else {
		query.Set("page", strconv.Itoa(page))
	}

	link := fmt.Sprintf("%s://%s%s", scheme, ctx.Request.Host, ctx.Request.URL.Path)
	if encoded := query.Encode(); encoded != "" {
		link += "?" + encoded
	}

	return link
}

func paginated[M any, T any](ctx *gin.Context, page *services.Page[M], convert func(M) T) PaginatedResponse[T] {
	response := PaginatedResponse[T]{
		Count:   page.Total,
		Results: make([]T, 0, len(page.Items)),
	}

	for _, item := range page.Items {
		response.Results = append(response.Results, convert(item))
	}

	if page.HasNext() {
		next := pageURL(ctx, page.Page+1)
		response.Next = &next
	}
	if page.HasPrevious() {
		previous := pageURL(ctx, page.Page-1)
		response.Previous = &previous
	}

	return response
}

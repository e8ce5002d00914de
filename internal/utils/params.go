package utils

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/softdesk-dev/softdesk/internal/services"
)

// GetIDParam parses a positive numeric path parameter.
func GetIDParam(ctx *gin.Context, name string) (uint, error) {
	raw := ctx.Param(name)

	if raw == "" {
		return 0, errors.New("ID not found")
	}

	id, err := strconv.ParseUint(raw, 10, 32)

	if err != nil || id == 0 {
		return 0, errors.New("Invalid ID")
	}

	return uint(id), nil
}

// GetPageRequest reads page and page_size from the query string. A page that
// is not a positive integer is an error; a bad page_size falls back to the
// default.
func GetPageRequest(ctx *gin.Context) (services.PageRequest, error) {
	req := services.PageRequest{Page: 1, Size: services.DefaultPageSize}

	if raw := ctx.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return req, errors.New("Invalid page")
		}
		req.Page = page
	}

	if raw := ctx.Query("page_size"); raw != "" {
		if size, err := strconv.Atoi(raw); err == nil && size > 0 {
			req.Size = size
		}
	}

	return req.Normalize(), nil
}

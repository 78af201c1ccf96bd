package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/sbenhamida/mouwatin/internal/middleware"
	"github.com/sbenhamida/mouwatin/pkg/errors"
	"github.com/sbenhamida/mouwatin/pkg/response"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// currentUserID returns the authenticated account ID or writes a 401 and
// reports false.
func currentUserID(c *gin.Context) (string, bool) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return "", false
	}
	return userID, true
}

// pagination reads page/page_size query parameters with defaults.
func pagination(c *gin.Context) (page, pageSize int) {
	return parseIntQuery(c, "page", 1), parseIntQuery(c, "page_size", 25)
}

// listMeta builds the pagination metadata block for list responses.
func listMeta(page, pageSize int, total int64) *response.Meta {
	if pageSize <= 0 {
		pageSize = 25
	}
	pages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &response.Meta{
		Page:       page,
		PerPage:    pageSize,
		Total:      int(total),
		TotalPages: pages,
	}
}

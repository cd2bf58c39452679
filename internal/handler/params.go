package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/CrownAlter/task-management-api/internal/domain"
)

// pathID parses a positive int64 path parameter
func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError(name, "must be a positive integer")
	}
	return id, nil
}

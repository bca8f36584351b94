package handlers

import (
	"errors"
	"net/http"

	"alterearth/internal/services"

	"github.com/gin-gonic/gin"
)

// fail maps core service errors onto HTTP statuses.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrInvalidTarget),
		errors.Is(err, services.ErrInvalidValue),
		errors.Is(err, services.ErrInvalidContent):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrUnknownTarget),
		errors.Is(err, services.ErrUnknownPost),
		errors.Is(err, services.ErrUnknownParent),
		errors.Is(err, services.ErrUnknownComment):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrNotAuthorized):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrConflict):
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

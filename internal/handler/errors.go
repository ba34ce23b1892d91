package handler

import (
	"errors"
	"net/http"

	"boutique-backend/internal/service"
	"boutique-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// abortWithServiceError maps a service failure onto the HTTP contract.
// Validation failures are 400, unknown entities 404, missing actor identity
// 401, concurrent modification 409. Anything outside the service taxonomy is
// an infrastructure failure and stays a 500.
func abortWithServiceError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, service.ErrUnknownEntity):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrMissingActor):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrConcurrentModification):
		status = http.StatusConflict
	case errors.Is(err, service.ErrDuplicateUser):
		status = http.StatusConflict
	case service.IsBusinessError(err):
		status = http.StatusBadRequest
	}

	c.JSON(status, response.Error(status, err.Error()))
}

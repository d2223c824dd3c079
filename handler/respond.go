package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opsmind-ai/kb-gateway/types"
)

func sendSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, types.DataResponse{
		Status: "success",
		Data:   data,
	})
}

// sendError maps the error taxonomy onto HTTP statuses: validation errors are
// the caller's fault (400), backend unavailability is retryable (503),
// anything else is a 500.
func sendError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, types.ErrInvalidArgument),
		errors.Is(err, types.ErrInvalidCategory),
		errors.Is(err, types.ErrInvalidEntry):
		status = http.StatusBadRequest
	case errors.Is(err, types.ErrStoreUnavailable),
		errors.Is(err, types.ErrEmbeddingUnavailable):
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, types.DataResponse{
		Status:  "error",
		Message: err.Error(),
	})
}

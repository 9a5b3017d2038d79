package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"acadflow/backend/pkg/apperrors"
	"acadflow/backend/pkg/response"
)

// respondError maps a service error kind to its HTTP status. Unrecognized
// errors never leak details to the client.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		response.BadRequest(c, 20001, err.Error())
	case errors.Is(err, apperrors.ErrForbidden):
		response.Forbidden(c, 10003, err.Error())
	case errors.Is(err, apperrors.ErrNoActiveAllocation):
		response.NotFound(c, 20002, err.Error())
	case errors.Is(err, apperrors.ErrNotFound):
		response.NotFound(c, 20003, err.Error())
	case errors.Is(err, apperrors.ErrInvalidState):
		response.Conflict(c, 20004, err.Error())
	case errors.Is(err, apperrors.ErrConflict):
		response.Conflict(c, 20005, err.Error())
	case errors.Is(err, apperrors.ErrExternal):
		response.BadGateway(c, 30001, err.Error())
	default:
		response.InternalError(c)
	}
}

package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/huangang/ideahub/backend/internal/middleware"
	"github.com/huangang/ideahub/backend/internal/services"
	"github.com/huangang/ideahub/backend/pkg/logger"
	"github.com/huangang/ideahub/backend/pkg/response"
)

// toAppError maps service sentinels onto HTTP errors.
func toAppError(err error) *response.AppError {
	switch {
	case errors.Is(err, services.ErrValidation):
		return response.NewBadRequest(detail(err, services.ErrValidation)).WithCause(err)
	case errors.Is(err, services.ErrUnauthorized):
		return response.NewUnauthorized(detail(err, services.ErrUnauthorized)).WithCause(err)
	case errors.Is(err, services.ErrForbidden):
		return response.NewForbidden(detail(err, services.ErrForbidden)).WithCause(err)
	case errors.Is(err, services.ErrNotFound):
		return response.NewNotFound(err.Error()).WithCause(err)
	case errors.Is(err, services.ErrInvalidTransition):
		return response.NewConflict(detail(err, services.ErrInvalidTransition)).WithCause(err)
	case errors.Is(err, services.ErrConflict):
		return response.NewConflict(detail(err, services.ErrConflict)).WithCause(err)
	}
	return response.NewServerError("internal server error").WithCause(err)
}

// detail drops the "<sentinel>: " prefix the services add.
func detail(err, sentinel error) string {
	msg := err.Error()
	if i := strings.Index(msg, sentinel.Error()+": "); i >= 0 {
		return msg[i+len(sentinel.Error())+2:]
	}
	return msg
}

func respondError(c *gin.Context, err error) {
	appErr := toAppError(err)
	if appErr.HTTPStatus >= 500 {
		logger.Error().Err(err).
			Str("request_id", middleware.GetRequestID(c)).
			Str("path", c.FullPath()).
			Msg("request failed")
	}
	response.Error(c, appErr)
}

func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil || id == 0 {
		response.BadRequest(c, "invalid "+param)
		return 0, false
	}
	return uint(id), true
}

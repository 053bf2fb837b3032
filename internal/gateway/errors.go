package gateway

import (
	"context"
	"errors"
	"net/http"

	"github.com/danmuck/spmctl/internal/client"
	"github.com/danmuck/spmctl/internal/observability"
	"github.com/danmuck/spmctl/internal/protocol"
	"github.com/gin-gonic/gin"
)

func statusFor(err error) int {
	var se *client.ServerError
	switch {
	case errors.As(err, &se):
		return http.StatusUnprocessableEntity
	case errors.Is(err, client.ErrConnect), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	case errors.Is(err, protocol.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, client.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func respondError(c *gin.Context, err error) {
	body := gin.H{
		"error":      err.Error(),
		"request_id": observability.RequestIDFrom(c),
	}
	var se *client.ServerError
	if errors.As(err, &se) {
		body["code"] = se.Code
		body["message"] = se.Message
	}
	c.AbortWithStatusJSON(statusFor(err), body)
}

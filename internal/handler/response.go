package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "github.com/clinichub/scheduling-api/pkg/errors"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// Error writes a typed application error with its mapped HTTP status.
// Internal errors are masked; everything else surfaces its message so the
// caller can distinguish a lost booking race from bad input.
func Error(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.Internal(err)
	}

	if appErr.Code == apperrors.ErrInternal {
		c.Error(err)
		c.JSON(appErr.StatusCode(), NewErrorResponse("internal server error"))
		return
	}
	c.JSON(appErr.StatusCode(), NewErrorResponse(appErr.Message))
}

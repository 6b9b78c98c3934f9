package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "budgetly/internal/errors"
	"budgetly/internal/logger"
	"budgetly/internal/uuid"
	"budgetly/internal/validator"
)

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Fields  []apperrors.FieldError `json:"fields,omitempty"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// MessageResponse represents a plain message response.
type MessageResponse struct {
	Message string `json:"message"`
}

// parsePathID reads a UUID path parameter and returns it in canonical form.
// Returns ErrInvalidInput if the parameter is not a UUID.
//
//nolint:unparam // param is intentionally generic for reuse across handlers with different path params
func parsePathID(c *gin.Context, param string) (string, error) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid "+param)
	}
	return id, nil
}

// parseOptionalBool parses a "true"/"false" query parameter. An absent
// parameter yields nil.
func parseOptionalBool(c *gin.Context, param string) (*bool, error) {
	var b bool
	switch c.Query(param) {
	case "":
		return nil, nil
	case "true":
		b = true
	case "false":
		b = false
	default:
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, param+" must be 'true' or 'false'")
	}
	return &b, nil
}

// bindError converts a gin binding failure into ErrInvalidInput, keeping the
// per-field messages when the failure came from validation.
func bindError(err error) error {
	if fields := validator.FieldErrors(err); len(fields) > 0 {
		return apperrors.WithFields(apperrors.ErrInvalidInput, fields)
	}
	return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
}

// respondWithError writes a consistent JSON error response. If the error is an
// *AppError it uses the error's status code, code, message and field list.
// Otherwise it logs the unexpected error and returns a generic internal server
// error.
func respondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			logger.Get().Errorw("app error",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
			)
		}
		c.JSON(appErr.StatusCode, ErrorResponse{Error: ErrorDetail{
			Code:    appErr.Code,
			Message: appErr.Message,
			Fields:  appErr.Fields,
		}})
		return
	}

	logger.Get().Errorw("unexpected error",
		"error", err.Error(),
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
	)
	c.JSON(apperrors.ErrInternalServer.StatusCode, ErrorResponse{Error: ErrorDetail{
		Code:    apperrors.ErrInternalServer.Code,
		Message: apperrors.ErrInternalServer.Message,
	}})
}

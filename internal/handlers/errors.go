package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/dimitrije/spacebook-api/internal/booking"
	"github.com/dimitrije/spacebook-api/internal/services"
	"github.com/dimitrije/spacebook-api/pkg/dto"
	"github.com/go-playground/validator/v10"
	"github.com/m1z23r/drift/pkg/drift"
)

const (
	CodeMissingField      = "missing_field"
	CodeInvalidRange      = "invalid_range"
	CodeOverlapConflict   = "overlap_conflict"
	CodeInvalid           = "invalid"
	CodeInvalidTransition = "INVALID_TRANSITION"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func kindCode(kind error) string {
	switch {
	case errors.Is(kind, booking.ErrMissingField):
		return CodeMissingField
	case errors.Is(kind, booking.ErrInvalidRange):
		return CodeInvalidRange
	case errors.Is(kind, booking.ErrOverlapConflict):
		return CodeOverlapConflict
	}
	return CodeInvalid
}

// validateRequest checks the struct tags of a request and writes a 422 when
// they fail. It reports whether the handler may go on.
func validateRequest(c *drift.Context, req any) bool {
	err := validate.Struct(req)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.BadRequest("invalid request")
		return false
	}

	resp := dto.ValidationErrorResponse{Errors: make([]dto.FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		code := CodeInvalid
		if fe.Tag() == "required" {
			code = CodeMissingField
		}
		resp.Errors = append(resp.Errors, dto.FieldError{
			Field:   fe.Field(),
			Code:    code,
			Message: fieldMessage(fe),
		})
	}
	_ = c.JSON(http.StatusUnprocessableEntity, resp)
	return false
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param()
	case "datetime":
		return fe.Field() + " must match " + fe.Param()
	case "uuid":
		return fe.Field() + " must be a valid id"
	}
	return fe.Field() + " is invalid"
}

// writeError maps service and booking errors to responses.
func writeError(c *drift.Context, err error, action string) {
	var verrs *booking.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		resp := dto.ValidationErrorResponse{Errors: make([]dto.FieldError, 0, len(verrs.Errors))}
		for _, fe := range verrs.Errors {
			resp.Errors = append(resp.Errors, dto.FieldError{
				Field:   fe.Field,
				Code:    kindCode(fe.Kind),
				Message: fe.Message,
			})
		}
		_ = c.JSON(http.StatusUnprocessableEntity, resp)
	case errors.Is(err, booking.ErrInvalidTransition):
		_ = c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{
			Error: err.Error(),
			Code:  CodeInvalidTransition,
		})
	case errors.Is(err, booking.ErrForbidden):
		c.Forbidden(err.Error())
	case errors.Is(err, booking.ErrNotFound):
		c.NotFound(err.Error())
	case errors.Is(err, services.ErrSlugTaken):
		_ = c.JSON(http.StatusConflict, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrTransactionConflict):
		_ = c.JSON(http.StatusConflict, dto.ErrorResponse{Error: "the request conflicted with a concurrent change, please retry"})
	default:
		slog.ErrorContext(c.Request.Context(), "request failed", "action", action, "error", err)
		c.InternalServerError("failed to " + action)
	}
}

// retryOnConflict runs a write once more when it lost a serialization race.
func retryOnConflict[T any](fn func() (T, error)) (T, error) {
	v, err := fn()
	if errors.Is(err, services.ErrTransactionConflict) {
		return fn()
	}
	return v, err
}

package core

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"shegymz/internal/types"
)

// Validator wraps go-playground/validator and converts failures into
// *types.AppError values the response layer understands.
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewValidator creates a Validator that reports fields by their JSON names.
func NewValidator(logger *slog.Logger) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{
		validate: v,
		logger:   logger,
	}
}

// ValidateStruct validates s against its `validate` tags. On failure it
// returns an AppError with code validation_missing_required_field whose
// Details list the offending fields. message is the client-facing text.
func (v *Validator) ValidateStruct(s interface{}, message string) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		// InvalidValidationError: a programming mistake, not bad input.
		return types.NewAppError(types.ErrCodeInternalUnexpected, "validation failed", err)
	}

	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fe.Field())
	}

	if v.logger != nil {
		v.logger.Debug("request validation failed", "fields", fields)
	}

	appErr := types.NewAppError(types.ErrCodeValidationMissingField, message, err)
	appErr.Details = map[string]any{"fields": fields}
	return appErr
}

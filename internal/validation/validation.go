// Package validation checks request structs against their `validate` tags and
// turns the first failure into a *model.ValidationError.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"inkwell/internal/model"
)

var (
	once     sync.Once
	validate *validator.Validate

	alphanumUnderRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("alphanumunder", func(fl validator.FieldLevel) bool {
			return alphanumUnderRegex.MatchString(fl.Field().String())
		})
	})
	return validate
}

// Struct validates s. The returned error, when non-nil, satisfies
// errors.Is(err, model.ErrValidation).
func Struct(s interface{}) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return model.NewValidationError("", "%s", err.Error())
	}
	fe := fieldErrs[0]
	return model.NewValidationError(fe.Field(), "%s", message(fe))
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must contain at least %s items", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must contain at most %s items", fe.Param())
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "alphanumunder":
		return "may only contain letters, numbers and underscores"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

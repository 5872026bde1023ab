package shared

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the process-wide validator. Field errors are reported
// with json tag names and decimal.Decimal values validate as numbers.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
		v.RegisterCustomTypeFunc(func(field reflect.Value) any {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				f, _ := d.Float64()
				return f
			}
			return nil
		}, decimal.Decimal{})
		validate = v
	})
	return validate
}

// ValidateStruct validates s using its `validate` tags and converts failures
// into a VALIDATION_ERROR with one detail per field.
func ValidateStruct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewDomainError("VALIDATION_ERROR", err.Error())
	}
	details := make([]FieldProblem, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, FieldProblem{
			Field:   fe.Field(),
			Message: FieldMessage(fe),
		})
	}
	return NewValidationError("Validation failed", details...)
}

// ValidateValue validates a single value against a tag expression, e.g.
// "required,email". field is used in the error detail.
func ValidateValue(field string, value any, tag string) error {
	err := Validator().Var(value, tag)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return NewValidationError("Validation failed", FieldProblem{
			Field:   field,
			Message: FieldMessage(verrs[0]),
		})
	}
	return NewValidationError(err.Error())
}

// FieldMessage renders a readable message for a validation failure
func FieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "url":
		return "Must be a valid URL"
	case "uuid":
		return "Must be a valid UUID"
	case "min":
		return fmt.Sprintf("Must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("Must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("Must be less than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", fe.Param())
	case "hostname", "fqdn":
		return "Must be a valid domain name"
	}
	return fmt.Sprintf("Failed on '%s' validation", fe.Tag())
}

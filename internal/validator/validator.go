package validator

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// Validator wraps go-playground/validator with the domain rules.
type Validator struct {
	validate *validator.Validate
}

var (
	studentIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_\-./]{0,63}$`)
	certIDPattern    = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_\-./]{0,127}$`)
	ethAddrPattern   = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
)

// New creates a validator with custom rules registered.
func New() *Validator {
	validate := validator.New()

	_ = validate.RegisterValidation("student_id", func(fl validator.FieldLevel) bool {
		return studentIDPattern.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	_ = validate.RegisterValidation("cert_id", func(fl validator.FieldLevel) bool {
		return certIDPattern.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	_ = validate.RegisterValidation("eth_address", func(fl validator.FieldLevel) bool {
		return ethAddrPattern.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation("future_date", func(fl validator.FieldLevel) bool {
		if t, ok := fl.Field().Interface().(time.Time); ok {
			return !t.Before(time.Now().Truncate(24 * time.Hour))
		}
		return false
	})

	return &Validator{validate: validate}
}

// Validate validates a struct and converts failures into ValidationErrors.
func (v *Validator) Validate(s interface{}) ValidationErrors {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	return ToValidationErrors(err)
}

// ToValidationErrors converts validator errors into the domain error type.
func ToValidationErrors(err error) ValidationErrors {
	var errors ValidationErrors

	if fieldErrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range fieldErrs {
			errors = append(errors, ValidationError{
				Field:   fe.Field(),
				Message: messageForTag(fe),
				Value:   fe.Value(),
				Rule:    fe.Tag(),
			})
		}
		return errors
	}

	return ValidationErrors{{Field: "", Message: err.Error(), Rule: "struct"}}
}

func messageForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "student_id":
		return "must be a valid student identifier"
	case "cert_id":
		return "must be a valid certificate identifier"
	case "eth_address":
		return "must be a 0x-prefixed 40 hex character address"
	case "future_date":
		return "must not be in the past"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "datetime":
		return fmt.Sprintf("must match format %s", fe.Param())
	default:
		return fmt.Sprintf("failed rule %s", fe.Tag())
	}
}

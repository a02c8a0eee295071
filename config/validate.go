package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is shared; validator caches struct metadata.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// report fields by their YAML key
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("host", func(fl validator.FieldLevel) bool {
		return validHost(fl.Field().String())
	})

	return v
}

// validHost rejects values that cannot form http://{host}/status.
func validHost(h string) bool {
	return h != "" && !strings.ContainsAny(h, " \t\r\n/?#")
}

// FieldError is a single field-level validation failure.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError holds every field that failed validation.
type ValidationError struct {
	Errors []FieldError
}

func (v *ValidationError) Error() string {
	if len(v.Errors) == 0 {
		return "invalid config"
	}
	messages := make([]string, len(v.Errors))
	for i, e := range v.Errors {
		messages[i] = e.Message
	}
	return "invalid config: " + strings.Join(messages, "; ")
}

// validateStruct runs the struct tag rules and converts failures to a
// [ValidationError] with readable messages.
func validateStruct(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := &ValidationError{}
	for _, e := range fieldErrs {
		field := fieldPath(e)
		out.Errors = append(out.Errors, FieldError{Field: field, Message: formatValidationMessage(field, e)})
	}
	return out
}

// fieldPath turns "Config.aggregation.group_by[0]" into "aggregation.group_by[0]".
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// formatValidationMessage creates human-readable error messages.
func formatValidationMessage(field string, e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if e.Kind() == reflect.Slice || e.Kind() == reflect.Map {
			return fmt.Sprintf("%s must have at least %s entries", field, e.Param())
		}
		return fmt.Sprintf("%s must be at least %s, got %v", field, e.Param(), e.Value())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s, got %v", field, e.Param(), displayValue(e))
	case "gte":
		return fmt.Sprintf("%s cannot be negative, got %v", field, displayValue(e))
	case "lte":
		return fmt.Sprintf("%s must be at most %s, got %v", field, e.Param(), displayValue(e))
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s, got %q", field, e.Param(), e.Value())
	case "host":
		return fmt.Sprintf("%s: %q is not a valid host", field, e.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", field, e.Tag())
	}
}

// displayValue prints durations in their string form.
func displayValue(e validator.FieldError) any {
	if d, ok := e.Value().(Duration); ok {
		return d.Duration()
	}
	return e.Value()
}

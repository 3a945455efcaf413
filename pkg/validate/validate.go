// Package validate runs struct-tag validation and reports the failures as a
// map of JSON field name to a human readable message.
//
// Rules are go-playground/validator tags plus two registered here:
//
//	slug      non-empty, lowercase letters, digits and hyphens
//	httpurl   absolute http or https URL with a host
//
// Example:
//
//	type Input struct {
//	    Title string   `json:"title" validate:"required,min=2,max=80"`
//	    Slug  string   `json:"slug"  validate:"omitempty,slug"`
//	    Tags  []string `json:"tags"  validate:"max=10"`
//	    Price *float64 `json:"price" validate:"omitnil,gt=0"`
//	}
package validate

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/rainbowartistery/atelier/pkg/slug"
)

var (
	once sync.Once
	v    *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(jsonName)
		_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return slug.Valid(fl.Field().String())
		})
		_ = v.RegisterValidation("httpurl", func(fl validator.FieldLevel) bool {
			return IsHTTPURL(fl.Field().String())
		})
	})
	return v
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// ─── Public API ───────────────────────────────────────────────────────────────

// Struct validates s and returns field → message. Only the first failing
// rule per field is reported. An empty map means s is valid.
func Struct(s interface{}) map[string]string {
	errs := make(map[string]string)

	err := instance().Struct(s)
	if err == nil {
		return errs
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// InvalidValidationError: s is not a struct. Nothing to report per field.
		return errs
	}

	for _, fe := range verrs {
		key := fieldKey(fe)
		if _, seen := errs[key]; seen {
			continue
		}
		errs[key] = message(fe)
	}
	return errs
}

// HasErrors is a readability helper for `len(errs) > 0`.
func HasErrors(errs map[string]string) bool {
	return len(errs) > 0
}

// IsHTTPURL reports whether s is an absolute http(s) URL with a host.
func IsHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// fieldKey drops the root struct name: "productInput.mediaUrls[2]" → "mediaUrls[2]".
func fieldKey(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func isCollection(fe validator.FieldError) bool {
	switch fe.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return true
	}
	return false
}

func isNumber(fe validator.FieldError) bool {
	switch fe.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", field)
	case "email":
		return fmt.Sprintf("The %s must be a valid email address.", field)
	case "url", "httpurl":
		return fmt.Sprintf("The %s must be a valid URL.", field)
	case "slug":
		return fmt.Sprintf("The %s may only contain lowercase letters, numbers, and hyphens.", field)
	case "min":
		switch {
		case isCollection(fe):
			return fmt.Sprintf("The %s must have at least %s items.", field, param)
		case isNumber(fe):
			return fmt.Sprintf("The %s must be at least %s.", field, param)
		}
		return fmt.Sprintf("The %s must be at least %s characters.", field, param)
	case "max":
		switch {
		case isCollection(fe):
			return fmt.Sprintf("The %s must not have more than %s items.", field, param)
		case isNumber(fe):
			return fmt.Sprintf("The %s must not be greater than %s.", field, param)
		}
		return fmt.Sprintf("The %s must not exceed %s characters.", field, param)
	case "gt":
		return fmt.Sprintf("The %s must be greater than %s.", field, param)
	case "gte":
		return fmt.Sprintf("The %s must be greater than or equal to %s.", field, param)
	case "lt":
		return fmt.Sprintf("The %s must be less than %s.", field, param)
	case "lte":
		return fmt.Sprintf("The %s must be less than or equal to %s.", field, param)
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", field)
	default:
		return fmt.Sprintf("The %s is invalid.", field)
	}
}

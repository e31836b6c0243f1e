package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// New returns a validator that reports fields by their json, uri or form name.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(fieldName)
	return v
}

func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "uri", "form"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name != "" && name != "-" {
			return name
		}
	}
	return strings.ToLower(f.Name)
}

// Message converts a single field error into the message shown to API callers.
func Message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("the %s is required", field)
	case "email":
		return "Invalid email format"
	case "min":
		return fmt.Sprintf("the %s must contain at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("the %s must contain at most %s characters", field, fe.Param())
	case "uuid", "uuid4":
		return fmt.Sprintf("the %s must be a valid UUID", field)
	default:
		return fmt.Sprintf("the %s is invalid", field)
	}
}

// First returns the field name and message of the first violated rule in err.
// ok is false when err is not a validator.ValidationErrors.
func First(err error) (field, message string, ok bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "", "", false
	}
	return verrs[0].Field(), Message(verrs[0]), true
}

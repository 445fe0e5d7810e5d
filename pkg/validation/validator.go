package validation

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate

	MaxIdentifierLength = 64

	// Labels, edge types, field names and graph spaces end up verbatim in
	// statement text, so they are restricted to plain identifiers.
	identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
)

func init() {
	validate = validator.New()
}

// Struct validates v against its `validate` struct tags and returns the first
// failure in a readable form.
func Struct(v any) error {
	if v == nil {
		return errors.New("value cannot be nil")
	}
	return formatValidationError(validate.Struct(v))
}

// ValidateLabel validates a tag or edge type name.
func ValidateLabel(label string) error {
	return validateIdentifier("label", label)
}

// ValidateFieldName validates a property name.
func ValidateFieldName(name string) error {
	return validateIdentifier("field", name)
}

// ValidateSpace validates a graph space or graph name.
func ValidateSpace(space string) error {
	return validateIdentifier("space", space)
}

func validateIdentifier(kind, value string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", kind)
	}
	if len(value) > MaxIdentifierLength {
		return fmt.Errorf("%s '%s' exceeds maximum length of %d characters", kind, value, MaxIdentifierLength)
	}
	if !identifierPattern.MatchString(value) {
		return fmt.Errorf("%s '%s' is invalid (must start with letter or underscore, followed by alphanumeric or underscore)", kind, value)
	}
	return nil
}

func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	for _, e := range validationErrs {
		field := e.Namespace()
		param := e.Param()

		switch e.Tag() {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min", "gte":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "max", "lte":
			return fmt.Errorf("%s: must not exceed %s", field, param)
		case "oneof":
			return fmt.Errorf("%s: must be one of [%s]", field, param)
		case "url", "uri":
			return fmt.Errorf("%s: must be a valid URL", field)
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
		}
	}

	return err
}

// internal/utils/validator.go
package utils

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("imageid", validateImageID)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

var imageIDPattern = regexp.MustCompile(`^[a-zA-Z0-9._:-]+$`)

// validateImageID accepts remote resource identifiers. Image and product
// ids are interpolated into upstream request paths, so the charset is kept
// strict.
func validateImageID(fl validator.FieldLevel) bool {
	return IsValidImageID(fl.Field().String())
}

// IsValidImageID reports whether a bare id is safe to interpolate into an
// upstream request path.
func IsValidImageID(id string) bool {
	if len(id) == 0 || len(id) > 128 {
		return false
	}
	return imageIDPattern.MatchString(id)
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param() + " characters"
	case "max":
		return e.Field() + " must be at most " + e.Param() + " characters"
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	case "imageid":
		return e.Field() + " must be 1-128 characters of letters, numbers, dots, colons, underscores, or hyphens"
	default:
		return e.Field() + " is invalid"
	}
}

package story

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is a singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	// Register custom validation for non-empty trimmed strings
	_ = validate.RegisterValidation("nonblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

// ValidationError provides structured error information for schema validation failures
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// ValidationResult contains the result of schema validation
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// ErrorSummary returns a single string summarizing all validation errors
func (r ValidationResult) ErrorSummary() string {
	if r.Valid {
		return ""
	}
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, e.Message)
	}
	return strings.Join(parts, "; ")
}

// Err returns nil for a valid result and an error carrying the summary otherwise.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return errors.New(r.ErrorSummary())
}

// Validate checks the candidate against the schema rules.
func (c *Candidate) Validate() ValidationResult {
	return validateStruct(c)
}

// Validate checks the candidate list, including every element.
func (l *CandidateList) Validate() ValidationResult {
	return validateStruct(l)
}

// Validate checks the refinement response.
func (d *Details) Validate() ValidationResult {
	return validateStruct(d)
}

// Validate checks the story against the schema rules.
func (s *UserStory) Validate() ValidationResult {
	return validateStruct(s)
}

// Validatable is implemented by every structured model response.
type Validatable interface {
	Validate() ValidationResult
}

// validateStruct is a helper that validates any struct and returns ValidationResult
func validateStruct(s any) ValidationResult {
	err := validate.Struct(s)
	if err == nil {
		return ValidationResult{Valid: true}
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return ValidationResult{
			Valid:  false,
			Errors: []ValidationError{{Tag: "invalid", Message: err.Error()}},
		}
	}

	result := ValidationResult{Valid: false}
	for _, fe := range fieldErrs {
		result.Errors = append(result.Errors, ValidationError{
			Field:   fe.Namespace(),
			Tag:     fe.Tag(),
			Message: formatValidationError(fe),
		})
	}
	return result
}

// formatValidationError creates a human-readable error message
func formatValidationError(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", err.Namespace())
	case "nonblank":
		return fmt.Sprintf("%s cannot be empty or whitespace", err.Namespace())
	default:
		return fmt.Sprintf("%s failed validation: %s", err.Namespace(), err.Tag())
	}
}

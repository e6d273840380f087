package validator

import (
	"github.com/SAP-F-2025/quiz-builder/internal/errors"
)

// Use shared validation errors from errors package
type ValidationError = errors.ValidationError
type ValidationErrors = errors.ValidationErrors

// ToValidationErrors converts validator.ValidationErrors to our custom type
func ToValidationErrors(err error) ValidationErrors {
	return errors.ToValidationErrors(err)
}

// ruleFailure wraps a single failed rule as ValidationErrors
func ruleFailure(field, message, rule string, value interface{}) ValidationErrors {
	return ValidationErrors{*errors.NewValidationErrorWithRule(field, message, rule, value)}
}

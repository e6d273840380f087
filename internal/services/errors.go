package services

import (
	"errors"
	"fmt"

	apperrors "github.com/SAP-F-2025/quiz-builder/internal/errors"
	"github.com/SAP-F-2025/quiz-builder/internal/repositories"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")

	// Session errors
	ErrSessionNotFound = errors.New("editor session not found")

	// Editing errors
	ErrQuestionNotFound     = errors.New("question not found")
	ErrAnswerNotFound       = errors.New("answer not found")
	ErrQuestionInvalidType  = errors.New("invalid question type")
	ErrConfirmationDeclined = errors.New("action was not confirmed")
	ErrAnswersNotSupported  = errors.New("question type does not take custom answers")
	ErrMinimumAnswers       = errors.New("a multiple choice question needs at least two answers")

	// Generation errors
	ErrGenerationUnavailable = errors.New("question generation is not configured")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type BusinessRuleError struct {
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
	Err     error                  `json:"-"`
}

func (bre *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation (%s): %s", bre.Rule, bre.Message)
}

func (bre *BusinessRuleError) Unwrap() error {
	return bre.Err
}

// PersistenceError reports a remote write that failed. Writes that completed
// before it are kept; the local state is not rolled back.
type PersistenceError struct {
	Op      string `json:"op"`
	ItemID  string `json:"item_id"`
	Index   int    `json:"index"`
	Written int    `json:"written"` // items persisted before the failure
	Err     error  `json:"-"`
}

func (pe *PersistenceError) Error() string {
	if pe.ItemID == "" {
		return fmt.Sprintf("%s failed: %v", pe.Op, pe.Err)
	}
	return fmt.Sprintf("%s failed for %s at position %d: %v", pe.Op, pe.ItemID, pe.Index, pe.Err)
}

func (pe *PersistenceError) Unwrap() error {
	return pe.Err
}

// ===== ERROR HELPERS =====

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

// NewBusinessRuleError names the rule err violates; err stays matchable
// with errors.Is
func NewBusinessRuleError(rule string, err error, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: err.Error(),
		Context: context,
		Err:     err,
	}
}

func newPersistenceError(op, itemID string, index, written int, err error) *PersistenceError {
	return &PersistenceError{
		Op:      op,
		ItemID:  itemID,
		Index:   index,
		Written: written,
		Err:     err,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrAnswerNotFound) ||
		errors.Is(err, repositories.ErrNotFound)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

// IsBusinessRule checks if error represents a business rule violation
func IsBusinessRule(err error) bool {
	var bre *BusinessRuleError
	return errors.As(err, &bre) ||
		errors.Is(err, ErrMinimumAnswers) ||
		errors.Is(err, ErrAnswersNotSupported)
}

// IsPersistence checks if error represents a failed remote write
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

// IsDeclined checks if the user declined a destructive action
func IsDeclined(err error) bool {
	return errors.Is(err, ErrConfirmationDeclined)
}

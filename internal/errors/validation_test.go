package errors

import (
	"testing"

	"github.com/go-playground/validator/v10"
)

func TestValidationError(t *testing.T) {
	// Test NewValidationError
	err := NewValidationError("test_field", "test message", "test_value")

	if err.Field != "test_field" {
		t.Errorf("Expected field to be 'test_field', got '%s'", err.Field)
	}

	if err.Message != "test message" {
		t.Errorf("Expected message to be 'test message', got '%s'", err.Message)
	}

	if err.Value != "test_value" {
		t.Errorf("Expected value to be 'test_value', got '%v'", err.Value)
	}

	// Test Error method
	expected := "validation error on field 'test_field': test message"
	if err.Error() != expected {
		t.Errorf("Expected error message to be '%s', got '%s'", expected, err.Error())
	}
}

func TestValidationErrors(t *testing.T) {
	// Test empty ValidationErrors
	var errs ValidationErrors
	if errs.Error() != "validation failed" {
		t.Errorf("Expected 'validation failed' for empty errors, got '%s'", errs.Error())
	}

	// Test single ValidationError
	errs = append(errs, *NewValidationError("field1", "message1", nil))
	expected := "validation failed: field1 message1"
	if errs.Error() != expected {
		t.Errorf("Expected '%s' for single error, got '%s'", expected, errs.Error())
	}

	// Test multiple ValidationErrors
	errs = append(errs, *NewValidationError("field2", "message2", nil))
	expected = "validation failed: 2 field errors"
	if errs.Error() != expected {
		t.Errorf("Expected '%s' for multiple errors, got '%s'", expected, errs.Error())
	}
}

func TestNewValidationErrorWithRule(t *testing.T) {
	err := NewValidationErrorWithRule("test_field", "test message", "required", "test_value")

	if err.Rule != "required" {
		t.Errorf("Expected rule to be 'required', got '%s'", err.Rule)
	}

	if err.Field != "test_field" {
		t.Errorf("Expected field to be 'test_field', got '%s'", err.Field)
	}
}

func TestToValidationErrors_IgnoresForeignErrors(t *testing.T) {
	errs := ToValidationErrors(NewValidationError("title", "quiz title is required", ""))
	if len(errs) != 0 {
		t.Errorf("Expected no converted errors, got %d", len(errs))
	}
}

func TestToValidationErrors_Messages(t *testing.T) {
	v := validator.New()
	if err := v.RegisterValidation("question_count", func(validator.FieldLevel) bool { return false }); err != nil {
		t.Fatalf("Failed to register validation: %v", err)
	}

	type input struct {
		Title     string `validate:"required"`
		Questions int    `validate:"question_count"`
	}

	errs := ToValidationErrors(v.Struct(input{}))
	if len(errs) != 2 {
		t.Fatalf("Expected 2 converted errors, got %d", len(errs))
	}
	if errs[0].Message != "is required" {
		t.Errorf("Expected 'is required', got '%s'", errs[0].Message)
	}
	// rules without a dedicated message use the generic one
	expected := "validation failed for rule 'question_count'"
	if errs[1].Message != expected {
		t.Errorf("Expected '%s', got '%s'", expected, errs[1].Message)
	}
	if errs[1].Rule != "question_count" {
		t.Errorf("Expected rule 'question_count', got '%s'", errs[1].Rule)
	}
}

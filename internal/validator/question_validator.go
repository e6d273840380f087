package validator

import (
	"fmt"
	"strings"

	"github.com/SAP-F-2025/quiz-builder/internal/models"
	"github.com/go-playground/validator/v10"
)

// QuestionValidator checks questions that arrive from outside the editor
// (the generator or a spreadsheet) before they are merged into a quiz.
type QuestionValidator struct {
	structValidator *validator.Validate
}

// NewQuestionValidator creates a new question validator
func NewQuestionValidator(structValidator *validator.Validate) *QuestionValidator {
	return &QuestionValidator{structValidator: structValidator}
}

// ValidateGenerated validates a proposed question against the shape its
// type requires.
func (v *QuestionValidator) ValidateGenerated(question *models.GeneratedQuestion) error {
	if question == nil {
		return fmt.Errorf("question cannot be nil")
	}

	if err := v.structValidator.Struct(question); err != nil {
		if errs := ToValidationErrors(err); len(errs) > 0 {
			return errs
		}
		return fmt.Errorf("failed to validate question: %w", err)
	}

	switch question.QuestionType {
	case models.MultipleChoice:
		return v.validateMultipleChoice(question)
	case models.TrueFalse:
		return v.validateTrueFalse(question)
	case models.ShortAnswer:
		return v.validateShortAnswer(question)
	default:
		return ruleFailure("question_type", "unsupported question type", "question_type", question.QuestionType)
	}
}

// ValidateBatch validates every question and reports the first failure with
// its position.
func (v *QuestionValidator) ValidateBatch(questions []models.GeneratedQuestion) error {
	if len(questions) == 0 {
		return ruleFailure("questions", "question batch cannot be empty", RuleQuestionCount, 0)
	}

	for i := range questions {
		if err := v.ValidateGenerated(&questions[i]); err != nil {
			return fmt.Errorf("validation failed for question %d: %w", i+1, err)
		}
	}

	return nil
}

// CorrectOptionIndexes returns the positions of the options that are correct.
// Options flagged is_correct win; otherwise correct_answer is matched against
// the option texts.
func CorrectOptionIndexes(question *models.GeneratedQuestion) []int {
	var indexes []int
	for i, option := range question.Options {
		if option.IsCorrect {
			indexes = append(indexes, i)
		}
	}
	if len(indexes) > 0 {
		return indexes
	}

	expected := strings.TrimSpace(question.CorrectAnswer)
	if expected == "" {
		return nil
	}
	for i, option := range question.Options {
		if strings.EqualFold(strings.TrimSpace(option.Text), expected) {
			return []int{i}
		}
	}
	return nil
}

// TrueFalseValue resolves which side of a true/false question is correct.
func TrueFalseValue(question *models.GeneratedQuestion) (bool, bool) {
	if value, ok := parseTruth(question.CorrectAnswer); ok {
		return value, true
	}
	for _, option := range question.Options {
		if option.IsCorrect {
			return parseTruth(option.Text)
		}
	}
	return false, false
}

func parseTruth(value string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "waar", "yes", "ja", "1":
		return true, true
	case "false", "onwaar", "no", "nee", "0":
		return false, true
	default:
		return false, false
	}
}

// Private validation methods for each question type

func (v *QuestionValidator) validateMultipleChoice(question *models.GeneratedQuestion) error {
	if len(question.Options) < models.MinChoiceAnswers {
		return ruleFailure("options", fmt.Sprintf("must have at least %d options", models.MinChoiceAnswers), "min_options", len(question.Options))
	}

	seen := make(map[string]bool, len(question.Options))
	for _, option := range question.Options {
		key := strings.ToLower(strings.TrimSpace(option.Text))
		if seen[key] {
			return ruleFailure("options", "option texts must be unique", "unique_options", option.Text)
		}
		seen[key] = true
	}

	if len(CorrectOptionIndexes(question)) == 0 {
		return ruleFailure("correct_answer", "correct answer does not match any option", RuleCorrectAnswer, question.CorrectAnswer)
	}

	return nil
}

func (v *QuestionValidator) validateTrueFalse(question *models.GeneratedQuestion) error {
	if _, ok := TrueFalseValue(question); !ok {
		return ruleFailure("correct_answer", "correct answer must be true or false", RuleCorrectAnswer, question.CorrectAnswer)
	}
	return nil
}

func (v *QuestionValidator) validateShortAnswer(question *models.GeneratedQuestion) error {
	if len(question.Options) > 0 {
		return ruleFailure("options", "short answer questions take no options", "no_options", len(question.Options))
	}
	return nil
}

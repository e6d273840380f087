package validator

import (
	"fmt"
	"strings"

	"github.com/SAP-F-2025/quiz-builder/internal/models"
	"github.com/go-playground/validator/v10"
)

// Rule names reported on save-time failures
const (
	RuleQuizTitle     = "quiz_title"
	RuleQuestionCount = "question_count"
	RuleQuestionText  = "question_text"
	RuleCorrectAnswer = "correct_answer"
)

// QuizValidator runs the save-time checks. The rules are evaluated in a
// fixed order and stop at the first failure so the author sees one actionable
// message at a time.
type QuizValidator struct {
	structValidator *validator.Validate
}

// NewQuizValidator creates a quiz validator sharing the given struct validator
func NewQuizValidator(structValidator *validator.Validate) *QuizValidator {
	return &QuizValidator{structValidator: structValidator}
}

// Validate returns nil when the quiz may be persisted, otherwise
// ValidationErrors describing the first failing rule.
func (v *QuizValidator) Validate(quiz *models.Quiz) error {
	if quiz == nil {
		return ruleFailure("quiz", "quiz is required", RuleQuizTitle, nil)
	}

	if strings.TrimSpace(quiz.Title) == "" {
		return ruleFailure("title", "quiz title is required", RuleQuizTitle, quiz.Title)
	}

	if len(quiz.Questions) == 0 {
		return ruleFailure("questions", "add at least one question", RuleQuestionCount, 0)
	}

	for i := range quiz.Questions {
		if strings.TrimSpace(quiz.Questions[i].Text) == "" {
			return ruleFailure(
				fmt.Sprintf("questions[%d].text", i),
				fmt.Sprintf("question %d has no text", i+1),
				RuleQuestionText,
				quiz.Questions[i].Text,
			)
		}
	}

	for i := range quiz.Questions {
		question := &quiz.Questions[i]
		if question.Type == models.ShortAnswer {
			continue
		}
		if question.CorrectCount() == 0 {
			return ruleFailure(
				fmt.Sprintf("questions[%d].answers", i),
				fmt.Sprintf("question %q has no correct answer", question.Text),
				RuleCorrectAnswer,
				question.Text,
			)
		}
	}

	// Field-level constraints come last so the rules above keep priority
	if err := v.structValidator.Struct(quiz); err != nil {
		if errs := ToValidationErrors(err); len(errs) > 0 {
			return errs
		}
		return fmt.Errorf("failed to validate quiz: %w", err)
	}

	return nil
}

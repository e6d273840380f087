package validator

import (
	"reflect"
	"strings"

	"github.com/SAP-F-2025/quiz-builder/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validator combines struct-tag validation with the quiz and question rules
type Validator struct {
	structValidator   *validator.Validate
	quizValidator     *QuizValidator
	questionValidator *QuestionValidator
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()

	// Register all custom validators once
	RegisterCustomValidators(structValidator)

	return &Validator{
		structValidator:   structValidator,
		quizValidator:     NewQuizValidator(structValidator),
		questionValidator: NewQuestionValidator(structValidator),
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	if err := v.structValidator.Struct(s); err != nil {
		if errs := ToValidationErrors(err); len(errs) > 0 {
			return errs
		}
		return err
	}
	return nil
}

// Quiz returns the save-time quiz validator
func (v *Validator) Quiz() *QuizValidator {
	return v.quizValidator
}

// Question returns the validator for generated and imported questions
func (v *Validator) Question() *QuestionValidator {
	return v.questionValidator
}

// RegisterCustomValidators registers the domain tags on validate. It is also
// applied to gin's binding engine so request structs share the same tags.
func RegisterCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("question_type", validateQuestionType)
	validate.RegisterValidation("difficulty_level", validateDifficultyLevel)

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateQuestionType(fl validator.FieldLevel) bool {
	return models.QuestionType(fl.Field().String()).IsValid()
}

func validateDifficultyLevel(fl validator.FieldLevel) bool {
	validLevels := []models.DifficultyLevel{
		models.DifficultyEasy,
		models.DifficultyMedium,
		models.DifficultyHard,
	}

	value := fl.Field().String()
	for _, validLevel := range validLevels {
		if string(validLevel) == value {
			return true
		}
	}
	return false
}

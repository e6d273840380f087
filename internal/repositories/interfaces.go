package repositories

import (
	"context"
	"errors"

	"github.com/SAP-F-2025/quiz-builder/internal/models"
)

// ErrNotFound is wrapped by every repository when the addressed row does not exist
var ErrNotFound = errors.New("record not found")

// ===== SHARED HELPER STRUCTS =====

// ItemOrder is the position of one item in an ordered collection
type ItemOrder struct {
	ID    uint `json:"id" binding:"required"`
	Order int  `json:"order" binding:"min=0"`
}

// OptionInput is one answer option of a question write
type OptionInput struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// CreateQuestionInput is the create-question contract. CorrectAnswer carries
// the text of the first correct option and is empty for short answers.
type CreateQuestionInput struct {
	QuizID        uint                   `json:"quiz_id"`
	QuestionText  string                 `json:"question_text"`
	QuestionType  models.QuestionType    `json:"question_type"`
	Options       []OptionInput          `json:"options"`
	CorrectAnswer string                 `json:"correct_answer"`
	Explanation   string                 `json:"explanation"`
	Difficulty    models.DifficultyLevel `json:"difficulty"`
	Points        int                    `json:"points"`
	Order         int                    `json:"order"`
}

// UpdateQuestionInput replaces every editable field, options included
type UpdateQuestionInput struct {
	QuestionText  string                 `json:"question_text"`
	QuestionType  models.QuestionType    `json:"question_type"`
	Options       []OptionInput          `json:"options"`
	CorrectAnswer string                 `json:"correct_answer"`
	Explanation   string                 `json:"explanation"`
	Difficulty    models.DifficultyLevel `json:"difficulty"`
	Points        int                    `json:"points"`
	Order         int                    `json:"order"`
}

// ===== ORDER =====

// OrderWriter persists the position of a single item. There is no call that
// sets a whole ordering at once; callers write one item at a time.
type OrderWriter interface {
	UpdateOrder(ctx context.Context, order ItemOrder) error
}

// ===== AGGREGATE =====

// Repository groups the stores the quiz builder talks to
type Repository interface {
	Quiz() QuizRepository
	Question() QuestionRepository
	Answer() AnswerRepository

	// Order returns the position writer for a collection
	Order(collection models.Collection) (OrderWriter, error)
}

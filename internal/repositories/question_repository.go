package repositories

import (
	"context"

	"github.com/SAP-F-2025/quiz-builder/internal/models"
)

// QuestionRepository interface for question-specific operations
type QuestionRepository interface {
	OrderWriter

	// Create stores the question with its options. The returned record
	// carries the answers in input order.
	Create(ctx context.Context, input *CreateQuestionInput) (*models.QuestionRecord, error)
	Update(ctx context.Context, id uint, input *UpdateQuestionInput) (*models.QuestionRecord, error)
	Delete(ctx context.Context, id uint) error
}

// AnswerRepository interface for single-answer operations
type AnswerRepository interface {
	OrderWriter

	Delete(ctx context.Context, id uint) error
}

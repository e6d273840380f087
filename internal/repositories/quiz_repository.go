package repositories

import (
	"context"

	"github.com/SAP-F-2025/quiz-builder/internal/models"
)

// QuizRepository interface for quiz-level operations
type QuizRepository interface {
	Create(ctx context.Context, quiz *models.QuizRecord) error
	Update(ctx context.Context, quiz *models.QuizRecord) error
	GetByID(ctx context.Context, id uint) (*models.QuizRecord, error)
	// GetWithQuestions loads the quiz with ordered questions and answers
	GetWithQuestions(ctx context.Context, id uint) (*models.QuizRecord, error)
}

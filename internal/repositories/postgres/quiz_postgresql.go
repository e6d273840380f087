package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/SAP-F-2025/quiz-builder/internal/cache"
	"github.com/SAP-F-2025/quiz-builder/internal/models"
	"github.com/SAP-F-2025/quiz-builder/internal/repositories"
	"gorm.io/gorm"
)

type QuizPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewQuizPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.QuizRepository {
	return &QuizPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

// Create creates a new quiz row
func (q *QuizPostgreSQL) Create(ctx context.Context, quiz *models.QuizRecord) error {
	if err := q.db.WithContext(ctx).Omit("Questions").Create(quiz).Error; err != nil {
		return fmt.Errorf("failed to create quiz: %w", err)
	}
	return nil
}

// Update overwrites the quiz-level fields
func (q *QuizPostgreSQL) Update(ctx context.Context, quiz *models.QuizRecord) error {
	result := q.db.WithContext(ctx).
		Model(&models.QuizRecord{}).
		Where("id = ?", quiz.ID).
		Select("title", "description", "passing_score", "settings").
		Updates(quiz)

	if result.Error != nil {
		return fmt.Errorf("failed to update quiz %d: %w", quiz.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("quiz %d: %w", quiz.ID, repositories.ErrNotFound)
	}
	return nil
}

// GetByID retrieves a quiz without its questions
func (q *QuizPostgreSQL) GetByID(ctx context.Context, id uint) (*models.QuizRecord, error) {
	var quiz models.QuizRecord
	if err := q.db.WithContext(ctx).First(&quiz, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("quiz %d: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	return &quiz, nil
}

// GetWithQuestions retrieves a quiz with its ordered questions and answers
func (q *QuizPostgreSQL) GetWithQuestions(ctx context.Context, id uint) (*models.QuizRecord, error) {
	quiz, err := q.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var questions []models.QuestionRecord
	key := cache.QuizQuestionsKey(id)
	if !q.cacheManager.Load(ctx, key, &questions) {
		if err := q.db.WithContext(ctx).
			Where("quiz_id = ?", id).
			Preload("Answers", orderedAnswers).
			Order("order_index ASC, id ASC").
			Find(&questions).Error; err != nil {
			return nil, fmt.Errorf("failed to get questions for quiz %d: %w", id, err)
		}
		q.cacheManager.Store(ctx, key, questions)
	}

	quiz.Questions = questions
	return quiz, nil
}

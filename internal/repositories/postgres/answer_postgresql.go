package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/quiz-builder/internal/cache"
	"github.com/SAP-F-2025/quiz-builder/internal/models"
	"github.com/SAP-F-2025/quiz-builder/internal/repositories"
	"gorm.io/gorm"
)

type AnswerPostgreSQL struct {
	db           *gorm.DB
	orders       *OrderPostgreSQL
	cacheManager *cache.CacheManager
}

func NewAnswerPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.AnswerRepository {
	return &AnswerPostgreSQL{
		db:           db,
		orders:       NewOrderPostgreSQL(db, &models.AnswerRecord{}),
		cacheManager: cacheManager,
	}
}

// quizOf returns the quiz owning an answer, zero when unknown
func (a *AnswerPostgreSQL) quizOf(ctx context.Context, answerID uint) uint {
	var quizID uint
	a.db.WithContext(ctx).
		Table("quiz_answers").
		Select("quiz_questions.quiz_id").
		Joins("JOIN quiz_questions ON quiz_questions.id = quiz_answers.question_id").
		Where("quiz_answers.id = ?", answerID).
		Scan(&quizID)
	return quizID
}

// Delete removes a single answer
func (a *AnswerPostgreSQL) Delete(ctx context.Context, id uint) error {
	quizID := a.quizOf(ctx, id)

	result := a.db.WithContext(ctx).Delete(&models.AnswerRecord{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete answer %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("answer %d: %w", id, repositories.ErrNotFound)
	}

	a.invalidateQuiz(ctx, quizID)
	return nil
}

// UpdateOrder writes the position of one answer
func (a *AnswerPostgreSQL) UpdateOrder(ctx context.Context, order repositories.ItemOrder) error {
	if err := a.orders.UpdateOrder(ctx, order); err != nil {
		return err
	}
	a.invalidateQuiz(ctx, a.quizOf(ctx, order.ID))
	return nil
}

// invalidateQuiz drops the cached question list of quizID, or every list
// when the owning quiz could not be resolved
func (a *AnswerPostgreSQL) invalidateQuiz(ctx context.Context, quizID uint) {
	if quizID == 0 {
		a.cacheManager.InvalidateAllQuizzes(ctx)
		return
	}
	a.cacheManager.Invalidate(ctx, cache.QuizQuestionsKey(quizID))
}

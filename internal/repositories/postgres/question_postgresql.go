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

type QuestionPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewQuestionPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.QuestionRepository {
	return &QuestionPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

func orderedAnswers(db *gorm.DB) *gorm.DB {
	return db.Order("order_index ASC, id ASC")
}

func answerRecords(questionID uint, options []repositories.OptionInput) []models.AnswerRecord {
	answers := make([]models.AnswerRecord, len(options))
	for i, option := range options {
		answers[i] = models.AnswerRecord{
			QuestionID: questionID,
			Text:       option.Text,
			IsCorrect:  option.IsCorrect,
			OrderIndex: i,
		}
	}
	return answers
}

// ===== BASIC OPERATIONS =====

// Create stores a question and its options in one transaction
func (qr *QuestionPostgreSQL) Create(ctx context.Context, input *repositories.CreateQuestionInput) (*models.QuestionRecord, error) {
	question := &models.QuestionRecord{
		QuizID:        input.QuizID,
		QuestionText:  input.QuestionText,
		QuestionType:  input.QuestionType,
		CorrectAnswer: input.CorrectAnswer,
		Explanation:   input.Explanation,
		Difficulty:    input.Difficulty,
		Points:        input.Points,
		OrderIndex:    input.Order,
	}

	err := qr.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Answers").Create(question).Error; err != nil {
			return fmt.Errorf("failed to create question: %w", err)
		}
		if len(input.Options) == 0 {
			question.Answers = []models.AnswerRecord{}
			return nil
		}
		answers := answerRecords(question.ID, input.Options)
		if err := tx.Create(&answers).Error; err != nil {
			return fmt.Errorf("failed to create answers: %w", err)
		}
		question.Answers = answers
		return nil
	})
	if err != nil {
		return nil, err
	}

	qr.cacheManager.Invalidate(ctx, cache.QuizQuestionsKey(input.QuizID))
	return question, nil
}

// Update overwrites a question and replaces its options
func (qr *QuestionPostgreSQL) Update(ctx context.Context, id uint, input *repositories.UpdateQuestionInput) (*models.QuestionRecord, error) {
	var question models.QuestionRecord

	err := qr.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&question, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("question %d: %w", id, repositories.ErrNotFound)
			}
			return fmt.Errorf("failed to get question: %w", err)
		}

		question.QuestionText = input.QuestionText
		question.QuestionType = input.QuestionType
		question.CorrectAnswer = input.CorrectAnswer
		question.Explanation = input.Explanation
		question.Difficulty = input.Difficulty
		question.Points = input.Points
		question.OrderIndex = input.Order

		if err := tx.Omit("Answers").Save(&question).Error; err != nil {
			return fmt.Errorf("failed to update question: %w", err)
		}

		if err := tx.Where("question_id = ?", id).Delete(&models.AnswerRecord{}).Error; err != nil {
			return fmt.Errorf("failed to clear answers: %w", err)
		}
		question.Answers = []models.AnswerRecord{}
		if len(input.Options) == 0 {
			return nil
		}
		answers := answerRecords(id, input.Options)
		if err := tx.Create(&answers).Error; err != nil {
			return fmt.Errorf("failed to create answers: %w", err)
		}
		question.Answers = answers
		return nil
	})
	if err != nil {
		return nil, err
	}

	qr.cacheManager.Invalidate(ctx, cache.QuizQuestionsKey(question.QuizID))
	return &question, nil
}

// Delete removes a question and its answers
func (qr *QuestionPostgreSQL) Delete(ctx context.Context, id uint) error {
	var quizID uint
	err := qr.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var question models.QuestionRecord
		if err := tx.Select("id", "quiz_id").First(&question, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("question %d: %w", id, repositories.ErrNotFound)
			}
			return fmt.Errorf("failed to get question: %w", err)
		}
		quizID = question.QuizID

		if err := tx.Where("question_id = ?", id).Delete(&models.AnswerRecord{}).Error; err != nil {
			return fmt.Errorf("failed to delete answers: %w", err)
		}
		if err := tx.Delete(&models.QuestionRecord{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete question: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	qr.cacheManager.Invalidate(ctx, cache.QuizQuestionsKey(quizID))
	return nil
}

// ===== ORDER MANAGEMENT =====

// UpdateOrder writes the position of one question
func (qr *QuestionPostgreSQL) UpdateOrder(ctx context.Context, order repositories.ItemOrder) error {
	var question models.QuestionRecord
	if err := qr.db.WithContext(ctx).Select("id", "quiz_id").First(&question, order.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("question %d: %w", order.ID, repositories.ErrNotFound)
		}
		return fmt.Errorf("failed to get question: %w", err)
	}

	if err := qr.db.WithContext(ctx).
		Model(&models.QuestionRecord{}).
		Where("id = ?", order.ID).
		Update("order_index", order.Order).Error; err != nil {
		return fmt.Errorf("failed to update order for question %d: %w", order.ID, err)
	}

	qr.cacheManager.Invalidate(ctx, cache.QuizQuestionsKey(question.QuizID))
	return nil
}

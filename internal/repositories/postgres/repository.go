package postgres

import (
	"fmt"

	"github.com/SAP-F-2025/quiz-builder/internal/cache"
	"github.com/SAP-F-2025/quiz-builder/internal/models"
	"github.com/SAP-F-2025/quiz-builder/internal/repositories"
	"gorm.io/gorm"
)

type repository struct {
	db       *gorm.DB
	quiz     repositories.QuizRepository
	question repositories.QuestionRepository
	answer   repositories.AnswerRepository
}

// NewRepository wires every gorm-backed store. cacheManager may be nil.
func NewRepository(db *gorm.DB, cacheManager *cache.CacheManager) repositories.Repository {
	return &repository{
		db:       db,
		quiz:     NewQuizPostgreSQL(db, cacheManager),
		question: NewQuestionPostgreSQL(db, cacheManager),
		answer:   NewAnswerPostgreSQL(db, cacheManager),
	}
}

func (r *repository) Quiz() repositories.QuizRepository         { return r.quiz }
func (r *repository) Question() repositories.QuestionRepository { return r.question }
func (r *repository) Answer() repositories.AnswerRepository     { return r.answer }

// Order returns the position writer for a collection
func (r *repository) Order(collection models.Collection) (repositories.OrderWriter, error) {
	switch collection {
	case models.CollectionQuestions:
		return r.question, nil
	case models.CollectionAnswers:
		return r.answer, nil
	}
	model := collection.Model()
	if model == nil {
		return nil, fmt.Errorf("unknown collection %q", collection)
	}
	return NewOrderPostgreSQL(r.db, model), nil
}

// Migrate creates or updates the tables the quiz builder writes
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.QuizRecord{},
		&models.QuestionRecord{},
		&models.AnswerRecord{},
		&models.CourseRecord{},
		&models.ModuleRecord{},
		&models.LessonRecord{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

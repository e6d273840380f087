package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/SAP-F-2025/quiz-builder/internal/events"
	"github.com/SAP-F-2025/quiz-builder/internal/models"
	"github.com/SAP-F-2025/quiz-builder/internal/repositories"
	"gorm.io/datatypes"
)

// Synchronizer pushes editor state to the store. Every remote call is a
// single request; order changes are written one item at a time and nothing
// is rolled back when a write fails.
type Synchronizer struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *ServiceLogger
}

func NewSynchronizer(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger) *Synchronizer {
	return &Synchronizer{
		repo:      repo,
		publisher: publisher,
		logger:    NewServiceLogger(logger, LogConfig{Component: "synchronizer"}),
	}
}

// ===== ORDER =====

// PersistOrder writes each position in turn, waiting for every write before
// issuing the next. The first failure stops the pass; positions already
// written stay written.
func (s *Synchronizer) PersistOrder(ctx context.Context, collection models.Collection, writer repositories.OrderWriter, orders []repositories.ItemOrder) error {
	if len(orders) == 0 {
		return nil
	}
	op := s.logger.WithOperation(ctx, "persist_order")

	for i, order := range orders {
		if err := writer.UpdateOrder(ctx, order); err != nil {
			persistErr := newPersistenceError(
				fmt.Sprintf("update %s order", collection),
				strconv.FormatUint(uint64(order.ID), 10),
				i, i, err,
			)
			s.publish(ctx, events.NewCollectionReorderFailedEvent(string(collection), order.ID, i, i, err))
			op.LogResult(string(collection), persistErr)
			return persistErr
		}
	}

	ids := make([]uint, len(orders))
	for i, order := range orders {
		ids[i] = order.ID
	}
	s.publish(ctx, events.NewCollectionReorderedEvent(string(collection), ids))
	op.LogResult(string(collection), nil)
	return nil
}

// PersistCollectionOrder writes positions for any ordered collection
func (s *Synchronizer) PersistCollectionOrder(ctx context.Context, collection models.Collection, orders []repositories.ItemOrder) error {
	writer, err := s.repo.Order(collection)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return s.PersistOrder(ctx, collection, writer, orders)
}

// ===== SINGLE REQUESTS =====

// SaveQuiz creates the quiz row when quizID is zero and updates it otherwise.
// It returns the quiz id and whether it was created.
func (s *Synchronizer) SaveQuiz(ctx context.Context, quizID uint, quiz *models.Quiz) (uint, bool, error) {
	settings, err := json.Marshal(models.QuizSettings{
		TimeLimitMinutes:   quiz.TimeLimitMinutes,
		AllowRetakes:       quiz.AllowRetakes,
		ShowCorrectAnswers: quiz.ShowCorrectAnswers,
	})
	if err != nil {
		return 0, false, fmt.Errorf("failed to encode quiz settings: %w", err)
	}

	record := &models.QuizRecord{
		ID:           quizID,
		Title:        strings.TrimSpace(quiz.Title),
		Description:  quiz.Description,
		PassingScore: quiz.PassingScore,
		Settings:     datatypes.JSON(settings),
	}

	if quizID == 0 {
		if err := s.repo.Quiz().Create(ctx, record); err != nil {
			return 0, false, newPersistenceError("create quiz", "", 0, 0, err)
		}
		return record.ID, true, nil
	}

	if err := s.repo.Quiz().Update(ctx, record); err != nil {
		return 0, false, newPersistenceError("update quiz", strconv.FormatUint(uint64(quizID), 10), 0, 0, err)
	}
	return quizID, false, nil
}

// CreateQuestion stores a new question at the given position
func (s *Synchronizer) CreateQuestion(ctx context.Context, quizID uint, question models.Question, order int) (*models.QuestionRecord, error) {
	options, correct := questionOptions(question)
	record, err := s.repo.Question().Create(ctx, &repositories.CreateQuestionInput{
		QuizID:        quizID,
		QuestionText:  question.Text,
		QuestionType:  question.Type,
		Options:       options,
		CorrectAnswer: correct,
		Explanation:   question.Explanation,
		Difficulty:    difficultyOrDefault(question.Difficulty),
		Points:        pointsOrDefault(question.Points),
		Order:         order,
	})
	if err != nil {
		return nil, newPersistenceError("create question", question.ID, order, 0, err)
	}
	return record, nil
}

// UpdateQuestion overwrites a stored question, options included
func (s *Synchronizer) UpdateQuestion(ctx context.Context, serverID uint, question models.Question, order int) (*models.QuestionRecord, error) {
	options, correct := questionOptions(question)
	record, err := s.repo.Question().Update(ctx, serverID, &repositories.UpdateQuestionInput{
		QuestionText:  question.Text,
		QuestionType:  question.Type,
		Options:       options,
		CorrectAnswer: correct,
		Explanation:   question.Explanation,
		Difficulty:    difficultyOrDefault(question.Difficulty),
		Points:        pointsOrDefault(question.Points),
		Order:         order,
	})
	if err != nil {
		return nil, newPersistenceError("update question", question.ID, order, 0, err)
	}
	return record, nil
}

// DeleteQuestion removes a stored question
func (s *Synchronizer) DeleteQuestion(ctx context.Context, localID string, serverID uint) error {
	if err := s.repo.Question().Delete(ctx, serverID); err != nil {
		return newPersistenceError("delete question", localID, 0, 0, err)
	}
	return nil
}

// DeleteAnswer removes a stored answer
func (s *Synchronizer) DeleteAnswer(ctx context.Context, localID string, serverID uint) error {
	if err := s.repo.Answer().Delete(ctx, serverID); err != nil {
		return newPersistenceError("delete answer", localID, 0, 0, err)
	}
	return nil
}

func (s *Synchronizer) publish(ctx context.Context, event *events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn(ctx, "Failed to publish event", "event_type", event.Type, "error", err)
	}
}

// questionOptions maps answers onto the create/update contract. The correct
// answer field carries the text of the first correct answer.
func questionOptions(question models.Question) ([]repositories.OptionInput, string) {
	if question.Type == models.ShortAnswer {
		return []repositories.OptionInput{}, ""
	}

	options := make([]repositories.OptionInput, len(question.Answers))
	correct := ""
	for i, answer := range question.Answers {
		options[i] = repositories.OptionInput{Text: answer.Text, IsCorrect: answer.IsCorrect}
		if answer.IsCorrect && correct == "" {
			correct = answer.Text
		}
	}
	return options, correct
}

func difficultyOrDefault(level models.DifficultyLevel) models.DifficultyLevel {
	if level == "" {
		return models.DifficultyMedium
	}
	return level
}

func pointsOrDefault(points int) int {
	if points < 1 {
		return models.DefaultPoints
	}
	return points
}

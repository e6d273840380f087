package services

import (
	"context"
	"log/slog"

	"github.com/SAP-F-2025/quiz-builder/internal/events"
	"github.com/SAP-F-2025/quiz-builder/internal/validator"
)

// SaveResult describes a completed save
type SaveResult struct {
	QuizID           uint `json:"quiz_id"`
	QuizCreated      bool `json:"quiz_created"`
	QuestionsCreated int  `json:"questions_created"`
	QuestionsUpdated int  `json:"questions_updated"`
}

// SaveService validates a session and writes it to the store
type SaveService struct {
	validator    *validator.QuizValidator
	synchronizer *Synchronizer
	publisher    events.EventPublisher
	logger       *ServiceLogger
}

func NewSaveService(quizValidator *validator.QuizValidator, synchronizer *Synchronizer, publisher events.EventPublisher, logger *slog.Logger) *SaveService {
	return &SaveService{
		validator:    quizValidator,
		synchronizer: synchronizer,
		publisher:    publisher,
		logger:       NewServiceLogger(logger, LogConfig{Component: "save"}),
	}
}

// Save validates the quiz and, when valid, writes the quiz row and then each
// question in order, creating new ones and updating known ones. A question's
// order index is its position. The first failed write ends the save with a
// PersistenceError; earlier writes are kept.
func (s *SaveService) Save(ctx context.Context, session *EditorSession) (*SaveResult, error) {
	op := s.logger.WithOperation(ctx, "save_quiz")
	quiz := session.Quiz()

	if err := s.validator.Validate(&quiz); err != nil {
		op.LogResult(session.ID, err)
		return nil, err
	}

	quizID, created, err := s.synchronizer.SaveQuiz(ctx, session.QuizID, &quiz)
	if err != nil {
		s.publish(ctx, events.NewQuizSaveFailedEvent(session.QuizID, quiz.Title, 0, 0, err))
		op.LogResult(session.ID, err)
		return nil, err
	}
	session.QuizID = quizID

	result := &SaveResult{QuizID: quizID, QuizCreated: created}
	for i, question := range quiz.Questions {
		serverID, known := session.ServerQuestionID(question.ID)
		if known {
			record, err := s.synchronizer.UpdateQuestion(ctx, serverID, question, i)
			if err != nil {
				return nil, s.fail(ctx, op, session, quiz.Title, i, err)
			}
			session.BindQuestion(question.ID, record)
			result.QuestionsUpdated++
			continue
		}

		record, err := s.synchronizer.CreateQuestion(ctx, quizID, question, i)
		if err != nil {
			return nil, s.fail(ctx, op, session, quiz.Title, i, err)
		}
		session.BindQuestion(question.ID, record)
		result.QuestionsCreated++
	}

	s.publish(ctx, events.NewQuizSavedEvent(quizID, quiz.Title, len(quiz.Questions), created))
	op.LogResult(session.ID, nil)
	return result, nil
}

func (s *SaveService) fail(ctx context.Context, op *ContextualLogger, session *EditorSession, title string, index int, err error) error {
	if persistErr, ok := err.(*PersistenceError); ok {
		persistErr.Written = index
	}
	s.publish(ctx, events.NewQuizSaveFailedEvent(session.QuizID, title, index, index, err))
	op.LogResult(session.ID, err)
	return err
}

func (s *SaveService) publish(ctx context.Context, event *events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn(ctx, "Failed to publish event", "event_type", event.Type, "error", err)
	}
}

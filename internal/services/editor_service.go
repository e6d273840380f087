package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/SAP-F-2025/quiz-builder/internal/models"
	"github.com/SAP-F-2025/quiz-builder/internal/reorder"
	"github.com/SAP-F-2025/quiz-builder/internal/repositories"
)

// ReorderRequest moves one question, or one answer when QuestionID is set.
// Exactly one of Event, Key or Gesture describes the move.
type ReorderRequest struct {
	QuestionID string          `json:"question_id"`
	Event      *reorder.Event  `json:"event"`
	ItemID     string          `json:"item_id"`
	Key        string          `json:"key"`
	Gesture    *PointerGesture `json:"gesture"`
}

type ReorderResult struct {
	Changed   bool     `json:"changed"`
	Order     []string `json:"order"`
	Persisted int      `json:"persisted"`
}

// CollectionReorderRequest carries the current order of a stored collection
// and the move to apply to it
type CollectionReorderRequest struct {
	IDs   []uint        `json:"ids" binding:"required,min=1,unique"`
	Event reorder.Event `json:"event" binding:"required"`
}

// EditorService is the operation surface of the quiz editor
type EditorService interface {
	// Sessions
	OpenSession(ctx context.Context, quizID *uint) (*SessionSnapshot, error)
	GetSession(ctx context.Context, sessionID string) (*SessionSnapshot, error)
	CloseSession(ctx context.Context, sessionID string) error

	// Model mutations
	UpdateQuiz(ctx context.Context, sessionID string, patch models.QuizPatch) (*SessionSnapshot, error)
	AddQuestion(ctx context.Context, sessionID string) (*models.Question, error)
	UpdateQuestion(ctx context.Context, sessionID, questionID string, patch models.QuestionPatch) (*models.Question, error)
	DeleteQuestion(ctx context.Context, sessionID, questionID string, confirmer Confirmer) error
	ChangeQuestionType(ctx context.Context, sessionID, questionID string, questionType models.QuestionType) (*models.Question, error)
	ToggleExpanded(ctx context.Context, sessionID, questionID string) (bool, error)
	AddAnswer(ctx context.Context, sessionID, questionID string) (*models.Answer, error)
	UpdateAnswer(ctx context.Context, sessionID, questionID, answerID string, patch models.AnswerPatch) (*models.Question, error)
	ToggleCorrectAnswer(ctx context.Context, sessionID, questionID, answerID string) (*models.Question, error)
	DeleteAnswer(ctx context.Context, sessionID, questionID, answerID string) error

	// Ordering
	Reorder(ctx context.Context, sessionID string, req ReorderRequest) (*ReorderResult, error)
	ReorderCollection(ctx context.Context, collection models.Collection, req CollectionReorderRequest) ([]repositories.ItemOrder, error)

	// Persistence and merging
	Save(ctx context.Context, sessionID string) (*SaveResult, error)
	Generate(ctx context.Context, sessionID string, req models.GenerationRequest) (*GenerationResult, error)
	Import(ctx context.Context, sessionID string, reader io.Reader, filename string) (*models.ImportResult, error)
	Export(ctx context.Context, sessionID, format string) ([]byte, error)
}

// Export formats; an empty format means ExportFormatExcel
const (
	ExportFormatExcel = "xlsx"
	ExportFormatCSV   = "csv"
)

type editorService struct {
	sessions     *SessionStore
	synchronizer *Synchronizer
	saver        *SaveService
	generator    *GenerationService
	importer     ImportExportService
	logger       *ServiceLogger
}

func NewEditorService(
	sessions *SessionStore,
	synchronizer *Synchronizer,
	saver *SaveService,
	generator *GenerationService,
	importer ImportExportService,
	logger *slog.Logger,
) EditorService {
	return &editorService{
		sessions:     sessions,
		synchronizer: synchronizer,
		saver:        saver,
		generator:    generator,
		importer:     importer,
		logger:       NewServiceLogger(logger, LogConfig{Component: "editor"}),
	}
}

// ===== SESSIONS =====

func (s *editorService) OpenSession(ctx context.Context, quizID *uint) (*SessionSnapshot, error) {
	session, err := s.sessions.Open(ctx, quizID)
	if err != nil {
		return nil, err
	}
	snapshot := session.Snapshot()
	return &snapshot, nil
}

func (s *editorService) GetSession(ctx context.Context, sessionID string) (*SessionSnapshot, error) {
	var snapshot SessionSnapshot
	err := s.sessions.With(sessionID, func(session *EditorSession) error {
		snapshot = session.Snapshot()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (s *editorService) CloseSession(ctx context.Context, sessionID string) error {
	return s.sessions.Close(sessionID)
}

// ===== MODEL MUTATIONS =====

func (s *editorService) UpdateQuiz(ctx context.Context, sessionID string, patch models.QuizPatch) (*SessionSnapshot, error) {
	var snapshot SessionSnapshot
	err := s.sessions.With(sessionID, func(session *EditorSession) error {
		session.UpdateQuiz(patch)
		snapshot = session.Snapshot()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (s *editorService) AddQuestion(ctx context.Context, sessionID string) (*models.Question, error) {
	var question models.Question
	err := s.sessions.With(sessionID, func(session *EditorSession) error {
		question = session.AddQuestion()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &question, nil
}

func (s *editorService) UpdateQuestion(ctx context.Context, sessionID, questionID string, patch models.QuestionPatch) (*models.Question, error) {
	return s.mutateQuestion(sessionID, questionID, func(session *EditorSession) error {
		if !session.UpdateQuestion(questionID, patch) {
			return fmt.Errorf("%w: %s", ErrQuestionNotFound, questionID)
		}
		return nil
	})
}

// DeleteQuestion removes the question locally first. A question the store
// knows is then deleted remotely; a failed remote delete is reported but the
// question stays removed from the session.
func (s *editorService) DeleteQuestion(ctx context.Context, sessionID, questionID string, confirmer Confirmer) error {
	op := s.logger.WithOperation(ctx, "delete_question")
	err := s.sessions.With(sessionID, func(session *EditorSession) error {
		serverID, stored := session.ServerQuestionID(questionID)

		removed, err := session.DeleteQuestion(ctx, questionID, confirmer)
		if err != nil {
			return err
		}
		if !stored {
			return nil
		}
		if err := s.synchronizer.DeleteQuestion(ctx, questionID, serverID); err != nil {
			return err
		}
		session.ForgetQuestion(removed)
		return nil
	})
	op.LogResult(questionID, err)
	return err
}

func (s *editorService) ChangeQuestionType(ctx context.Context, sessionID, questionID string, questionType models.QuestionType) (*models.Question, error) {
	return s.mutateQuestion(sessionID, questionID, func(session *EditorSession) error {
		return session.ChangeQuestionType(questionID, questionType)
	})
}

func (s *editorService) ToggleExpanded(ctx context.Context, sessionID, questionID string) (bool, error) {
	var expanded bool
	err := s.sessions.With(sessionID, func(session *EditorSession) error {
		if _, err := session.Question(questionID); err != nil {
			return err
		}
		expanded = session.ToggleExpanded(questionID)
		return nil
	})
	return expanded, err
}

func (s *editorService) AddAnswer(ctx context.Context, sessionID, questionID string) (*models.Answer, error) {
	var answer models.Answer
	err := s.sessions.With(sessionID, func(session *EditorSession) error {
		var err error
		answer, err = session.AddAnswer(questionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &answer, nil
}

func (s *editorService) UpdateAnswer(ctx context.Context, sessionID, questionID, answerID string, patch models.AnswerPatch) (*models.Question, error) {
	return s.mutateQuestion(sessionID, questionID, func(session *EditorSession) error {
		return session.UpdateAnswer(questionID, answerID, patch)
	})
}

func (s *editorService) ToggleCorrectAnswer(ctx context.Context, sessionID, questionID, answerID string) (*models.Question, error) {
	return s.mutateQuestion(sessionID, questionID, func(session *EditorSession) error {
		return session.ToggleCorrectAnswer(questionID, answerID)
	})
}

// DeleteAnswer removes the answer locally and, when it is stored, remotely
func (s *editorService) DeleteAnswer(ctx context.Context, sessionID, questionID, answerID string) error {
	op := s.logger.WithOperation(ctx, "delete_answer")
	err := s.sessions.With(sessionID, func(session *EditorSession) error {
		serverID, stored := session.ServerAnswerID(answerID)

		removed, err := session.DeleteAnswer(ctx, questionID, answerID)
		if err != nil {
			return err
		}
		if !stored {
			return nil
		}
		if err := s.synchronizer.DeleteAnswer(ctx, answerID, serverID); err != nil {
			return err
		}
		session.ForgetAnswer(removed)
		return nil
	})
	op.LogResult(answerID, err)
	return err
}

func (s *editorService) mutateQuestion(sessionID, questionID string, mutate func(*EditorSession) error) (*models.Question, error) {
	var question models.Question
	err := s.sessions.With(sessionID, func(session *EditorSession) error {
		if err := mutate(session); err != nil {
			return err
		}
		var err error
		question, err = session.Question(questionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &question, nil
}

// ===== ORDERING =====

// Reorder applies the move to the session at once and then writes the new
// positions of stored items one by one. When a write fails the session keeps
// the new order and the error reports how far the pass got.
func (s *editorService) Reorder(ctx context.Context, sessionID string, req ReorderRequest) (*ReorderResult, error) {
	var result ReorderResult
	err := s.sessions.With(sessionID, func(session *EditorSession) error {
		ids := session.QuestionIDs()
		if req.QuestionID != "" {
			var err error
			if ids, err = session.AnswerIDs(req.QuestionID); err != nil {
				return err
			}
		}

		ev, ok, err := resolveEvent(session, ids, req)
		if err != nil {
			return err
		}

		var (
			orders     []repositories.ItemOrder
			changed    bool
			collection = models.CollectionQuestions
		)
		if ok {
			if req.QuestionID == "" {
				orders, changed = session.ReorderQuestions(ev)
			} else {
				collection = models.CollectionAnswers
				if orders, changed, err = session.ReorderAnswers(req.QuestionID, ev); err != nil {
					return err
				}
			}
		}

		result.Changed = changed
		result.Order = session.QuestionIDs()
		if req.QuestionID != "" {
			result.Order, _ = session.AnswerIDs(req.QuestionID)
		}
		if !changed {
			return nil
		}

		if err := s.synchronizer.PersistCollectionOrder(ctx, collection, orders); err != nil {
			if persistErr, isPersist := err.(*PersistenceError); isPersist {
				result.Persisted = persistErr.Written
			}
			return err
		}
		result.Persisted = len(orders)
		return nil
	})
	if err != nil {
		return &result, err
	}
	return &result, nil
}

func resolveEvent(session *EditorSession, ids []string, req ReorderRequest) (reorder.Event, bool, error) {
	switch {
	case req.Event != nil:
		return *req.Event, !req.Event.IsNoop(), nil
	case req.Key != "":
		key, err := reorder.ParseKey(req.Key)
		if err != nil {
			return reorder.Event{}, false, fmt.Errorf("%w: %v", ErrBadRequest, err)
		}
		ev, ok := reorder.NewKeyboardAdapter().Step(ids, req.ItemID, key)
		return ev, ok, nil
	case req.Gesture != nil:
		ev, ok := session.GestureEvent(*req.Gesture)
		return ev, ok, nil
	default:
		return reorder.Event{}, false, fmt.Errorf("%w: reorder needs an event, a key or a gesture", ErrBadRequest)
	}
}

// ReorderCollection moves one item of a stored collection and writes the
// position of every item, in order
func (s *editorService) ReorderCollection(ctx context.Context, collection models.Collection, req CollectionReorderRequest) ([]repositories.ItemOrder, error) {
	idOf := func(id uint) string { return strconv.FormatUint(uint64(id), 10) }

	seen := make(map[uint]struct{}, len(req.IDs))
	for _, id := range req.IDs {
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: id %d appears more than once", ErrBadRequest, id)
		}
		seen[id] = struct{}{}
	}

	next, changed := reorder.NewEngine(idOf, nil).Apply(req.IDs, req.Event)
	if !changed {
		return []repositories.ItemOrder{}, nil
	}

	orders := make([]repositories.ItemOrder, len(next))
	for i, id := range next {
		orders[i] = repositories.ItemOrder{ID: id, Order: i}
	}
	if err := s.synchronizer.PersistCollectionOrder(ctx, collection, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// ===== PERSISTENCE AND MERGING =====

func (s *editorService) Save(ctx context.Context, sessionID string) (*SaveResult, error) {
	var result *SaveResult
	err := s.sessions.With(sessionID, func(session *EditorSession) error {
		var err error
		result, err = s.saver.Save(ctx, session)
		return err
	})
	return result, err
}

func (s *editorService) Generate(ctx context.Context, sessionID string, req models.GenerationRequest) (*GenerationResult, error) {
	var result *GenerationResult
	err := s.sessions.With(sessionID, func(session *EditorSession) error {
		var err error
		result, err = s.generator.Generate(ctx, session, req)
		return err
	})
	return result, err
}

func (s *editorService) Import(ctx context.Context, sessionID string, reader io.Reader, filename string) (*models.ImportResult, error) {
	var result *models.ImportResult
	err := s.sessions.With(sessionID, func(session *EditorSession) error {
		var err error
		result, err = s.importer.ImportQuestions(ctx, session, reader, filename)
		return err
	})
	return result, err
}

func (s *editorService) Export(ctx context.Context, sessionID, format string) ([]byte, error) {
	var export func(context.Context, *EditorSession) ([]byte, error)
	switch format {
	case "", ExportFormatExcel:
		export = s.importer.ExportQuestionsToExcel
	case ExportFormatCSV:
		export = s.importer.ExportQuestionsToCSV
	default:
		return nil, fmt.Errorf("%w: unsupported export format %q", ErrBadRequest, format)
	}

	var data []byte
	err := s.sessions.With(sessionID, func(session *EditorSession) error {
		var err error
		data, err = export(ctx, session)
		return err
	})
	return data, err
}

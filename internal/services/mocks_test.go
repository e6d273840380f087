package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/SAP-F-2025/quiz-builder/internal/models"
	"github.com/SAP-F-2025/quiz-builder/internal/repositories"
	"github.com/stretchr/testify/mock"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockQuizRepository is a mock implementation of QuizRepository
type MockQuizRepository struct {
	mock.Mock
}

func (m *MockQuizRepository) Create(ctx context.Context, quiz *models.QuizRecord) error {
	args := m.Called(ctx, quiz)
	return args.Error(0)
}

func (m *MockQuizRepository) Update(ctx context.Context, quiz *models.QuizRecord) error {
	args := m.Called(ctx, quiz)
	return args.Error(0)
}

func (m *MockQuizRepository) GetByID(ctx context.Context, id uint) (*models.QuizRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuizRecord), args.Error(1)
}

func (m *MockQuizRepository) GetWithQuestions(ctx context.Context, id uint) (*models.QuizRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuizRecord), args.Error(1)
}

// MockQuestionRepository is a mock implementation of QuestionRepository
type MockQuestionRepository struct {
	mock.Mock
}

func (m *MockQuestionRepository) UpdateOrder(ctx context.Context, order repositories.ItemOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockQuestionRepository) Create(ctx context.Context, input *repositories.CreateQuestionInput) (*models.QuestionRecord, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuestionRecord), args.Error(1)
}

func (m *MockQuestionRepository) Update(ctx context.Context, id uint, input *repositories.UpdateQuestionInput) (*models.QuestionRecord, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuestionRecord), args.Error(1)
}

func (m *MockQuestionRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockAnswerRepository is a mock implementation of AnswerRepository
type MockAnswerRepository struct {
	mock.Mock
}

func (m *MockAnswerRepository) UpdateOrder(ctx context.Context, order repositories.ItemOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockAnswerRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockOrderWriter is a mock position writer for the course hierarchy
type MockOrderWriter struct {
	mock.Mock
}

func (m *MockOrderWriter) UpdateOrder(ctx context.Context, order repositories.ItemOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

// MockRepository groups the mocks behind repositories.Repository
type MockRepository struct {
	quizzes   *MockQuizRepository
	questions *MockQuestionRepository
	answers   *MockAnswerRepository
	writers   map[models.Collection]*MockOrderWriter
}

func newMockRepository() *MockRepository {
	return &MockRepository{
		quizzes:   &MockQuizRepository{},
		questions: &MockQuestionRepository{},
		answers:   &MockAnswerRepository{},
		writers: map[models.Collection]*MockOrderWriter{
			models.CollectionCourses: {},
			models.CollectionModules: {},
			models.CollectionLessons: {},
		},
	}
}

func (m *MockRepository) Quiz() repositories.QuizRepository         { return m.quizzes }
func (m *MockRepository) Question() repositories.QuestionRepository { return m.questions }
func (m *MockRepository) Answer() repositories.AnswerRepository     { return m.answers }

func (m *MockRepository) Order(collection models.Collection) (repositories.OrderWriter, error) {
	switch collection {
	case models.CollectionQuestions:
		return m.questions, nil
	case models.CollectionAnswers:
		return m.answers, nil
	}
	if writer, ok := m.writers[collection]; ok {
		return writer, nil
	}
	return nil, fmt.Errorf("unknown collection %q", collection)
}

// orderCalls lists the UpdateOrder arguments in the order they were made
func orderCalls(m *mock.Mock) []repositories.ItemOrder {
	var out []repositories.ItemOrder
	for _, call := range m.Calls {
		if call.Method == "UpdateOrder" {
			out = append(out, call.Arguments.Get(1).(repositories.ItemOrder))
		}
	}
	return out
}

// storedQuizRecord is a saved quiz with three short answer questions A, B
// and C stored under ids 1, 2 and 3, plus one multiple choice question D
// (id 4) with answers 41 and 42.
func storedQuizRecord() *models.QuizRecord {
	return &models.QuizRecord{
		ID:           7,
		Title:        "Stored quiz",
		PassingScore: 60,
		Questions: []models.QuestionRecord{
			{ID: 1, QuestionText: "A", QuestionType: models.ShortAnswer, Points: 1, OrderIndex: 0},
			{ID: 2, QuestionText: "B", QuestionType: models.ShortAnswer, Points: 1, OrderIndex: 1},
			{ID: 3, QuestionText: "C", QuestionType: models.ShortAnswer, Points: 1, OrderIndex: 2},
			{ID: 4, QuestionText: "D", QuestionType: models.MultipleChoice, Points: 2, OrderIndex: 3, Answers: []models.AnswerRecord{
				{ID: 41, Text: "yes", IsCorrect: true},
				{ID: 42, Text: "no"},
			}},
		},
	}
}

// questionByText finds the local id of a question by its text
func questionByText(session *EditorSession, text string) string {
	for _, question := range session.Quiz().Questions {
		if question.Text == text {
			return question.ID
		}
	}
	return ""
}

func questionTexts(session *EditorSession) []string {
	quiz := session.Quiz()
	out := make([]string, len(quiz.Questions))
	for i, question := range quiz.Questions {
		out[i] = question.Text
	}
	return out
}

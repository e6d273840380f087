package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/SAP-F-2025/quiz-builder/internal/models"
	"github.com/SAP-F-2025/quiz-builder/internal/reorder"
	"github.com/SAP-F-2025/quiz-builder/internal/repositories"
	"github.com/SAP-F-2025/quiz-builder/internal/services"
	"github.com/SAP-F-2025/quiz-builder/internal/utils"
	"github.com/SAP-F-2025/quiz-builder/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockEditorService is a mock implementation of services.EditorService
type MockEditorService struct {
	mock.Mock
}

func (m *MockEditorService) OpenSession(ctx context.Context, quizID *uint) (*services.SessionSnapshot, error) {
	args := m.Called(ctx, quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SessionSnapshot), args.Error(1)
}

func (m *MockEditorService) GetSession(ctx context.Context, sessionID string) (*services.SessionSnapshot, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SessionSnapshot), args.Error(1)
}

func (m *MockEditorService) CloseSession(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

func (m *MockEditorService) UpdateQuiz(ctx context.Context, sessionID string, patch models.QuizPatch) (*services.SessionSnapshot, error) {
	args := m.Called(ctx, sessionID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SessionSnapshot), args.Error(1)
}

func (m *MockEditorService) AddQuestion(ctx context.Context, sessionID string) (*models.Question, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Question), args.Error(1)
}

func (m *MockEditorService) UpdateQuestion(ctx context.Context, sessionID, questionID string, patch models.QuestionPatch) (*models.Question, error) {
	args := m.Called(ctx, sessionID, questionID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Question), args.Error(1)
}

func (m *MockEditorService) DeleteQuestion(ctx context.Context, sessionID, questionID string, confirmer services.Confirmer) error {
	return m.Called(ctx, sessionID, questionID, confirmer).Error(0)
}

func (m *MockEditorService) ChangeQuestionType(ctx context.Context, sessionID, questionID string, questionType models.QuestionType) (*models.Question, error) {
	args := m.Called(ctx, sessionID, questionID, questionType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Question), args.Error(1)
}

func (m *MockEditorService) ToggleExpanded(ctx context.Context, sessionID, questionID string) (bool, error) {
	args := m.Called(ctx, sessionID, questionID)
	return args.Bool(0), args.Error(1)
}

func (m *MockEditorService) AddAnswer(ctx context.Context, sessionID, questionID string) (*models.Answer, error) {
	args := m.Called(ctx, sessionID, questionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Answer), args.Error(1)
}

func (m *MockEditorService) UpdateAnswer(ctx context.Context, sessionID, questionID, answerID string, patch models.AnswerPatch) (*models.Question, error) {
	args := m.Called(ctx, sessionID, questionID, answerID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Question), args.Error(1)
}

func (m *MockEditorService) ToggleCorrectAnswer(ctx context.Context, sessionID, questionID, answerID string) (*models.Question, error) {
	args := m.Called(ctx, sessionID, questionID, answerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Question), args.Error(1)
}

func (m *MockEditorService) DeleteAnswer(ctx context.Context, sessionID, questionID, answerID string) error {
	return m.Called(ctx, sessionID, questionID, answerID).Error(0)
}

func (m *MockEditorService) Reorder(ctx context.Context, sessionID string, req services.ReorderRequest) (*services.ReorderResult, error) {
	args := m.Called(ctx, sessionID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ReorderResult), args.Error(1)
}

func (m *MockEditorService) ReorderCollection(ctx context.Context, collection models.Collection, req services.CollectionReorderRequest) ([]repositories.ItemOrder, error) {
	args := m.Called(ctx, collection, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repositories.ItemOrder), args.Error(1)
}

func (m *MockEditorService) Save(ctx context.Context, sessionID string) (*services.SaveResult, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SaveResult), args.Error(1)
}

func (m *MockEditorService) Generate(ctx context.Context, sessionID string, req models.GenerationRequest) (*services.GenerationResult, error) {
	args := m.Called(ctx, sessionID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.GenerationResult), args.Error(1)
}

func (m *MockEditorService) Import(ctx context.Context, sessionID string, reader io.Reader, filename string) (*models.ImportResult, error) {
	args := m.Called(ctx, sessionID, reader, filename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ImportResult), args.Error(1)
}

func (m *MockEditorService) Export(ctx context.Context, sessionID, format string) ([]byte, error) {
	args := m.Called(ctx, sessionID, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func setupRouter(editor *MockEditorService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	RegisterBindingValidators()

	logger := utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	router := gin.New()
	NewHandlerManager(editor, validator.New(), logger).SetupRoutes(router)
	return router
}

func perform(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealthCheck(t *testing.T) {
	w := perform(setupRouter(&MockEditorService{}), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "quiz-builder")
}

func TestSessionHandler_OpenSession(t *testing.T) {
	t.Run("new session", func(t *testing.T) {
		editor := &MockEditorService{}
		editor.On("OpenSession", mock.Anything, (*uint)(nil)).
			Return(&services.SessionSnapshot{ID: "s1"}, nil)

		w := perform(setupRouter(editor), http.MethodPost, "/api/v1/sessions", "")
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"s1"`)
		editor.AssertExpectations(t)
	})

	t.Run("load stored quiz", func(t *testing.T) {
		editor := &MockEditorService{}
		editor.On("OpenSession", mock.Anything, mock.MatchedBy(func(id *uint) bool {
			return id != nil && *id == 7
		})).Return(&services.SessionSnapshot{ID: "s2"}, nil)

		w := perform(setupRouter(editor), http.MethodPost, "/api/v1/sessions?quiz_id=7", "")
		assert.Equal(t, http.StatusCreated, w.Code)
		editor.AssertExpectations(t)
	})

	t.Run("bad quiz id", func(t *testing.T) {
		editor := &MockEditorService{}
		w := perform(setupRouter(editor), http.MethodPost, "/api/v1/sessions?quiz_id=abc", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		editor.AssertNotCalled(t, "OpenSession", mock.Anything, mock.Anything)
	})

	t.Run("quiz not found", func(t *testing.T) {
		editor := &MockEditorService{}
		editor.On("OpenSession", mock.Anything, mock.Anything).Return(nil, repositories.ErrNotFound)

		w := perform(setupRouter(editor), http.MethodPost, "/api/v1/sessions?quiz_id=9", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestSessionHandler_GetSession_NotFound(t *testing.T) {
	editor := &MockEditorService{}
	editor.On("GetSession", mock.Anything, "missing").Return(nil, services.ErrSessionNotFound)

	w := perform(setupRouter(editor), http.MethodGet, "/api/v1/sessions/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Editor session not found", decodeError(t, w).Message)
}

func TestSessionHandler_UpdateQuestion(t *testing.T) {
	t.Run("patch is forwarded", func(t *testing.T) {
		editor := &MockEditorService{}
		editor.On("UpdateQuestion", mock.Anything, "s1", "local-q-1", mock.MatchedBy(func(p models.QuestionPatch) bool {
			return p.Text != nil && *p.Text == "New text" && p.Points == nil
		})).Return(&models.Question{ID: "local-q-1", Text: "New text"}, nil)

		w := perform(setupRouter(editor), http.MethodPatch, "/api/v1/sessions/s1/questions/local-q-1", `{"text":"New text"}`)
		assert.Equal(t, http.StatusOK, w.Code)
		editor.AssertExpectations(t)
	})

	t.Run("struct rules reject bad values", func(t *testing.T) {
		editor := &MockEditorService{}
		w := perform(setupRouter(editor), http.MethodPatch, "/api/v1/sessions/s1/questions/local-q-1", `{"difficulty":"impossible"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		editor.AssertNotCalled(t, "UpdateQuestion", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestSessionHandler_DeleteQuestion(t *testing.T) {
	confirmedWith := func(want bool) interface{} {
		return mock.MatchedBy(func(c services.Confirmer) bool {
			return c.Confirm(context.Background(), "") == want
		})
	}

	t.Run("confirmed", func(t *testing.T) {
		editor := &MockEditorService{}
		editor.On("DeleteQuestion", mock.Anything, "s1", "local-q-1", confirmedWith(true)).Return(nil)

		w := perform(setupRouter(editor), http.MethodDelete, "/api/v1/sessions/s1/questions/local-q-1?confirm=true", "")
		assert.Equal(t, http.StatusNoContent, w.Code)
		editor.AssertExpectations(t)
	})

	t.Run("not confirmed", func(t *testing.T) {
		editor := &MockEditorService{}
		editor.On("DeleteQuestion", mock.Anything, "s1", "local-q-1", confirmedWith(false)).
			Return(services.ErrConfirmationDeclined)

		w := perform(setupRouter(editor), http.MethodDelete, "/api/v1/sessions/s1/questions/local-q-1", "")
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "confirmation_required", decodeError(t, w).Code)
	})

	t.Run("remote delete failed", func(t *testing.T) {
		editor := &MockEditorService{}
		editor.On("DeleteQuestion", mock.Anything, "s1", "local-q-1", mock.Anything).
			Return(&services.PersistenceError{Op: "delete_question", ItemID: "local-q-1", Err: errors.New("timeout")})

		w := perform(setupRouter(editor), http.MethodDelete, "/api/v1/sessions/s1/questions/local-q-1?confirm=true", "")
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}

func TestSessionHandler_ChangeQuestionType(t *testing.T) {
	editor := &MockEditorService{}
	editor.On("ChangeQuestionType", mock.Anything, "s1", "local-q-1", models.TrueFalse).
		Return(&models.Question{ID: "local-q-1", Type: models.TrueFalse}, nil)
	router := setupRouter(editor)

	w := perform(router, http.MethodPut, "/api/v1/sessions/s1/questions/local-q-1/type", `{"type":"true_false"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = perform(router, http.MethodPut, "/api/v1/sessions/s1/questions/local-q-1/type", `{"type":"essay"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	editor.AssertNumberOfCalls(t, "ChangeQuestionType", 1)
}

func TestSessionHandler_AddAnswer_Rejected(t *testing.T) {
	editor := &MockEditorService{}
	editor.On("AddAnswer", mock.Anything, "s1", "local-q-1").Return(nil, services.ErrAnswersNotSupported)

	w := perform(setupRouter(editor), http.MethodPost, "/api/v1/sessions/s1/questions/local-q-1/answers", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSessionHandler_Reorder(t *testing.T) {
	t.Run("keyboard step", func(t *testing.T) {
		editor := &MockEditorService{}
		editor.On("Reorder", mock.Anything, "s1", services.ReorderRequest{ItemID: "local-q-2", Key: "up"}).
			Return(&services.ReorderResult{Changed: true, Order: []string{"local-q-2", "local-q-1"}, Persisted: 0}, nil)

		w := perform(setupRouter(editor), http.MethodPost, "/api/v1/sessions/s1/reorder", `{"item_id":"local-q-2","key":"up"}`)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data services.ReorderResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Data.Changed)
		assert.Equal(t, []string{"local-q-2", "local-q-1"}, resp.Data.Order)
	})

	t.Run("partial write keeps the local order", func(t *testing.T) {
		editor := &MockEditorService{}
		persistErr := &services.PersistenceError{Op: "update_order", ItemID: "local-q-1", Index: 1, Written: 1, Err: errors.New("503")}
		editor.On("Reorder", mock.Anything, "s1", mock.Anything).
			Return(&services.ReorderResult{Changed: true, Order: []string{"local-q-2", "local-q-1"}, Persisted: 1}, persistErr)

		w := perform(setupRouter(editor), http.MethodPost, "/api/v1/sessions/s1/reorder",
			`{"event":{"moved_id":"local-q-2","target_id":"local-q-1"}}`)
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Contains(t, w.Body.String(), `"persisted":1`)
	})

	t.Run("missing move", func(t *testing.T) {
		editor := &MockEditorService{}
		editor.On("Reorder", mock.Anything, "s1", services.ReorderRequest{}).
			Return(&services.ReorderResult{}, services.ErrBadRequest)

		w := perform(setupRouter(editor), http.MethodPost, "/api/v1/sessions/s1/reorder", `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSessionHandler_Save(t *testing.T) {
	t.Run("validation failure", func(t *testing.T) {
		editor := &MockEditorService{}
		editor.On("Save", mock.Anything, "s1").Return(nil, services.ValidationErrors{
			{Field: "title", Message: "quiz title is required", Rule: "required"},
		})

		w := perform(setupRouter(editor), http.MethodPost, "/api/v1/sessions/s1/save", "")
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "quiz title is required")
	})

	t.Run("remote row missing is a failed write", func(t *testing.T) {
		editor := &MockEditorService{}
		editor.On("Save", mock.Anything, "s1").Return(nil, &services.PersistenceError{
			Op:     "update question",
			ItemID: "local-q-3",
			Index:  2,
			Err:    fmt.Errorf("question 9: %w", repositories.ErrNotFound),
		})

		w := perform(setupRouter(editor), http.MethodPost, "/api/v1/sessions/s1/save", "")
		assert.Equal(t, http.StatusBadGateway, w.Code)
		resp := decodeError(t, w)
		assert.Equal(t, "Remote write failed", resp.Message)
		assert.Contains(t, w.Body.String(), "local-q-3")
	})

	t.Run("saved", func(t *testing.T) {
		editor := &MockEditorService{}
		editor.On("Save", mock.Anything, "s1").Return(&services.SaveResult{QuizID: 3, QuizCreated: true}, nil)

		w := perform(setupRouter(editor), http.MethodPost, "/api/v1/sessions/s1/save", "")
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestSessionHandler_Generate(t *testing.T) {
	editor := &MockEditorService{}
	editor.On("Generate", mock.Anything, "s1", mock.Anything).Return(nil, services.ErrGenerationUnavailable)
	router := setupRouter(editor)

	w := perform(router, http.MethodPost, "/api/v1/sessions/s1/generate", `{"question_count":3}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = perform(router, http.MethodPost, "/api/v1/sessions/s1/generate", `{"topic":"rivers"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSessionHandler_ImportExport(t *testing.T) {
	t.Run("import multipart", func(t *testing.T) {
		editor := &MockEditorService{}
		editor.On("Import", mock.Anything, "s1", mock.Anything, "questions.csv").
			Return(&models.ImportResult{FileName: "questions.csv", ImportedCount: 1, Status: models.ImportCompleted}, nil)

		var body bytes.Buffer
		writer := multipart.NewWriter(&body)
		part, err := writer.CreateFormFile("file", "questions.csv")
		require.NoError(t, err)
		_, err = part.Write([]byte("question_type,question_text\nshort_answer,Why?\n"))
		require.NoError(t, err)
		require.NoError(t, writer.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/s1/import", &body)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		w := httptest.NewRecorder()
		setupRouter(editor).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		editor.AssertExpectations(t)
	})

	t.Run("import without file", func(t *testing.T) {
		w := perform(setupRouter(&MockEditorService{}), http.MethodPost, "/api/v1/sessions/s1/import", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("export", func(t *testing.T) {
		editor := &MockEditorService{}
		editor.On("Export", mock.Anything, "s1", services.ExportFormatExcel).Return([]byte("xlsx-bytes"), nil)

		w := perform(setupRouter(editor), http.MethodGet, "/api/v1/sessions/s1/export", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "quiz-s1.xlsx")
		assert.Equal(t, "xlsx-bytes", w.Body.String())
	})

	t.Run("export csv", func(t *testing.T) {
		editor := &MockEditorService{}
		editor.On("Export", mock.Anything, "s1", services.ExportFormatCSV).Return([]byte("question_type\n"), nil)

		w := perform(setupRouter(editor), http.MethodGet, "/api/v1/sessions/s1/export?format=csv", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, csvContentType, w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "quiz-s1.csv")
		assert.Equal(t, "question_type\n", w.Body.String())
	})

	t.Run("export unknown format", func(t *testing.T) {
		editor := &MockEditorService{}
		editor.On("Export", mock.Anything, "s1", "pdf").
			Return(nil, fmt.Errorf("%w: unsupported export format %q", services.ErrBadRequest, "pdf"))

		w := perform(setupRouter(editor), http.MethodGet, "/api/v1/sessions/s1/export?format=pdf", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCollectionHandler_Reorder(t *testing.T) {
	t.Run("reordered", func(t *testing.T) {
		editor := &MockEditorService{}
		want := services.CollectionReorderRequest{
			IDs:   []uint{1, 2, 3},
			Event: reorder.Event{MovedID: "3", TargetID: "1"},
		}
		editor.On("ReorderCollection", mock.Anything, models.CollectionLessons, want).
			Return([]repositories.ItemOrder{{ID: 3, Order: 0}, {ID: 1, Order: 1}, {ID: 2, Order: 2}}, nil)

		w := perform(setupRouter(editor), http.MethodPost, "/api/v1/collections/lessons/reorder",
			`{"ids":[1,2,3],"event":{"moved_id":"3","target_id":"1"}}`)
		assert.Equal(t, http.StatusOK, w.Code)
		editor.AssertExpectations(t)
	})

	t.Run("unknown collection", func(t *testing.T) {
		w := perform(setupRouter(&MockEditorService{}), http.MethodPost, "/api/v1/collections/users/reorder",
			`{"ids":[1],"event":{"moved_id":"1","target_id":"1"}}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("empty ids", func(t *testing.T) {
		w := perform(setupRouter(&MockEditorService{}), http.MethodPost, "/api/v1/collections/lessons/reorder",
			`{"ids":[],"event":{"moved_id":"1","target_id":"2"}}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("duplicate ids", func(t *testing.T) {
		editor := &MockEditorService{}
		w := perform(setupRouter(editor), http.MethodPost, "/api/v1/collections/lessons/reorder",
			`{"ids":[1,2,1],"event":{"moved_id":"2","target_id":"1"}}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		editor.AssertNotCalled(t, "ReorderCollection", mock.Anything, mock.Anything, mock.Anything)
	})
}

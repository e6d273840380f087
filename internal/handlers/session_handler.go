package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/SAP-F-2025/quiz-builder/internal/models"
	"github.com/SAP-F-2025/quiz-builder/internal/services"
	"github.com/SAP-F-2025/quiz-builder/internal/utils"
	"github.com/SAP-F-2025/quiz-builder/internal/validator"
	"github.com/gin-gonic/gin"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	csvContentType  = "text/csv; charset=utf-8"
)

// ChangeTypeRequest switches a question to another type
type ChangeTypeRequest struct {
	Type models.QuestionType `json:"type" binding:"required,question_type"`
}

type SessionHandler struct {
	BaseHandler
	editorService services.EditorService
	validator     *validator.Validator
}

func NewSessionHandler(
	editorService services.EditorService,
	validator *validator.Validator,
	logger utils.Logger,
) *SessionHandler {
	return &SessionHandler{
		BaseHandler:   NewBaseHandler(logger),
		editorService: editorService,
		validator:     validator,
	}
}

// ===== SESSIONS =====

// OpenSession starts an editor session
// @Summary Open editor session
// @Description Starts a new editor session, optionally loaded from a stored quiz
// @Tags sessions
// @Produce json
// @Param quiz_id query uint false "Stored quiz to load"
// @Success 201 {object} SuccessResponse{data=services.SessionSnapshot}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions [post]
func (h *SessionHandler) OpenSession(c *gin.Context) {
	h.LogRequest(c, "Opening editor session")

	quizID, ok := parseOptionalUintQuery(c, "quiz_id")
	if !ok {
		return
	}

	snapshot, err := h.editorService.OpenSession(c.Request.Context(), quizID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Message: "Session opened",
		Data:    snapshot,
	})
}

// GetSession returns the session snapshot
// @Summary Get editor session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} SuccessResponse{data=services.SessionSnapshot}
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	sessionID := ParseStringIDParam(c, "id")
	if sessionID == "" {
		return
	}

	snapshot, err := h.editorService.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Session retrieved",
		Data:    snapshot,
	})
}

// CloseSession discards a session and its unsaved edits
// @Summary Close editor session
// @Tags sessions
// @Param id path string true "Session ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id} [delete]
func (h *SessionHandler) CloseSession(c *gin.Context) {
	sessionID := ParseStringIDParam(c, "id")
	if sessionID == "" {
		return
	}

	if err := h.editorService.CloseSession(c.Request.Context(), sessionID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ===== QUIZ AND QUESTIONS =====

// UpdateQuiz patches quiz-level fields
// @Summary Update quiz fields
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param patch body models.QuizPatch true "Fields to change"
// @Success 200 {object} SuccessResponse{data=services.SessionSnapshot}
// @Failure 400 {object} ErrorResponse
// @Router /sessions/{id}/quiz [patch]
func (h *SessionHandler) UpdateQuiz(c *gin.Context) {
	sessionID := ParseStringIDParam(c, "id")
	if sessionID == "" {
		return
	}

	var patch models.QuizPatch
	if !h.bindPatch(c, &patch) {
		return
	}

	snapshot, err := h.editorService.UpdateQuiz(c.Request.Context(), sessionID, patch)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Quiz updated",
		Data:    snapshot,
	})
}

// AddQuestion appends a blank multiple choice question
// @Summary Add question
// @Tags questions
// @Produce json
// @Param id path string true "Session ID"
// @Success 201 {object} SuccessResponse{data=models.Question}
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/questions [post]
func (h *SessionHandler) AddQuestion(c *gin.Context) {
	sessionID := ParseStringIDParam(c, "id")
	if sessionID == "" {
		return
	}

	question, err := h.editorService.AddQuestion(c.Request.Context(), sessionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Message: "Question added",
		Data:    question,
	})
}

// UpdateQuestion patches question fields
// @Summary Update question
// @Tags questions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param qid path string true "Question ID"
// @Param patch body models.QuestionPatch true "Fields to change"
// @Success 200 {object} SuccessResponse{data=models.Question}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/questions/{qid} [patch]
func (h *SessionHandler) UpdateQuestion(c *gin.Context) {
	sessionID, questionID, ok := questionParams(c)
	if !ok {
		return
	}

	var patch models.QuestionPatch
	if !h.bindPatch(c, &patch) {
		return
	}

	question, err := h.editorService.UpdateQuestion(c.Request.Context(), sessionID, questionID, patch)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Question updated",
		Data:    question,
	})
}

// DeleteQuestion removes a question. The caller confirms with ?confirm=true.
// @Summary Delete question
// @Tags questions
// @Param id path string true "Session ID"
// @Param qid path string true "Question ID"
// @Param confirm query bool false "Confirm the deletion"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /sessions/{id}/questions/{qid} [delete]
func (h *SessionHandler) DeleteQuestion(c *gin.Context) {
	sessionID, questionID, ok := questionParams(c)
	if !ok {
		return
	}
	h.LogRequest(c, "Deleting question", "session_id", sessionID, "question_id", questionID)

	confirmed, _ := strconv.ParseBool(c.Query("confirm"))
	confirmer := services.ConfirmFunc(func(context.Context, string) bool { return confirmed })

	if err := h.editorService.DeleteQuestion(c.Request.Context(), sessionID, questionID, confirmer); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ChangeQuestionType switches the question type and re-derives its answers
// @Summary Change question type
// @Tags questions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param qid path string true "Question ID"
// @Param request body ChangeTypeRequest true "New type"
// @Success 200 {object} SuccessResponse{data=models.Question}
// @Failure 400 {object} ErrorResponse
// @Router /sessions/{id}/questions/{qid}/type [put]
func (h *SessionHandler) ChangeQuestionType(c *gin.Context) {
	sessionID, questionID, ok := questionParams(c)
	if !ok {
		return
	}

	var req ChangeTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	question, err := h.editorService.ChangeQuestionType(c.Request.Context(), sessionID, questionID, req.Type)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Question type changed",
		Data:    question,
	})
}

// ToggleExpanded flips the expanded flag of a question
// @Summary Toggle expanded question
// @Tags questions
// @Produce json
// @Param id path string true "Session ID"
// @Param qid path string true "Question ID"
// @Success 200 {object} SuccessResponse
// @Router /sessions/{id}/questions/{qid}/expand [post]
func (h *SessionHandler) ToggleExpanded(c *gin.Context) {
	sessionID, questionID, ok := questionParams(c)
	if !ok {
		return
	}

	expanded, err := h.editorService.ToggleExpanded(c.Request.Context(), sessionID, questionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Question toggled",
		Data:    gin.H{"question_id": questionID, "expanded": expanded},
	})
}

// ===== ANSWERS =====

// AddAnswer appends a blank answer to a multiple choice question
// @Summary Add answer
// @Tags answers
// @Produce json
// @Param id path string true "Session ID"
// @Param qid path string true "Question ID"
// @Success 201 {object} SuccessResponse{data=models.Answer}
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{id}/questions/{qid}/answers [post]
func (h *SessionHandler) AddAnswer(c *gin.Context) {
	sessionID, questionID, ok := questionParams(c)
	if !ok {
		return
	}

	answer, err := h.editorService.AddAnswer(c.Request.Context(), sessionID, questionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Message: "Answer added",
		Data:    answer,
	})
}

// UpdateAnswer changes the answer text
// @Summary Update answer
// @Tags answers
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param qid path string true "Question ID"
// @Param aid path string true "Answer ID"
// @Param patch body models.AnswerPatch true "Fields to change"
// @Success 200 {object} SuccessResponse{data=models.Question}
// @Router /sessions/{id}/questions/{qid}/answers/{aid} [patch]
func (h *SessionHandler) UpdateAnswer(c *gin.Context) {
	sessionID, questionID, answerID, ok := answerParams(c)
	if !ok {
		return
	}

	var patch models.AnswerPatch
	if !h.bindPatch(c, &patch) {
		return
	}

	question, err := h.editorService.UpdateAnswer(c.Request.Context(), sessionID, questionID, answerID, patch)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Answer updated",
		Data:    question,
	})
}

// ToggleCorrectAnswer flips the correct flag. Multiple choice keeps exactly
// one correct answer.
// @Summary Toggle correct answer
// @Tags answers
// @Produce json
// @Param id path string true "Session ID"
// @Param qid path string true "Question ID"
// @Param aid path string true "Answer ID"
// @Success 200 {object} SuccessResponse{data=models.Question}
// @Router /sessions/{id}/questions/{qid}/answers/{aid}/toggle [post]
func (h *SessionHandler) ToggleCorrectAnswer(c *gin.Context) {
	sessionID, questionID, answerID, ok := answerParams(c)
	if !ok {
		return
	}

	question, err := h.editorService.ToggleCorrectAnswer(c.Request.Context(), sessionID, questionID, answerID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Correct answer toggled",
		Data:    question,
	})
}

// DeleteAnswer removes an answer
// @Summary Delete answer
// @Tags answers
// @Param id path string true "Session ID"
// @Param qid path string true "Question ID"
// @Param aid path string true "Answer ID"
// @Success 204
// @Failure 409 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /sessions/{id}/questions/{qid}/answers/{aid} [delete]
func (h *SessionHandler) DeleteAnswer(c *gin.Context) {
	sessionID, questionID, answerID, ok := answerParams(c)
	if !ok {
		return
	}
	h.LogRequest(c, "Deleting answer", "session_id", sessionID, "answer_id", answerID)

	if err := h.editorService.DeleteAnswer(c.Request.Context(), sessionID, questionID, answerID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ===== ORDERING =====

// Reorder moves a question, or an answer when question_id is given. The move
// is an explicit event, a keyboard step or a pointer gesture.
// @Summary Reorder questions or answers
// @Tags ordering
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body services.ReorderRequest true "Move"
// @Success 200 {object} SuccessResponse{data=services.ReorderResult}
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /sessions/{id}/reorder [post]
func (h *SessionHandler) Reorder(c *gin.Context) {
	sessionID := ParseStringIDParam(c, "id")
	if sessionID == "" {
		return
	}

	var req services.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	result, err := h.editorService.Reorder(c.Request.Context(), sessionID, req)
	if err != nil {
		if services.IsPersistence(err) {
			// the new order stays applied locally
			h.RespondWithError(c, http.StatusBadGateway, "Order could not be saved", err, gin.H{
				"result": result,
				"error":  services.FormatError(err),
			})
			return
		}
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Order updated",
		Data:    result,
	})
}

// ===== PERSISTENCE AND MERGING =====

// Save validates the quiz and writes it to the store
// @Summary Save quiz
// @Tags persistence
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} SuccessResponse{data=services.SaveResult}
// @Failure 422 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /sessions/{id}/save [post]
func (h *SessionHandler) Save(c *gin.Context) {
	sessionID := ParseStringIDParam(c, "id")
	if sessionID == "" {
		return
	}
	h.LogRequest(c, "Saving quiz", "session_id", sessionID)

	result, err := h.editorService.Save(c.Request.Context(), sessionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Quiz saved",
		Data:    result,
	})
}

// Generate asks the generator for questions and merges the valid result
// @Summary Generate questions
// @Tags merging
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body models.GenerationRequest true "Generation parameters"
// @Success 200 {object} SuccessResponse{data=services.GenerationResult}
// @Failure 422 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /sessions/{id}/generate [post]
func (h *SessionHandler) Generate(c *gin.Context) {
	sessionID := ParseStringIDParam(c, "id")
	if sessionID == "" {
		return
	}

	var req models.GenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	h.LogRequest(c, "Generating questions", "session_id", sessionID, "topic", req.Topic)

	result, err := h.editorService.Generate(c.Request.Context(), sessionID, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Generation finished",
		Data:    result,
	})
}

// Import merges questions from an uploaded csv or xlsx file
// @Summary Import questions
// @Tags merging
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Session ID"
// @Param file formData file true "Spreadsheet"
// @Success 200 {object} SuccessResponse{data=models.ImportResult}
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /sessions/{id}/import [post]
func (h *SessionHandler) Import(c *gin.Context) {
	sessionID := ParseStringIDParam(c, "id")
	if sessionID == "" {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing file",
			Details: err.Error(),
		})
		return
	}
	file, err := header.Open()
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Unreadable file", err)
		return
	}
	defer file.Close()

	h.LogRequest(c, "Importing questions", "session_id", sessionID, "file", header.Filename)

	result, err := h.editorService.Import(c.Request.Context(), sessionID, file, header.Filename)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Import finished",
		Data:    result,
	})
}

// Export downloads the session questions as xlsx or csv
// @Summary Export questions
// @Tags merging
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce text/csv
// @Param id path string true "Session ID"
// @Param format query string false "xlsx (default) or csv"
// @Success 200 {file} file
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /sessions/{id}/export [get]
func (h *SessionHandler) Export(c *gin.Context) {
	sessionID := ParseStringIDParam(c, "id")
	if sessionID == "" {
		return
	}
	format := c.DefaultQuery("format", services.ExportFormatExcel)

	data, err := h.editorService.Export(c.Request.Context(), sessionID, format)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	contentType := xlsxContentType
	if format == services.ExportFormatCSV {
		contentType = csvContentType
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="quiz-%s.%s"`, sessionID, format))
	c.Data(http.StatusOK, contentType, data)
}

// ===== HELPERS =====

// bindPatch decodes a partial update and checks its struct rules
func (h *SessionHandler) bindPatch(c *gin.Context, patch interface{}) bool {
	if err := c.ShouldBindJSON(patch); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return false
	}
	if err := h.validator.ValidateStruct(patch); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: err,
		})
		return false
	}
	return true
}

func questionParams(c *gin.Context) (string, string, bool) {
	sessionID := ParseStringIDParam(c, "id")
	if sessionID == "" {
		return "", "", false
	}
	questionID := ParseStringIDParam(c, "qid")
	if questionID == "" {
		return "", "", false
	}
	return sessionID, questionID, true
}

func answerParams(c *gin.Context) (string, string, string, bool) {
	sessionID, questionID, ok := questionParams(c)
	if !ok {
		return "", "", "", false
	}
	answerID := ParseStringIDParam(c, "aid")
	if answerID == "" {
		return "", "", "", false
	}
	return sessionID, questionID, answerID, true
}

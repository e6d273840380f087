package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/quiz-builder/internal/services"
	"github.com/SAP-F-2025/quiz-builder/internal/utils"
	"github.com/SAP-F-2025/quiz-builder/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	playground "github.com/go-playground/validator/v10"
)

type HandlerManager struct {
	sessionHandler    *SessionHandler
	collectionHandler *CollectionHandler
}

func NewHandlerManager(
	editorService services.EditorService,
	validator *validator.Validator,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		sessionHandler:    NewSessionHandler(editorService, validator, logger),
		collectionHandler: NewCollectionHandler(editorService, logger),
	}
}

// RegisterBindingValidators installs the domain tags on gin's binding engine
func RegisterBindingValidators() {
	if engine, ok := binding.Validator.Engine().(*playground.Validate); ok {
		validator.RegisterCustomValidators(engine)
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)

	v1 := router.Group("/api/v1")
	{
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", hm.sessionHandler.OpenSession)
			sessions.GET("/:id", hm.sessionHandler.GetSession)
			sessions.DELETE("/:id", hm.sessionHandler.CloseSession)
			sessions.PATCH("/:id/quiz", hm.sessionHandler.UpdateQuiz)

			// Questions
			sessions.POST("/:id/questions", hm.sessionHandler.AddQuestion)
			sessions.PATCH("/:id/questions/:qid", hm.sessionHandler.UpdateQuestion)
			sessions.DELETE("/:id/questions/:qid", hm.sessionHandler.DeleteQuestion)
			sessions.PUT("/:id/questions/:qid/type", hm.sessionHandler.ChangeQuestionType)
			sessions.POST("/:id/questions/:qid/expand", hm.sessionHandler.ToggleExpanded)

			// Answers
			sessions.POST("/:id/questions/:qid/answers", hm.sessionHandler.AddAnswer)
			sessions.PATCH("/:id/questions/:qid/answers/:aid", hm.sessionHandler.UpdateAnswer)
			sessions.POST("/:id/questions/:qid/answers/:aid/toggle", hm.sessionHandler.ToggleCorrectAnswer)
			sessions.DELETE("/:id/questions/:qid/answers/:aid", hm.sessionHandler.DeleteAnswer)

			// Ordering, persistence and merging
			sessions.POST("/:id/reorder", hm.sessionHandler.Reorder)
			sessions.POST("/:id/save", hm.sessionHandler.Save)
			sessions.POST("/:id/generate", hm.sessionHandler.Generate)
			sessions.POST("/:id/import", hm.sessionHandler.Import)
			sessions.GET("/:id/export", hm.sessionHandler.Export)
		}

		v1.POST("/collections/:collection/reorder", hm.collectionHandler.Reorder)
	}
}

// HealthCheck reports liveness
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "quiz-builder",
	})
}

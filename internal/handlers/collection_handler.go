package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/quiz-builder/internal/models"
	"github.com/SAP-F-2025/quiz-builder/internal/services"
	"github.com/SAP-F-2025/quiz-builder/internal/utils"
	"github.com/gin-gonic/gin"
)

// CollectionHandler reorders stored collections outside of an editor session
type CollectionHandler struct {
	BaseHandler
	editorService services.EditorService
}

func NewCollectionHandler(editorService services.EditorService, logger utils.Logger) *CollectionHandler {
	return &CollectionHandler{
		BaseHandler:   NewBaseHandler(logger),
		editorService: editorService,
	}
}

// Reorder moves one item of a collection and stores every position
// @Summary Reorder collection
// @Description Applies a move to the given order and writes the resulting positions one by one
// @Tags ordering
// @Accept json
// @Produce json
// @Param collection path string true "courses, modules, lessons, questions or answers"
// @Param request body services.CollectionReorderRequest true "Current order and move"
// @Success 200 {object} SuccessResponse{data=[]repositories.ItemOrder}
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /collections/{collection}/reorder [post]
func (h *CollectionHandler) Reorder(c *gin.Context) {
	collection, err := models.ParseCollection(c.Param("collection"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid collection",
			Details: err.Error(),
		})
		return
	}

	var req services.CollectionReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	h.LogRequest(c, "Reordering collection", "collection", collection, "moved_id", req.Event.MovedID)

	orders, err := h.editorService.ReorderCollection(c.Request.Context(), collection, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Collection reordered",
		Data:    orders,
	})
}

package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"video-orchestrator/internal/models"
	"video-orchestrator/internal/provider"
	"video-orchestrator/pkg/security"
)

type GenerateRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

// Generate submits a prompt to the generation provider and registers the
// returned task as QUEUED. Completion never arrives through this call;
// the provider pushes it to the callback endpoint later.
func (h *Handler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prompt is required"})
		return
	}

	userID := security.UserID(c)

	taskID, err := h.provider.SubmitTask(c.Request.Context(), req.Prompt)
	if err != nil {
		var protoErr *provider.ProtocolError
		if errors.As(err, &protoErr) {
			h.log.Error("provider returned malformed response",
				zap.String("user_id", userID), zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "provider returned no task id"})
			return
		}
		h.log.Error("provider submission failed",
			zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to submit generation task"})
		return
	}

	task := h.registry.Create(taskID, userID)

	h.log.Info("generation task submitted",
		zap.String("task_id", taskID), zap.String("user_id", userID))

	c.JSON(http.StatusOK, gin.H{
		"task_id": task.TaskID,
		"status":  models.StatusQueued,
	})
}

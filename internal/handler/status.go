package handler

import (
	"net/http"
	"slices"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"video-orchestrator/internal/models"
	"video-orchestrator/pkg/security"
)

// Status reconciles three sources of truth into one answer. Storage
// wins: a processed artifact existing is durable evidence the work
// finished, no matter what the volatile registry remembers (it remembers
// nothing after a restart). The registry only decides between the
// pre-completion states and fast-fails.
func (h *Handler) Status(c *gin.Context) {
	taskID := c.Param("task_id")
	userID := security.UserID(c)

	names, err := h.store.ListVideoNames(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("artifact listing failed",
			zap.String("task_id", taskID),
			zap.String("user_id", userID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check task progress"})
		return
	}

	// Stored keys may carry the extension or not, tolerate both.
	exists := func(n string) bool {
		return slices.Contains(names, n) || slices.Contains(names, n+".mp4")
	}

	hasV1 := exists(taskID + "_processed")
	hasV2 := exists(taskID + "_processed_v2")

	switch {
	case hasV1 && hasV2:
		c.JSON(http.StatusOK, gin.H{"task_id": taskID, "status": models.StatusDone})
		return
	case hasV1 || hasV2:
		c.JSON(http.StatusOK, gin.H{
			"task_id": taskID,
			"status":  models.StatusPartial,
			"done":    gin.H{"v1": hasV1, "v2": hasV2},
		})
		return
	}

	// No durable evidence yet; fall back to the registry hint.
	task, ok := h.registry.Get(taskID)
	if !ok || task.UserID != userID {
		// Covers a restarted process that has no memory of the task.
		c.JSON(http.StatusOK, gin.H{"task_id": taskID, "status": models.StatusPending})
		return
	}
	if task.Status == models.StatusFailed {
		c.JSON(http.StatusOK, gin.H{"task_id": taskID, "status": models.StatusFailed})
		return
	}
	c.JSON(http.StatusOK, gin.H{"task_id": taskID, "status": task.Status})
}

type VideoEntry struct {
	TaskID         string `json:"task_id"`
	HasOriginal    bool   `json:"has_original"`
	HasProcessed   bool   `json:"has_processed"`
	HasProcessedV2 bool   `json:"has_processed_v2"`
}

// List aggregates the caller's stored artifacts into one row per task.
func (h *Handler) List(c *gin.Context) {
	userID := security.UserID(c)

	names, err := h.store.ListVideoNames(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("artifact listing failed",
			zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list videos"})
		return
	}

	videos := make(map[string]*VideoEntry)
	for _, name := range names {
		clean := strings.TrimSuffix(name, ".mp4")
		base := strings.TrimSuffix(strings.TrimSuffix(clean, "_processed_v2"), "_processed")

		entry, ok := videos[base]
		if !ok {
			entry = &VideoEntry{TaskID: base}
			videos[base] = entry
		}

		switch {
		case strings.HasSuffix(clean, "_processed_v2"):
			entry.HasProcessedV2 = true
		case strings.HasSuffix(clean, "_processed"):
			entry.HasProcessed = true
		default:
			entry.HasOriginal = true
		}
	}

	out := make([]*VideoEntry, 0, len(videos))
	for _, entry := range videos {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TaskID > out[j].TaskID })

	c.JSON(http.StatusOK, gin.H{"videos": out})
}

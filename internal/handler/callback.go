package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"video-orchestrator/internal/models"
	"video-orchestrator/internal/provider"
)

// Callback ingests the provider's asynchronous result notification.
//
// The response is always {"code":200}: the provider retries on non-2xx,
// and an ingest failure here is almost never transient, so returning an
// error would only amplify deliveries without a path to success.
// Failures are absorbed, marked on the task, and logged for the
// operator instead.
func (h *Handler) Callback(c *gin.Context) {
	var payload provider.CallbackPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.log.Warn("undecodable provider callback", zap.Error(err))
		ackProvider(c)
		return
	}

	taskID := payload.Data.TaskID
	task, ok := h.registry.Get(taskID)
	if !ok {
		// Unknown, replayed or foreign task id: acknowledge and do
		// nothing. No storage writes, no queue publishes.
		ackProvider(c)
		return
	}

	if !payload.Succeeded() {
		h.registry.UpdateStatus(taskID, models.StatusFailed)
		h.log.Warn("provider reported generation failure",
			zap.String("task_id", taskID),
			zap.Int("provider_code", payload.Code),
			zap.String("provider_msg", payload.Msg))
		ackProvider(c)
		return
	}

	urls, err := payload.Data.ResultURLs()
	if err != nil {
		h.registry.UpdateStatus(taskID, models.StatusFailed)
		h.log.Warn("provider callback without result",
			zap.String("task_id", taskID), zap.Error(err))
		ackProvider(c)
		return
	}

	if err := h.ingestResult(c.Request.Context(), task, urls[0]); err != nil {
		h.registry.UpdateStatus(taskID, models.StatusFailed)
		h.log.Error("callback ingest failed",
			zap.String("task_id", taskID),
			zap.String("user_id", task.UserID),
			zap.Error(err))
		ackProvider(c)
		return
	}

	h.registry.UpdateStatus(taskID, models.StatusQueuedForAI)
	h.log.Info("callback ingested, variant jobs queued",
		zap.String("task_id", taskID), zap.String("user_id", task.UserID))
	ackProvider(c)
}

// ingestResult downloads the finished asset, persists it as the original
// artifact and publishes the two variant jobs. The temp file is removed
// on every exit path.
func (h *Handler) ingestResult(ctx context.Context, task models.Task, resultURL string) error {
	body, err := h.provider.FetchAsset(ctx, resultURL)
	if err != nil {
		return fmt.Errorf("download result: %w", err)
	}
	defer body.Close()

	tmp, err := os.CreateTemp("", "video-*.mp4")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	size, err := io.Copy(tmp, body)
	if err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind temp file: %w", err)
	}

	inputKey := models.VideoKey(task.UserID, task.TaskID)
	if err := h.store.UploadVideo(ctx, inputKey, tmp, size); err != nil {
		return fmt.Errorf("persist original: %w", err)
	}

	// Two sequential best-effort publishes, one per variant. Not
	// transactional: a failed second publish leaves one variant pending
	// and the status endpoint reports PARTIAL once the first completes.
	jobs := []models.JobMessage{
		{
			TaskID:    task.TaskID,
			UserID:    task.UserID,
			InputKey:  inputKey,
			OutputKey: models.ProcessedKey(task.UserID, task.TaskID),
			Variant:   models.VariantV1,
		},
		{
			TaskID:    task.TaskID,
			UserID:    task.UserID,
			InputKey:  inputKey,
			OutputKey: models.ProcessedV2Key(task.UserID, task.TaskID),
			Variant:   models.VariantV2,
		},
	}
	for _, job := range jobs {
		msg, err := json.Marshal(job)
		if err != nil {
			return fmt.Errorf("marshal %s job: %w", job.Variant, err)
		}
		if err := h.queue.Publish(ctx, msg); err != nil {
			return fmt.Errorf("publish %s job: %w", job.Variant, err)
		}
	}
	return nil
}

func ackProvider(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"code": 200})
}

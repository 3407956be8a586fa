package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"video-orchestrator/internal/models"
	"video-orchestrator/internal/storage/minio"
	"video-orchestrator/pkg/security"
)

const logTypeYouTubeUpload = "YOUTUBE_UPLOAD"

type YouTubeUploadRequest struct {
	TaskID string `json:"task_id" binding:"required"`
	Type   string `json:"type" binding:"required"`
	Title  string `json:"title" binding:"required"`
}

// UploadYouTube publishes a stored variant to the caller's YouTube
// channel. The final_videos row is written before the transfer starts
// so a crashed upload is still visible to the operator.
func (h *Handler) UploadYouTube(c *gin.Context) {
	var req YouTubeUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "task_id, type and title are required"})
		return
	}

	userID := security.UserID(c)

	var videoKey string
	switch req.Type {
	case "original":
		videoKey = models.VideoKey(userID, req.TaskID)
	case "processed":
		videoKey = models.ProcessedKey(userID, req.TaskID)
	case "processed_v2":
		videoKey = models.ProcessedV2Key(userID, req.TaskID)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid video type"})
		return
	}

	ctx := c.Request.Context()
	description := fmt.Sprintf("Generated by Justic AI\nTask ID: %s", req.TaskID)

	if err := h.repo.InsertFinalVideo(ctx, videoKey, userID, req.Title, description); err != nil {
		h.log.Error("failed to record final video",
			zap.String("video_key", videoKey), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record upload"})
		return
	}

	youtubeID, err := h.transferToYouTube(c, userID, videoKey, req.Title, description)
	if err != nil {
		if errors.Is(err, minio.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
			return
		}
		h.log.Error("youtube upload failed",
			zap.String("video_key", videoKey),
			zap.String("user_id", userID),
			zap.Error(err))
		h.logOperation(c, userID, "FAIL", videoKey, fmt.Sprintf("YouTube upload failed: %v", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "YouTube upload failed"})
		return
	}

	if err := h.repo.MarkYouTubeUploaded(ctx, videoKey, youtubeID); err != nil {
		h.log.Error("failed to mark video uploaded",
			zap.String("video_key", videoKey), zap.Error(err))
	}
	h.logOperation(c, userID, "SUCCESS", videoKey,
		fmt.Sprintf("YouTube upload finished (youtube_id=%s)", youtubeID))

	c.JSON(http.StatusOK, gin.H{
		"status":           "UPLOADED",
		"youtube_video_id": youtubeID,
	})
}

// transferToYouTube stages the artifact in a scoped temp file and hands
// it to the hosting adapter.
func (h *Handler) transferToYouTube(c *gin.Context, userID, videoKey, title, description string) (string, error) {
	ctx := c.Request.Context()

	obj, _, err := h.store.OpenVideo(ctx, videoKey)
	if err != nil {
		return "", err
	}
	defer obj.Close()

	tmp, err := os.CreateTemp("", "upload-*.mp4")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := io.Copy(tmp, obj); err != nil {
		return "", fmt.Errorf("stage video: %w", err)
	}

	return h.uploader.Upload(ctx, userID, tmp.Name(), title, description)
}

func (h *Handler) logOperation(c *gin.Context, userID, status, videoKey, message string) {
	if err := h.repo.InsertOperationLog(c.Request.Context(), userID, logTypeYouTubeUpload, status, videoKey, message); err != nil {
		h.log.Error("failed to write operation log",
			zap.String("video_key", videoKey), zap.Error(err))
	}
}

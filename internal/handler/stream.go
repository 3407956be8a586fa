package handler

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"video-orchestrator/internal/models"
	"video-orchestrator/internal/storage/minio"
	"video-orchestrator/pkg/security"
)

// Stream serves a stored video variant. The object reader is copied
// straight to the response, never buffered whole.
func (h *Handler) Stream(c *gin.Context) {
	taskID := c.Param("task_id")
	userID := security.UserID(c)

	var key string
	switch c.DefaultQuery("type", "original") {
	case "original":
		key = models.VideoKey(userID, taskID)
	case "processed":
		key = models.ProcessedKey(userID, taskID)
	case "processed_v2":
		key = models.ProcessedV2Key(userID, taskID)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid video type"})
		return
	}

	obj, size, err := h.store.OpenVideo(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, minio.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
			return
		}
		h.log.Error("failed to open video",
			zap.String("key", key), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open video"})
		return
	}
	defer obj.Close()

	c.DataFromReader(http.StatusOK, size, "video/mp4", obj, nil)
}

// Thumbnail serves the task's preview image, deriving it from the
// original on the first request. Derivation failures surface as server
// errors; a missing thumbnail is never cached as absent.
func (h *Handler) Thumbnail(c *gin.Context) {
	file := c.Param("file")
	taskID := strings.TrimSuffix(file, ".jpg")
	userID := security.UserID(c)

	thumbKey := models.ThumbnailKey(userID, taskID)

	obj, size, err := h.store.OpenThumbnail(c.Request.Context(), thumbKey)
	if err == nil {
		defer obj.Close()
		c.DataFromReader(http.StatusOK, size, "image/jpeg", obj, nil)
		return
	}
	if !errors.Is(err, minio.ErrNotFound) {
		h.log.Error("failed to open thumbnail",
			zap.String("key", thumbKey), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open thumbnail"})
		return
	}

	data, err := h.deriveThumbnail(c, userID, taskID, thumbKey)
	if err != nil {
		if errors.Is(err, minio.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
			return
		}
		h.log.Error("thumbnail derivation failed",
			zap.String("task_id", taskID),
			zap.String("user_id", userID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to derive thumbnail"})
		return
	}

	c.Data(http.StatusOK, "image/jpeg", data)
}

// deriveThumbnail pulls the original to a scoped temp file, extracts a
// frame and stores it so later requests hit the stored object.
func (h *Handler) deriveThumbnail(c *gin.Context, userID, taskID, thumbKey string) ([]byte, error) {
	ctx := c.Request.Context()

	videoKey := models.VideoKey(userID, taskID)
	obj, _, err := h.store.OpenVideo(ctx, videoKey)
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	tmp, err := os.CreateTemp("", "thumb-src-*.mp4")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := io.Copy(tmp, obj); err != nil {
		return nil, err
	}

	data, err := h.thumbs.Extract(ctx, tmp.Name())
	if err != nil {
		return nil, err
	}

	if err := h.store.UploadThumbnail(ctx, thumbKey, bytes.NewReader(data), int64(len(data))); err != nil {
		return nil, err
	}
	return data, nil
}

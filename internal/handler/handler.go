package handler

import (
	"context"
	"io"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"video-orchestrator/internal/registry"
)

// Provider submits generation requests and fetches finished assets.
type Provider interface {
	SubmitTask(ctx context.Context, prompt string) (string, error)
	FetchAsset(ctx context.Context, url string) (io.ReadCloser, error)
}

// ObjectStore is the artifact store backing originals, processed
// variants and thumbnails.
type ObjectStore interface {
	UploadVideo(ctx context.Context, key string, r io.Reader, size int64) error
	UploadThumbnail(ctx context.Context, key string, r io.Reader, size int64) error
	OpenVideo(ctx context.Context, key string) (io.ReadCloser, int64, error)
	OpenThumbnail(ctx context.Context, key string) (io.ReadCloser, int64, error)
	ListVideoNames(ctx context.Context, userID string) ([]string, error)
}

// JobQueue accepts job messages for the variant workers.
type JobQueue interface {
	Publish(ctx context.Context, body []byte) error
}

// Thumbnailer derives a still-frame JPEG from a local video file.
type Thumbnailer interface {
	Extract(ctx context.Context, videoPath string) ([]byte, error)
}

// Uploader pushes a finished video to the external hosting service and
// returns the hosted video id.
type Uploader interface {
	Upload(ctx context.Context, userID, filePath, title, description string) (string, error)
}

// FinalVideoStore records publishing metadata and operation logs.
type FinalVideoStore interface {
	InsertFinalVideo(ctx context.Context, videoKey, userID, title, description string) error
	MarkYouTubeUploaded(ctx context.Context, videoKey, youtubeID string) error
	InsertOperationLog(ctx context.Context, userID, logType, status, videoKey, message string) error
}

type Handler struct {
	registry *registry.Registry
	provider Provider
	store    ObjectStore
	queue    JobQueue
	thumbs   Thumbnailer
	uploader Uploader
	repo     FinalVideoStore
	log      *zap.Logger
}

func NewHandler(reg *registry.Registry, provider Provider, store ObjectStore, queue JobQueue, thumbs Thumbnailer, uploader Uploader, repo FinalVideoStore, log *zap.Logger) *Handler {
	return &Handler{
		registry: reg,
		provider: provider,
		store:    store,
		queue:    queue,
		thumbs:   thumbs,
		uploader: uploader,
		repo:     repo,
		log:      log,
	}
}

// RegisterRoutes mounts the video API. The callback route is
// deliberately outside the auth group: the provider cannot present
// caller credentials.
func (h *Handler) RegisterRoutes(r *gin.Engine, auth gin.HandlerFunc) {
	r.POST("/api/video/callback", h.Callback)

	api := r.Group("/api/video", auth)
	api.POST("/generate", h.Generate)
	api.GET("/list", h.List)
	api.GET("/status/:task_id", h.Status)
	api.GET("/stream/:task_id", h.Stream)
	api.GET("/thumb/:file", h.Thumbnail)
	api.POST("/upload/youtube", h.UploadYouTube)
}

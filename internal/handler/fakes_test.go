package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"video-orchestrator/internal/registry"
	"video-orchestrator/internal/storage/minio"
)

type fakeProvider struct {
	submitID  string
	submitErr error
	assets    map[string][]byte
	fetchErr  error
	fetched   []string
}

func (f *fakeProvider) SubmitTask(ctx context.Context, prompt string) (string, error) {
	return f.submitID, f.submitErr
}

func (f *fakeProvider) FetchAsset(ctx context.Context, url string) (io.ReadCloser, error) {
	f.fetched = append(f.fetched, url)
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	data, ok := f.assets[url]
	if !ok {
		return nil, errors.New("no such asset")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

type fakeStore struct {
	videos    map[string][]byte
	thumbs    map[string][]byte
	names     []string
	listErr   error
	uploadErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		videos: make(map[string][]byte),
		thumbs: make(map[string][]byte),
	}
}

func (f *fakeStore) UploadVideo(ctx context.Context, key string, r io.Reader, size int64) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.videos[key] = data
	return nil
}

func (f *fakeStore) UploadThumbnail(ctx context.Context, key string, r io.Reader, size int64) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.thumbs[key] = data
	return nil
}

func (f *fakeStore) OpenVideo(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	data, ok := f.videos[key]
	if !ok {
		return nil, 0, fmt.Errorf("%s: %w", key, minio.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(data)), int64(len(data)), nil
}

func (f *fakeStore) OpenThumbnail(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	data, ok := f.thumbs[key]
	if !ok {
		return nil, 0, fmt.Errorf("%s: %w", key, minio.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(data)), int64(len(data)), nil
}

func (f *fakeStore) ListVideoNames(ctx context.Context, userID string) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.names, nil
}

type fakeQueue struct {
	published [][]byte
	// failFrom fails all publishes starting at that index; -1 never fails.
	failFrom int
}

func newFakeQueue() *fakeQueue { return &fakeQueue{failFrom: -1} }

func (f *fakeQueue) Publish(ctx context.Context, body []byte) error {
	if f.failFrom >= 0 && len(f.published) >= f.failFrom {
		return errors.New("queue unavailable")
	}
	f.published = append(f.published, body)
	return nil
}

type fakeThumbs struct {
	data  []byte
	err   error
	calls int
}

func (f *fakeThumbs) Extract(ctx context.Context, videoPath string) ([]byte, error) {
	f.calls++
	return f.data, f.err
}

type fakeUploader struct {
	id  string
	err error
}

func (f *fakeUploader) Upload(ctx context.Context, userID, filePath, title, description string) (string, error) {
	return f.id, f.err
}

type opLog struct {
	logType, status, videoKey, message string
}

type fakeRepo struct {
	finals    map[string]string // video_key → title
	marked    map[string]string // video_key → youtube id
	ops       []opLog
	insertErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{finals: make(map[string]string), marked: make(map[string]string)}
}

func (f *fakeRepo) InsertFinalVideo(ctx context.Context, videoKey, userID, title, description string) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.finals[videoKey] = title
	return nil
}

func (f *fakeRepo) MarkYouTubeUploaded(ctx context.Context, videoKey, youtubeID string) error {
	f.marked[videoKey] = youtubeID
	return nil
}

func (f *fakeRepo) InsertOperationLog(ctx context.Context, userID, logType, status, videoKey, message string) error {
	f.ops = append(f.ops, opLog{logType: logType, status: status, videoKey: videoKey, message: message})
	return nil
}

type testEnv struct {
	handler  *Handler
	registry *registry.Registry
	provider *fakeProvider
	store    *fakeStore
	queue    *fakeQueue
	thumbs   *fakeThumbs
	uploader *fakeUploader
	repo     *fakeRepo
	router   *gin.Engine
}

// stubAuth injects a fixed verified identity, standing in for the JWT
// middleware.
func stubAuth(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	}
}

func newTestEnv(userID string) *testEnv {
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		registry: registry.New(),
		provider: &fakeProvider{assets: make(map[string][]byte)},
		store:    newFakeStore(),
		queue:    newFakeQueue(),
		thumbs:   &fakeThumbs{data: []byte("jpeg-bytes")},
		uploader: &fakeUploader{id: "yt-1"},
		repo:     newFakeRepo(),
	}
	env.handler = NewHandler(env.registry, env.provider, env.store, env.queue,
		env.thumbs, env.uploader, env.repo, zap.NewNop())

	env.router = gin.New()
	env.handler.RegisterRoutes(env.router, stubAuth(userID))
	return env
}

func (e *testEnv) do(method, path string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

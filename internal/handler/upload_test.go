package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestUploadYouTube(t *testing.T) {
	env := newTestEnv("u1")
	env.store.videos["u1/abc123_processed.mp4"] = []byte("mp4-bytes")
	env.uploader.id = "yt-42"

	body := `{"task_id":"abc123","type":"processed","title":"My Video"}`
	w := env.do(http.MethodPost, "/api/video/upload/youtube", strings.NewReader(body))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}

	var resp struct {
		Status    string `json:"status"`
		YouTubeID string `json:"youtube_video_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("undecodable response: %v", err)
	}
	if resp.Status != "UPLOADED" || resp.YouTubeID != "yt-42" {
		t.Errorf("unexpected response: %+v", resp)
	}

	if _, ok := env.repo.finals["u1/abc123_processed.mp4"]; !ok {
		t.Error("expected final_videos row recorded")
	}
	if got := env.repo.marked["u1/abc123_processed.mp4"]; got != "yt-42" {
		t.Errorf("expected video marked uploaded with yt-42, got %q", got)
	}
	if len(env.repo.ops) != 1 || env.repo.ops[0].status != "SUCCESS" {
		t.Errorf("expected one SUCCESS operation log, got %+v", env.repo.ops)
	}
}

func TestUploadYouTubeInvalidType(t *testing.T) {
	env := newTestEnv("u1")

	body := `{"task_id":"abc123","type":"bogus","title":"t"}`
	w := env.do(http.MethodPost, "/api/video/upload/youtube", strings.NewReader(body))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestUploadYouTubeMissingVideo(t *testing.T) {
	env := newTestEnv("u1")

	body := `{"task_id":"abc123","type":"original","title":"t"}`
	w := env.do(http.MethodPost, "/api/video/upload/youtube", strings.NewReader(body))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 when artifact absent, got %d", w.Code)
	}
}

func TestUploadYouTubeUploaderFailure(t *testing.T) {
	env := newTestEnv("u1")
	env.store.videos["u1/abc123.mp4"] = []byte("mp4")
	env.uploader.err = errors.New("quota exceeded")

	body := `{"task_id":"abc123","type":"original","title":"t"}`
	w := env.do(http.MethodPost, "/api/video/upload/youtube", strings.NewReader(body))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if len(env.repo.ops) != 1 || env.repo.ops[0].status != "FAIL" {
		t.Errorf("expected one FAIL operation log, got %+v", env.repo.ops)
	}
	if len(env.repo.marked) != 0 {
		t.Error("expected no uploaded mark after failure")
	}
}

package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSubmitTask(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantTaskID string
		wantProto  bool
		wantErr    bool
	}{
		{
			name:       "success",
			status:     http.StatusOK,
			body:       `{"code":200,"data":{"taskId":"abc123"}}`,
			wantTaskID: "abc123",
		},
		{
			name:    "provider 500",
			status:  http.StatusInternalServerError,
			body:    `{"code":500}`,
			wantErr: true,
		},
		{
			name:      "missing task id",
			status:    http.StatusOK,
			body:      `{"code":200,"data":{}}`,
			wantProto: true,
		},
		{
			name:      "garbage body",
			status:    http.StatusOK,
			body:      `not json`,
			wantProto: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotAuth string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotAuth = r.Header.Get("Authorization")

				var req createTaskRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Errorf("undecodable submit body: %v", err)
				}
				if req.Input.Prompt != "a cat on the moon" {
					t.Errorf("expected prompt in request, got %q", req.Input.Prompt)
				}
				if req.CallbackURL != "http://gw/api/video/callback" {
					t.Errorf("unexpected callback url %q", req.CallbackURL)
				}

				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, "test-key", "http://gw/api/video/callback")
			taskID, err := c.SubmitTask(context.Background(), "a cat on the moon")

			if tt.wantProto {
				var pe *ProtocolError
				if !errors.As(err, &pe) {
					t.Fatalf("expected ProtocolError, got %v", err)
				}
				return
			}
			if tt.wantErr {
				var e *Error
				if !errors.As(err, &e) {
					t.Fatalf("expected provider Error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if taskID != tt.wantTaskID {
				t.Errorf("expected task id %q, got %q", tt.wantTaskID, taskID)
			}
			if gotAuth != "Bearer test-key" {
				t.Errorf("expected bearer auth header, got %q", gotAuth)
			}
		})
	}
}

func TestFetchAsset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.mp4" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("video-bytes"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", "cb")

	body, err := c.FetchAsset(context.Background(), srv.URL+"/ok.mp4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body.Close()

	if _, err := c.FetchAsset(context.Background(), srv.URL+"/missing.mp4"); err == nil {
		t.Error("expected error on 404 asset")
	}
}

func TestCallbackResultURLs(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		wantURLs []string
		wantErr  bool
	}{
		{
			name:     "direct info encoding",
			payload:  `{"code":200,"data":{"taskId":"t1","info":{"resultUrls":["http://x/video.mp4"]}}}`,
			wantURLs: []string{"http://x/video.mp4"},
		},
		{
			name:     "embedded resultJson encoding",
			payload:  `{"code":200,"data":{"taskId":"t1","resultJson":"{\"resultUrls\":[\"http://y/a.mp4\",\"http://y/b.mp4\"]}"}}`,
			wantURLs: []string{"http://y/a.mp4", "http://y/b.mp4"},
		},
		{
			name:    "neither encoding present",
			payload: `{"code":200,"data":{"taskId":"t1"}}`,
			wantErr: true,
		},
		{
			name:    "empty direct list",
			payload: `{"code":200,"data":{"taskId":"t1","info":{"resultUrls":[]}}}`,
			wantErr: true,
		},
		{
			name:    "undecodable embedded json",
			payload: `{"code":200,"data":{"taskId":"t1","resultJson":"{broken"}}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p CallbackPayload
			if err := json.Unmarshal([]byte(tt.payload), &p); err != nil {
				t.Fatalf("unmarshal payload: %v", err)
			}

			urls, err := p.Data.ResultURLs()
			if tt.wantErr {
				if !errors.Is(err, ErrNoResult) {
					t.Fatalf("expected ErrNoResult, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(urls) != len(tt.wantURLs) {
				t.Fatalf("expected %d urls, got %d", len(tt.wantURLs), len(urls))
			}
			for i := range urls {
				if urls[i] != tt.wantURLs[i] {
					t.Errorf("url %d: expected %q, got %q", i, tt.wantURLs[i], urls[i])
				}
			}
		})
	}
}

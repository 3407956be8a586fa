// Package provider talks to the external video-generation service (KIE).
// Generation is asynchronous: SubmitTask only yields a provider-assigned
// task ID, and the finished asset is announced later through the webhook
// callback. The client never polls.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultModel       = "grok-imagine/text-to-video"
	defaultAspectRatio = "9:16"
	defaultDuration    = 5
	defaultFPS         = 24

	submitTimeout   = 30 * time.Second
	downloadTimeout = 120 * time.Second
)

// Error reports a transport failure or non-success response from the
// provider. Surfaced to callers as a gateway error.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("provider: %s: %v", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// ProtocolError reports a well-transported but malformed provider
// response, e.g. a success body that carries no task ID.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string { return "provider: " + e.Reason }

type Client struct {
	baseURL     string
	apiKey      string
	callbackURL string
	submitHTTP  *http.Client
	assetHTTP   *http.Client
}

func NewClient(baseURL, apiKey, callbackURL string) *Client {
	return &Client{
		baseURL:     baseURL,
		apiKey:      apiKey,
		callbackURL: callbackURL,
		submitHTTP:  &http.Client{Timeout: submitTimeout},
		assetHTTP:   &http.Client{Timeout: downloadTimeout},
	}
}

type createTaskRequest struct {
	Model       string          `json:"model"`
	Input       createTaskInput `json:"input"`
	CallbackURL string          `json:"callBackUrl"`
}

type createTaskInput struct {
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspect_ratio"`
	Duration    int    `json:"duration"`
	FPS         int    `json:"fps"`
	Mode        string `json:"mode"`
}

type createTaskResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		TaskID string `json:"taskId"`
	} `json:"data"`
}

// SubmitTask submits a text-to-video generation request and returns the
// provider task ID.
func (c *Client) SubmitTask(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(createTaskRequest{
		Model: defaultModel,
		Input: createTaskInput{
			Prompt:      prompt,
			AspectRatio: defaultAspectRatio,
			Duration:    defaultDuration,
			FPS:         defaultFPS,
			Mode:        "normal",
		},
		CallbackURL: c.callbackURL,
	})
	if err != nil {
		return "", &Error{Op: "marshal request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", &Error{Op: "build request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.submitHTTP.Do(req)
	if err != nil {
		return "", &Error{Op: "create task", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &Error{Op: "create task", Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	var parsed createTaskResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", &ProtocolError{Reason: fmt.Sprintf("undecodable response: %v", err)}
	}
	if parsed.Data.TaskID == "" {
		return "", &ProtocolError{Reason: "response carries no taskId"}
	}
	return parsed.Data.TaskID, nil
}

// FetchAsset opens the finished asset at url for reading. The caller must
// close the returned body. Uses the long asset-transfer timeout.
func (c *Client) FetchAsset(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{Op: "build asset request", Err: err}
	}

	resp, err := c.assetHTTP.Do(req)
	if err != nil {
		return nil, &Error{Op: "fetch asset", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &Error{Op: "fetch asset", Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
	return resp.Body, nil
}

package provider

import (
	"encoding/json"
	"errors"
)

// ErrNoResult is returned when a callback payload matches neither known
// result encoding or decodes to an empty URL list.
var ErrNoResult = errors.New("provider: callback carries no result URLs")

// CallbackPayload is the webhook body the provider posts when a
// generation task finishes or fails.
type CallbackPayload struct {
	Code int          `json:"code"`
	Msg  string       `json:"msg"`
	Data CallbackData `json:"data"`
}

type CallbackData struct {
	TaskID string        `json:"taskId"`
	Info   *CallbackInfo `json:"info,omitempty"`
	// ResultJSON is the second encoding observed in the wild: the result
	// object serialized again as a JSON string inside the payload.
	ResultJSON string `json:"resultJson,omitempty"`
}

type CallbackInfo struct {
	ResultURLs []string `json:"resultUrls"`
}

// Succeeded reports whether the provider marked the task as successful.
func (p *CallbackPayload) Succeeded() bool { return p.Code == 200 }

// ResultURLs extracts the result URL list from whichever encoding the
// payload uses: the direct data.info.resultUrls list, or the
// data.resultJson embedded JSON string. ErrNoResult when neither is
// present or the list is empty.
func (d *CallbackData) ResultURLs() ([]string, error) {
	if d.Info != nil {
		if len(d.Info.ResultURLs) == 0 {
			return nil, ErrNoResult
		}
		return d.Info.ResultURLs, nil
	}

	if d.ResultJSON != "" {
		var inner CallbackInfo
		if err := json.Unmarshal([]byte(d.ResultJSON), &inner); err != nil {
			return nil, ErrNoResult
		}
		if len(inner.ResultURLs) == 0 {
			return nil, ErrNoResult
		}
		return inner.ResultURLs, nil
	}

	return nil, ErrNoResult
}

package models

import "fmt"

type TaskStatus string

const (
	StatusQueued      TaskStatus = "QUEUED"
	StatusQueuedForAI TaskStatus = "QUEUED_FOR_AI"
	StatusPartial     TaskStatus = "PARTIAL"
	StatusDone        TaskStatus = "DONE"
	StatusFailed      TaskStatus = "FAILED"
	StatusPending     TaskStatus = "PENDING"
)

// Task is one generation request tracked in the in-memory registry.
// The task ID is assigned by the generation provider at submission time
// and doubles as the storage key prefix for every artifact of the task.
type Task struct {
	TaskID string     `json:"task_id"`
	UserID string     `json:"user_id"`
	Status TaskStatus `json:"status"`
}

// Variant selects which downstream transformation a job applies.
type Variant string

const (
	VariantV1 Variant = "v1"
	VariantV2 Variant = "v2"
)

// JobMessage is the wire format published to the processing queue.
type JobMessage struct {
	TaskID    string  `json:"task_id"`
	UserID    string  `json:"user_id"`
	InputKey  string  `json:"input_key"`
	OutputKey string  `json:"output_key"`
	Variant   Variant `json:"variant"`
}

// Object key layout. Originals and processed variants live in the videos
// bucket, thumbnails in the thumbnails bucket, both keyed per user.

func VideoKey(userID, taskID string) string {
	return fmt.Sprintf("%s/%s.mp4", userID, taskID)
}

func ProcessedKey(userID, taskID string) string {
	return fmt.Sprintf("%s/%s_processed.mp4", userID, taskID)
}

func ProcessedV2Key(userID, taskID string) string {
	return fmt.Sprintf("%s/%s_processed_v2.mp4", userID, taskID)
}

func ThumbnailKey(userID, taskID string) string {
	return fmt.Sprintf("%s/%s.jpg", userID, taskID)
}

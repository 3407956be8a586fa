package registry

import (
	"sync"

	"video-orchestrator/internal/models"
)

// Registry is the volatile task table. It is authoritative only for the
// lifetime of the process; the status endpoint treats it as a hint and
// probes object storage for durable progress. Entries are never evicted.
type Registry struct {
	mu    sync.RWMutex
	tasks map[string]models.Task
}

func New() *Registry {
	return &Registry{tasks: make(map[string]models.Task)}
}

// Create registers a task. An existing entry with the same ID is
// overwritten; provider task IDs are unique within a registry lifetime.
func (r *Registry) Create(taskID, userID string) models.Task {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := models.Task{TaskID: taskID, UserID: userID, Status: models.StatusQueued}
	r.tasks[taskID] = t
	return t
}

func (r *Registry) Get(taskID string) (models.Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[taskID]
	return t, ok
}

// UpdateStatus transitions the task to status and reports whether the
// task was present. The read-modify-write runs under the lock so a
// concurrent callback and status read cannot lose an update.
func (r *Registry) UpdateStatus(taskID string, status models.TaskStatus) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[taskID]
	if !ok {
		return false
	}
	t.Status = status
	r.tasks[taskID] = t
	return true
}

// Len reports the number of registered tasks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}

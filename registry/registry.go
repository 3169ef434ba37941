// Package registry implements the process-wide background task table: at
// most one in-flight task per input file name, polled to completion via a
// task ID. Grounded on original_source/utils/task.py's
// start/has_task/collect_result/run, per spec.md §5's scheduling and
// shared-resource rules.
package registry

import (
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Result is a finished task's outcome.
type Result struct {
	Value any
	Err   error
}

type task struct {
	file string
	done chan struct{}
	result
}

type result struct {
	value any
	err   error
}

// Registry tracks at most one active task per file name.
type Registry struct {
	mu           sync.Mutex
	fileToTaskID map[string]string
	tasks        map[string]*task
	group        singleflight.Group
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		fileToTaskID: make(map[string]string),
		tasks:        make(map[string]*task),
	}
}

// Start registers file as having an active task and runs fn in the
// background, returning its task ID. ok is false without starting anything
// if file already has an in-flight task, matching spec.md §5's "attempts to
// start a second yield a rejection."
func (r *Registry) Start(file string, fn func() (any, error)) (taskID string, ok bool) {
	r.mu.Lock()
	if _, exists := r.fileToTaskID[file]; exists {
		r.mu.Unlock()
		return "", false
	}
	taskID = uuid.NewString()
	r.fileToTaskID[file] = taskID
	r.tasks[taskID] = &task{file: file, done: make(chan struct{})}
	r.mu.Unlock()

	go r.run(taskID, file, fn)
	return taskID, true
}

func (r *Registry) run(taskID, file string, fn func() (any, error)) {
	// singleflight.Group dedupes by file rather than task ID: since Start
	// already rejects a second task for the same file while one is
	// in-flight, this only ever runs fn once per key at a time — it buys
	// the atomic "register, then launch" shape spec.md §5 asks for
	// without a second hand-rolled state map.
	value, err, _ := r.group.Do(file, fn)

	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[taskID]
	if !ok {
		return
	}
	t.value, t.err = value, err
	close(t.done)
}

// TaskIDForFile reports the active task ID registered for file, if any.
// The HTTP front-end's `/collect` endpoint addresses tasks by file name
// (per spec.md §6), so it looks the task ID up through this before calling
// Has/Collect.
func (r *Registry) TaskIDForFile(file string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	taskID, ok := r.fileToTaskID[file]
	return taskID, ok
}

// Has reports whether taskID names a still-tracked task (running or
// finished but not yet collected).
func (r *Registry) Has(taskID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tasks[taskID]
	return ok
}

// Collect reports a finished task's result and removes it from the
// registry (freeing its file name for a new Start), or finished=false if
// the task is still running or unknown.
func (r *Registry) Collect(taskID string) (res *Result, finished bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[taskID]
	if !ok {
		return nil, false
	}
	select {
	case <-t.done:
	default:
		return nil, false
	}

	delete(r.fileToTaskID, t.file)
	delete(r.tasks, taskID)
	return &Result{Value: t.value, Err: t.err}, true
}

package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartRejectsSecondTaskForSameFile(t *testing.T) {
	r := New()
	release := make(chan struct{})

	_, ok := r.Start("a.pdf", func() (any, error) {
		<-release
		return "done", nil
	})
	require.True(t, ok)

	_, ok = r.Start("a.pdf", func() (any, error) { return nil, nil })
	assert.False(t, ok, "a second task for the same file must be rejected while one is in flight")

	close(release)
}

func TestStartAllowsDifferentFilesConcurrently(t *testing.T) {
	r := New()
	_, ok1 := r.Start("a.pdf", func() (any, error) { return nil, nil })
	_, ok2 := r.Start("b.pdf", func() (any, error) { return nil, nil })
	assert.True(t, ok1)
	assert.True(t, ok2)
}

func TestCollectReturnsResultAndFreesFileName(t *testing.T) {
	r := New()
	taskID, ok := r.Start("a.pdf", func() (any, error) { return "value", nil })
	require.True(t, ok)

	require.Eventually(t, func() bool {
		_, finished := r.Collect(taskID)
		return finished
	}, time.Second, time.Millisecond, "task should finish quickly")

	// Collect already removed it; a fresh Start for the same file name
	// must now succeed.
	_, ok = r.Start("a.pdf", func() (any, error) { return nil, nil })
	assert.True(t, ok)
}

func TestCollectReportsError(t *testing.T) {
	r := New()
	taskID, ok := r.Start("a.pdf", func() (any, error) { return nil, assert.AnError })
	require.True(t, ok)

	require.Eventually(t, func() bool {
		res, finished := r.Collect(taskID)
		return finished && res.Err != nil
	}, time.Second, time.Millisecond)
}

func TestCollectUnknownTaskIsNotFinished(t *testing.T) {
	r := New()
	_, finished := r.Collect("no-such-task")
	assert.False(t, finished)
}

func TestTaskIDForFile(t *testing.T) {
	r := New()
	taskID, ok := r.Start("a.pdf", func() (any, error) {
		time.Sleep(50 * time.Millisecond)
		return nil, nil
	})
	require.True(t, ok)

	got, hasTask := r.TaskIDForFile("a.pdf")
	assert.True(t, hasTask)
	assert.Equal(t, taskID, got)

	_, hasTask = r.TaskIDForFile("unknown.pdf")
	assert.False(t, hasTask)
}

func TestHasReflectsLifecycle(t *testing.T) {
	r := New()
	taskID, ok := r.Start("a.pdf", func() (any, error) { return nil, nil })
	require.True(t, ok)
	assert.True(t, r.Has(taskID))

	require.Eventually(t, func() bool {
		_, finished := r.Collect(taskID)
		return finished
	}, time.Second, time.Millisecond)

	assert.False(t, r.Has(taskID))
}

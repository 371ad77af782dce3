package interp

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rasterkit/mapalg/internal/compiler"
	"github.com/rasterkit/mapalg/internal/raster"
)

func compileGradient(t *testing.T, out *raster.Image) *compiler.Program {
	t.Helper()
	program, err := compiler.New().Compile("result = x() + y();", map[string]*raster.Image{
		"result": out,
	})
	require.NoError(t, err)
	return program
}

func TestSubmitAndComplete(t *testing.T) {
	out := raster.New(3, 3)
	program := compileGradient(t, out)

	in := New(2)
	id, err := in.Submit(program)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)

	event := <-in.Events()
	assert.Equal(t, EventCompleted, event.Kind)
	assert.Equal(t, id, event.JobID)
	assert.Same(t, program, event.Program)
	assert.NoError(t, event.Err)

	assert.Equal(t, 4.0, out.Get(2, 2))
	in.Shutdown()
}

func TestSubmitMany(t *testing.T) {
	in := New(4)
	ids := make(map[uuid.UUID]bool)
	const jobs = 8

	done := make(chan struct{})
	seen := make(map[uuid.UUID]bool)
	go func() {
		defer close(done)
		for event := range in.Events() {
			assert.Equal(t, EventCompleted, event.Kind)
			seen[event.JobID] = true
		}
	}()

	for i := 0; i < jobs; i++ {
		program := compileGradient(t, raster.New(2, 2))
		id, err := in.Submit(program)
		require.NoError(t, err)
		ids[id] = true
	}
	in.Shutdown()
	<-done

	assert.Len(t, ids, jobs, "job IDs must be unique")
	assert.Equal(t, ids, seen)
}

func TestSubmitBeyondQueueDepth(t *testing.T) {
	// More submissions than the job buffer holds, against one worker.
	// A Submit blocked on a full queue must not keep that worker from
	// finishing its current job.
	in := New(1)
	programs := make([]*compiler.Program, 10)
	for i := range programs {
		programs[i] = compileGradient(t, raster.New(2, 2))
	}

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for range in.Events() {
		}
	}()

	submitted := make(chan struct{})
	go func() {
		defer close(submitted)
		for _, program := range programs {
			_, err := in.Submit(program)
			assert.NoError(t, err)
		}
	}()

	select {
	case <-submitted:
	case <-time.After(10 * time.Second):
		t.Fatal("submissions stalled behind a full job queue")
	}
	in.Shutdown()
	<-drained
}

func TestFailedJobEmitsFailure(t *testing.T) {
	// A program with no output image compiles but cannot run.
	program, err := compiler.New().Compile("a = 1;", nil)
	require.NoError(t, err)

	in := New(1)
	id, err := in.Submit(program)
	require.NoError(t, err)

	event := <-in.Events()
	assert.Equal(t, EventFailed, event.Kind)
	assert.Equal(t, id, event.JobID)
	assert.Error(t, event.Err)
	in.Shutdown()
}

func TestCancelUnknownJob(t *testing.T) {
	in := New(1)
	defer in.Shutdown()
	assert.False(t, in.Cancel(uuid.New()))
}

func TestCancelQueuedJob(t *testing.T) {
	// One worker: the first job occupies it long enough for the second
	// to be canceled while still queued.
	in := New(1)

	slow := compileGradient(t, raster.New(2000, 2000))
	_, err := in.Submit(slow)
	require.NoError(t, err)

	victim, err := in.Submit(compileGradient(t, raster.New(2, 2)))
	require.NoError(t, err)
	require.True(t, in.Cancel(victim))

	// Shutdown still drains queued jobs; the canceled one fails fast.
	go in.Shutdown()
	var canceled *Event
	for event := range in.Events() {
		if event.JobID == victim {
			e := event
			canceled = &e
		}
	}
	require.NotNil(t, canceled)
	assert.Equal(t, EventFailed, canceled.Kind)
	assert.ErrorIs(t, canceled.Err, context.Canceled)
}

func TestSubmitAfterShutdown(t *testing.T) {
	in := New(1)
	in.Shutdown()

	program, err := compiler.New().Compile("a = 1;", nil)
	require.NoError(t, err)
	_, err = in.Submit(program)
	assert.ErrorIs(t, err, ErrShutdown)
}

func TestShutdownClosesEvents(t *testing.T) {
	in := New(1)
	in.Shutdown()

	select {
	case _, open := <-in.Events():
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("events channel not closed after shutdown")
	}
}

func TestShutdownIdempotent(t *testing.T) {
	in := New(1)
	in.Shutdown()
	in.Shutdown() // must not panic
}

func TestSharedProgramAcrossJobs(t *testing.T) {
	// One compiled program may back many jobs. A single worker keeps the
	// shared output image race-free.
	out := raster.New(8, 8)
	program := compileGradient(t, out)

	in := New(1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range in.Events() {
		}
	}()
	for i := 0; i < 6; i++ {
		_, err := in.Submit(program)
		require.NoError(t, err)
	}
	in.Shutdown()
	<-done

	assert.Equal(t, 14.0, out.Get(7, 7))
}

// Package interp runs compiled programs asynchronously. Submitted
// programs are executed on a fixed pool of worker goroutines and a
// completion or failure event is emitted per job. Individual jobs can be
// canceled while queued or running.
//
// Compiled programs are immutable, so any number of jobs may share one
// program; jobs sharing a program also share its output images. Callers
// must drain Events; workers block on the event channel once its buffer
// fills.
package interp

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rasterkit/mapalg/internal/compiler"
)

// ErrShutdown is returned by Submit after Shutdown has been called.
var ErrShutdown = errors.New("interpreter is shut down")

// EventKind distinguishes job outcomes.
type EventKind uint8

const (
	// EventCompleted means the job ran to completion.
	EventCompleted EventKind = iota
	// EventFailed means the job's execution returned an error.
	EventFailed
)

// Event reports the outcome of one submitted job.
type Event struct {
	Kind    EventKind
	JobID   uuid.UUID
	Program *compiler.Program
	Err     error // Non-nil only for EventFailed
}

type job struct {
	id      uuid.UUID
	program *compiler.Program
	ctx     context.Context
}

// Interpreter schedules compiled programs onto worker goroutines.
type Interpreter struct {
	logger *zap.Logger
	jobs   chan job
	events chan Event
	wg     sync.WaitGroup

	mu      sync.Mutex
	closed  bool
	sending sync.WaitGroup // Submits past the closed check, not yet on jobs
	cancels map[uuid.UUID]context.CancelFunc
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithLogger sets the logger used for job tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(in *Interpreter) { in.logger = logger }
}

// New starts an interpreter with the given number of workers.
func New(workers int, opts ...Option) *Interpreter {
	if workers < 1 {
		workers = 1
	}
	in := &Interpreter{
		logger:  zap.NewNop(),
		jobs:    make(chan job, workers*2),
		events:  make(chan Event, workers*2),
		cancels: make(map[uuid.UUID]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(in)
	}
	in.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go in.worker()
	}
	return in
}

// Events returns the channel job outcomes are delivered on. It is closed
// by Shutdown after all in-flight jobs have finished.
func (in *Interpreter) Events() <-chan Event {
	return in.events
}

// Submit queues a compiled program for execution and returns its job ID.
// It may block until a worker frees queue space.
func (in *Interpreter) Submit(program *compiler.Program) (uuid.UUID, error) {
	in.mu.Lock()
	if in.closed {
		in.mu.Unlock()
		return uuid.Nil, ErrShutdown
	}
	id := uuid.New()
	ctx, cancel := context.WithCancel(context.Background())
	in.cancels[id] = cancel
	in.sending.Add(1)
	in.mu.Unlock()

	// The send happens outside the lock. Workers take the lock in finish,
	// so a Submit blocked on a full queue must not hold it.
	in.jobs <- job{id: id, program: program, ctx: ctx}
	in.sending.Done()
	in.logger.Debug("job submitted", zap.String("job_id", id.String()))
	return id, nil
}

// Cancel aborts a queued or running job. A canceled job still emits an
// event, with a context error. It reports whether the job was found.
func (in *Interpreter) Cancel(id uuid.UUID) bool {
	in.mu.Lock()
	cancel, ok := in.cancels[id]
	in.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

func (in *Interpreter) finish(id uuid.UUID) {
	in.mu.Lock()
	if cancel, ok := in.cancels[id]; ok {
		cancel()
		delete(in.cancels, id)
	}
	in.mu.Unlock()
}

// Shutdown stops accepting jobs, waits for in-flight jobs to finish, and
// closes the event channel.
func (in *Interpreter) Shutdown() {
	in.mu.Lock()
	if in.closed {
		in.mu.Unlock()
		return
	}
	in.closed = true
	in.mu.Unlock()

	// Submits that passed the closed check still own a pending send.
	in.sending.Wait()
	close(in.jobs)
	in.wg.Wait()
	close(in.events)
}

func (in *Interpreter) worker() {
	defer in.wg.Done()
	for j := range in.jobs {
		err := j.program.RunContext(j.ctx)
		in.finish(j.id)
		if err != nil {
			in.logger.Debug("job failed", zap.String("job_id", j.id.String()), zap.Error(err))
			in.events <- Event{Kind: EventFailed, JobID: j.id, Program: j.program, Err: err}
			continue
		}
		in.logger.Debug("job completed", zap.String("job_id", j.id.String()))
		in.events <- Event{Kind: EventCompleted, JobID: j.id, Program: j.program}
	}
}

// Package jobx is a minimal background job queue: typed kinds, JSON
// payloads, a pluggable backend and a single worker loop. It exists so
// request handlers can hand work off without blocking a response stream.
package jobx

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Abraxas-365/chatstream/pkg/logx"
	"github.com/google/uuid"
)

// Job is one queued unit of work
type Job struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueuedAt"`
}

// NewJob builds a job with a JSON-encoded payload
func NewJob(kind string, payload any) (Job, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Job{}, err
	}
	return Job{
		ID:         uuid.NewString(),
		Kind:       kind,
		Payload:    data,
		EnqueuedAt: time.Now().UTC(),
	}, nil
}

// Queue is a job backend
type Queue interface {
	Enqueue(ctx context.Context, job Job) error

	// Dequeue blocks until a job is available or ctx is done
	Dequeue(ctx context.Context) (Job, error)
}

// Handler processes one job kind
type Handler func(ctx context.Context, job Job) error

// Worker drains a queue, dispatching jobs by kind
type Worker struct {
	queue    Queue
	handlers map[string]Handler
}

// NewWorker creates a worker over a queue
func NewWorker(queue Queue) *Worker {
	return &Worker{
		queue:    queue,
		handlers: make(map[string]Handler),
	}
}

// Register binds a handler to a job kind
func (w *Worker) Register(kind string, handler Handler) {
	w.handlers[kind] = handler
}

// Run processes jobs until ctx is done. Handler failures are logged and
// the job is dropped; this queue carries best-effort work only.
func (w *Worker) Run(ctx context.Context) {
	for {
		job, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logx.WithError(err).Warn("job dequeue failed")
			continue
		}

		handler, ok := w.handlers[job.Kind]
		if !ok {
			logx.WithField("kind", job.Kind).Warn("no handler for job kind")
			continue
		}

		if err := handler(ctx, job); err != nil {
			logx.WithFields(logx.Fields{"kind": job.Kind, "job_id": job.ID}).
				WithError(err).Error("job failed")
		}
	}
}

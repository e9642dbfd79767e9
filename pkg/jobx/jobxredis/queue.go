// Package jobxredis backs the jobx queue with a Redis list.
package jobxredis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Abraxas-365/chatstream/pkg/jobx"
	"github.com/redis/go-redis/v9"
)

const defaultKey = "chatstream:jobs"

// Queue is a Redis-list-backed jobx.Queue
type Queue struct {
	client *redis.Client
	key    string
}

// NewQueue creates a queue over an existing Redis client
func NewQueue(client *redis.Client) *Queue {
	return &Queue{client: client, key: defaultKey}
}

// Enqueue pushes one job
func (q *Queue) Enqueue(ctx context.Context, job jobx.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.key, data).Err()
}

// Dequeue blocks on the list until a job arrives or ctx is done. The
// block uses a short timeout loop so cancellation is honored promptly.
func (q *Queue) Dequeue(ctx context.Context) (jobx.Job, error) {
	for {
		values, err := q.client.BRPop(ctx, 2*time.Second, q.key).Result()
		if errors.Is(err, redis.Nil) {
			if ctx.Err() != nil {
				return jobx.Job{}, ctx.Err()
			}
			continue
		}
		if err != nil {
			return jobx.Job{}, err
		}

		var job jobx.Job
		if err := json.Unmarshal([]byte(values[1]), &job); err != nil {
			return jobx.Job{}, err
		}
		return job, nil
	}
}

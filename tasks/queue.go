package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	queueKey        = "scans:queue"
	resultKeyPrefix = "scans:result:"

	// poll results stay around long enough for a slow frontend to collect them
	defaultResultTTL = 24 * time.Hour
)

type TaskState string

const (
	StateProcessing TaskState = "processing"
	StateSucceeded  TaskState = "succeeded"
	StateFailed     TaskState = "failed"
)

// ScanRequest is the job payload travelling through the queue.
type ScanRequest struct {
	TaskID     string `json:"task_id"`
	MemberUUID string `json:"member_uuid"`
	Email      string `json:"email,omitempty"`
}

// TaskStatus is what pollers see: non-terminal processing, or a terminal
// result/error.
type TaskStatus struct {
	TaskID string      `json:"task_id"`
	State  TaskState   `json:"state"`
	Result *ScanResult `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

var ErrTaskNotFound = errors.New("tasks: task not found")

// Queue is a Redis-list backed job queue with a per-task result store. The
// API process enqueues; the worker process consumes.
type Queue struct {
	rdb       *redis.Client
	resultTTL time.Duration
}

func NewQueue(rdb *redis.Client) *Queue {
	return &Queue{rdb: rdb, resultTTL: defaultResultTTL}
}

// Enqueue registers the task as processing and pushes it onto the queue,
// returning the task id the caller polls with.
func (q *Queue) Enqueue(ctx context.Context, memberUUID, email string) (string, error) {
	req := ScanRequest{
		TaskID:     uuid.NewString(),
		MemberUUID: memberUUID,
		Email:      email,
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	if err := q.setStatus(ctx, TaskStatus{TaskID: req.TaskID, State: StateProcessing}); err != nil {
		return "", err
	}
	if err := q.rdb.LPush(ctx, queueKey, payload).Err(); err != nil {
		return "", err
	}
	return req.TaskID, nil
}

// Dequeue blocks up to timeout for the next job. A nil request with nil error
// means the timeout elapsed with an empty queue.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*ScanRequest, error) {
	vals, err := q.rdb.BRPop(ctx, timeout, queueKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var req ScanRequest
	if err := json.Unmarshal([]byte(vals[1]), &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (q *Queue) SetSucceeded(ctx context.Context, taskID string, result *ScanResult) error {
	return q.setStatus(ctx, TaskStatus{TaskID: taskID, State: StateSucceeded, Result: result})
}

func (q *Queue) SetFailed(ctx context.Context, taskID string, taskErr error) error {
	return q.setStatus(ctx, TaskStatus{TaskID: taskID, State: StateFailed, Error: taskErr.Error()})
}

// Status looks up a task by id.
func (q *Queue) Status(ctx context.Context, taskID string) (*TaskStatus, error) {
	data, err := q.rdb.Get(ctx, resultKeyPrefix+taskID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}

	var status TaskStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (q *Queue) setStatus(ctx context.Context, status TaskStatus) error {
	payload, err := json.Marshal(status)
	if err != nil {
		return err
	}
	return q.rdb.Set(ctx, resultKeyPrefix+status.TaskID, payload, q.resultTTL).Err()
}

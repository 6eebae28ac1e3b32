package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/huangang/caseeval/internal/config"
	"github.com/huangang/caseeval/pkg/logger"
)

const (
	TaskTypeRecalculate = "evaluation:recalculate"
)

// RecalculateTask asks a worker to refresh the stored totals of all evaluations.
type RecalculateTask struct {
	RequestedBy uint      `json:"requested_by"`
	BatchSize   int       `json:"batch_size"`
	Reason      string    `json:"reason,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// ErrRecalculationQueued is returned by Enqueue while an earlier
// recalculation is still waiting in the queue.
var ErrRecalculationQueued = errors.New("recalculation already queued")

type TaskProcessor func(context.Context, *RecalculateTask) error

type TaskQueue interface {
	Enqueue(task *RecalculateTask) error
	// IsAsync reports whether tasks leave the process (Redis) or run in-process.
	IsAsync() bool
	Close() error
}

var (
	globalTaskQueue TaskQueue
	taskQueueOnce   sync.Once
)

// InitTaskQueue picks the Redis queue when enabled and reachable, otherwise
// the in-process queue.
func InitTaskQueue(cfg *config.Config) TaskQueue {
	taskQueueOnce.Do(func() {
		if cfg.Redis.Enabled {
			queue, err := NewAsyncQueue(&cfg.Redis)
			if err != nil {
				logger.Warnf("[TaskQueue] Redis unavailable, falling back to sync mode: %v", err)
				globalTaskQueue = NewSyncQueue()
			} else {
				logger.Infof("[TaskQueue] Async queue initialized with Redis at %s", cfg.Redis.Addr)
				globalTaskQueue = queue
			}
		} else {
			logger.Infof("[TaskQueue] Sync queue initialized (Redis disabled)")
			globalTaskQueue = NewSyncQueue()
		}
	})
	return globalTaskQueue
}

func GetTaskQueue() TaskQueue {
	return globalTaskQueue
}

type AsyncQueue struct {
	client *asynq.Client
}

func NewAsyncQueue(cfg *config.RedisConfig) (*AsyncQueue, error) {
	redisOpt := redisClientOpt(cfg)
	client := asynq.NewClient(redisOpt)

	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()

	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncQueue{client: client}, nil
}

func (q *AsyncQueue) Enqueue(task *RecalculateTask) error {
	t, err := newRecalculateTask(task)
	if err != nil {
		return err
	}

	// Only one recalculation may wait in the queue at a time.
	info, err := q.client.Enqueue(t,
		asynq.Queue("default"),
		asynq.MaxRetry(3),
		asynq.Unique(10*time.Minute),
	)
	if err != nil {
		return enqueueError(err)
	}

	logger.Infof("[AsyncQueue] Task enqueued: id=%s, queue=%s", info.ID, info.Queue)
	return nil
}

func (q *AsyncQueue) IsAsync() bool {
	return true
}

func (q *AsyncQueue) Close() error {
	return q.client.Close()
}

// SyncQueue runs tasks on a goroutine of this process.
type SyncQueue struct {
	processor TaskProcessor
	wg        sync.WaitGroup
}

func NewSyncQueue() *SyncQueue {
	return &SyncQueue{}
}

func (q *SyncQueue) SetProcessor(processor TaskProcessor) {
	q.processor = processor
}

func (q *SyncQueue) Enqueue(task *RecalculateTask) error {
	if q.processor == nil {
		logger.Warnf("[SyncQueue] No processor set, task will be dropped")
		return nil
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		if err := q.processor(context.Background(), task); err != nil {
			logger.Errorf("[SyncQueue] Task processing failed: %v", err)
		}
	}()

	return nil
}

func (q *SyncQueue) IsAsync() bool {
	return false
}

// Close waits for in-flight tasks.
func (q *SyncQueue) Close() error {
	q.wg.Wait()
	return nil
}

func enqueueError(err error) error {
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return ErrRecalculationQueued
	}
	return err
}

func newRecalculateTask(task *RecalculateTask) (*asynq.Task, error) {
	payload, err := json.Marshal(task)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeRecalculate, payload), nil
}

func redisClientOpt(cfg *config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

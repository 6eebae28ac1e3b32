package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/huangang/caseeval/internal/config"
	"github.com/huangang/caseeval/pkg/logger"
)

// Worker consumes recalculation tasks from Redis.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	processor TaskProcessor
	wg        sync.WaitGroup
	running   bool
	mu        sync.Mutex
}

// NewWorker returns nil when Redis is disabled.
func NewWorker(cfg *config.RedisConfig) *Worker {
	if !cfg.Enabled {
		return nil
	}

	server := asynq.NewServer(
		redisClientOpt(cfg),
		asynq.Config{
			Concurrency: 2,
			Queues: map[string]int{
				"default": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Errorf("[Worker] Error processing task %s: %v", task.Type(), err)
			}),
		},
	)

	return &Worker{
		server: server,
		mux:    asynq.NewServeMux(),
	}
}

func (w *Worker) SetProcessor(processor TaskProcessor) {
	w.processor = processor
}

func (w *Worker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	w.mux.HandleFunc(TaskTypeRecalculate, w.handleRecalculateTask)

	w.running = true
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		logger.Infof("[Worker] Starting async worker...")
		if err := w.server.Run(w.mux); err != nil {
			logger.Errorf("[Worker] Server error: %v", err)
		}
	}()

	return nil
}

func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	logger.Infof("[Worker] Shutting down...")
	w.server.Shutdown()
	w.running = false
	w.wg.Wait()
	logger.Infof("[Worker] Shutdown complete")
}

func (w *Worker) handleRecalculateTask(ctx context.Context, t *asynq.Task) error {
	var task RecalculateTask
	if err := json.Unmarshal(t.Payload(), &task); err != nil {
		logger.Errorf("[Worker] Failed to unmarshal task: %v", err)
		return err
	}

	logger.Infof("[Worker] Processing recalculation: requested_by=%d, batch_size=%d", task.RequestedBy, task.BatchSize)

	if w.processor == nil {
		logger.Warnf("[Worker] No processor set")
		return nil
	}

	return w.processor(ctx, &task)
}

var (
	globalWorker *Worker
	workerOnce   sync.Once
)

func InitWorker(cfg *config.RedisConfig) *Worker {
	workerOnce.Do(func() {
		globalWorker = NewWorker(cfg)
	})
	return globalWorker
}

func GetWorker() *Worker {
	return globalWorker
}

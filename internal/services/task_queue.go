package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/huangang/ideahub/backend/internal/config"
	"github.com/huangang/ideahub/backend/pkg/logger"
)

const (
	TaskTypeDecisionNotification = "application:decided"
)

// NotificationTask describes one application decision to tell the applicant about.
type NotificationTask struct {
	ApplicationID  uint   `json:"application_id"`
	ProjectID      uint   `json:"project_id"`
	ProjectTitle   string `json:"project_title"`
	ApplicantEmail string `json:"applicant_email"`
	ApplicantName  string `json:"applicant_name"`
	Role           string `json:"role"`
	Decision       string `json:"decision"` // Accepted, Rejected
}

// TaskQueue defines the interface for notification delivery
type TaskQueue interface {
	// Enqueue adds a task to the queue
	Enqueue(task *NotificationTask) error
	// IsAsync returns true if queue processes tasks asynchronously
	IsAsync() bool
	// Close gracefully shuts down the queue
	Close() error
}

var (
	globalTaskQueue TaskQueue
	taskQueueOnce   sync.Once
)

// InitTaskQueue initializes the global task queue based on config
func InitTaskQueue(cfg *config.Config) TaskQueue {
	taskQueueOnce.Do(func() {
		if cfg.Redis.Enabled {
			queue, err := NewAsyncQueue(&cfg.Redis)
			if err != nil {
				logger.Warn().Err(err).Msg("[TaskQueue] Redis unavailable, falling back to sync mode")
				globalTaskQueue = NewSyncQueue()
			} else {
				logger.Info().Str("addr", cfg.Redis.Addr).Msg("[TaskQueue] Async queue initialized")
				globalTaskQueue = queue
			}
		} else {
			logger.Info().Msg("[TaskQueue] Sync queue initialized (Redis disabled)")
			globalTaskQueue = NewSyncQueue()
		}
	})
	return globalTaskQueue
}

// GetTaskQueue returns the global task queue instance
func GetTaskQueue() TaskQueue {
	return globalTaskQueue
}

func redisOpt(cfg *config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// AsyncQueue implements TaskQueue using asynq (Redis-based)
type AsyncQueue struct {
	client *asynq.Client
}

// NewAsyncQueue creates a new Redis-based async queue
func NewAsyncQueue(cfg *config.RedisConfig) (*AsyncQueue, error) {
	opt := redisOpt(cfg)
	client := asynq.NewClient(opt)

	inspector := asynq.NewInspector(opt)
	defer inspector.Close()

	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncQueue{client: client}, nil
}

func (q *AsyncQueue) Enqueue(task *NotificationTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}

	t := asynq.NewTask(TaskTypeDecisionNotification, payload)
	info, err := q.client.Enqueue(t,
		asynq.Queue("notifications"),
		asynq.MaxRetry(5),
	)
	if err != nil {
		return err
	}

	logger.Debug().Str("task_id", info.ID).Str("queue", info.Queue).Msg("[AsyncQueue] Task enqueued")
	return nil
}

func (q *AsyncQueue) IsAsync() bool {
	return true
}

func (q *AsyncQueue) Close() error {
	return q.client.Close()
}

// SyncQueue implements TaskQueue in-process (no Redis)
type SyncQueue struct {
	processor func(context.Context, *NotificationTask) error
	wg        sync.WaitGroup
}

func NewSyncQueue() *SyncQueue {
	return &SyncQueue{}
}

// SetProcessor sets the function that delivers tasks
func (q *SyncQueue) SetProcessor(processor func(context.Context, *NotificationTask) error) {
	q.processor = processor
}

// Enqueue hands the task to a goroutine so the request is not blocked on SMTP.
func (q *SyncQueue) Enqueue(task *NotificationTask) error {
	if q.processor == nil {
		logger.Warn().Uint("application_id", task.ApplicationID).Msg("[SyncQueue] no processor set, task dropped")
		return nil
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		if err := q.processor(context.Background(), task); err != nil {
			logger.Error().Err(err).Uint("application_id", task.ApplicationID).Msg("[SyncQueue] Task processing failed")
		}
	}()

	return nil
}

func (q *SyncQueue) IsAsync() bool {
	return false
}

// Close waits for in-flight deliveries.
func (q *SyncQueue) Close() error {
	q.wg.Wait()
	return nil
}

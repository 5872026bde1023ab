package queue

import (
	"github.com/hibiken/asynq"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/config"
	"go.uber.org/zap"
)

// HandlersRegistry maps task types to handlers
type HandlersRegistry struct {
	mux *asynq.ServeMux
}

// NewHandlersRegistry creates an empty registry
func NewHandlersRegistry() *HandlersRegistry {
	return &HandlersRegistry{mux: asynq.NewServeMux()}
}

// Register adds a handler for a task type
func (r *HandlersRegistry) Register(taskType string, handler asynq.Handler) {
	r.mux.Handle(taskType, handler)
}

// Mux returns the underlying mux
func (r *HandlersRegistry) Mux() *asynq.ServeMux {
	return r.mux
}

// NewServer creates a worker server logging through zap
func NewServer(redis config.RedisConfig, cfg config.QueueConfig, logger *zap.Logger) *asynq.Server {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}
	return asynq.NewServer(RedisOpt(redis), asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			QueueCritical: 6,
			QueueDefault:  3,
		},
		Logger: logger.Named("asynq").Sugar(),
	})
}

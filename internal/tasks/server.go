package tasks

import (
	"fmt"

	"menuhub/internal/config"
	"menuhub/internal/utils/logger"

	"github.com/hibiken/asynq"
)

var queues = map[string]int{
	QueueCritical: 6,
	QueueDefault:  3,
	QueueLow:      1,
}

// Server handles task processing
type Server struct {
	server  *asynq.Server
	handler *TaskHandler
	logger  *logger.Logger
}

// NewServer creates a new task processing server
func NewServer(cfg config.RedisConfig, handler *TaskHandler, logger *logger.Logger) *Server {
	server := asynq.NewServer(
		RedisOpt(cfg),
		asynq.Config{
			Concurrency:    4,
			Queues:         queues,
			StrictPriority: true,
		},
	)

	return &Server{
		server:  server,
		handler: handler,
		logger:  logger,
	}
}

// NewServeMux routes task types to their handlers.
func NewServeMux(handler *TaskHandler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeGuestCleanup, handler.HandleGuestCleanup)
	return mux
}

// Start starts the task processing server
func (s *Server) Start() error {
	s.logger.Info("starting task processing server queues %v", queues)

	if err := s.server.Start(NewServeMux(s.handler)); err != nil {
		return fmt.Errorf("failed to start task server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the task processing server
func (s *Server) Shutdown() {
	s.logger.Info("shutting down task processing server")
	s.server.Shutdown()
}

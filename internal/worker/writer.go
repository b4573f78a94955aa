package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Task is a named unit of background work, typically a cache write that
// the request path does not want to wait for or fail on.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Writer runs fire-and-forget tasks on a small supervised pool. Failures
// are logged, never surfaced to the request that queued them.
type Writer struct {
	tasks       chan Task
	workerCount int
	taskTimeout time.Duration
	stopChan    chan struct{}
	logger      zerolog.Logger
}

func NewWriter(workerCount, queueSize int, logger zerolog.Logger) *Writer {
	return &Writer{
		tasks:       make(chan Task, queueSize),
		workerCount: workerCount,
		taskTimeout: 30 * time.Second,
		stopChan:    make(chan struct{}),
		logger:      logger,
	}
}

func (w *Writer) Start() {
	for i := 0; i < w.workerCount; i++ {
		go w.worker(i)
	}
	w.logger.Info().Int("workers", w.workerCount).Msg("background writer started")
}

func (w *Writer) Stop() {
	close(w.stopChan)
}

// Submit queues a task. When the queue is full the task is dropped with a
// warning; a lost cache write only costs a later re-acquisition.
func (w *Writer) Submit(task Task) {
	select {
	case w.tasks <- task:
	default:
		w.logger.Warn().Str("task", task.Name).Msg("background queue full, task dropped")
	}
}

func (w *Writer) worker(id int) {
	for {
		select {
		case <-w.stopChan:
			w.logger.Debug().Int("worker", id).Msg("background worker shutting down")
			return
		case task := <-w.tasks:
			ctx, cancel := context.WithTimeout(context.Background(), w.taskTimeout)
			if err := task.Run(ctx); err != nil {
				w.logger.Error().Err(err).Str("task", task.Name).Msg("background task failed")
			}
			cancel()
		}
	}
}

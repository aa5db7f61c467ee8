package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/courier/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/courier/internal/metrics"
	"gitlab.ozon.dev/pupkingeorgij/courier/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/courier/internal/storage"
)

type PublisherConfig struct {
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
	// ProcessingLease is how long a claimed task may stay PROCESSING before
	// another publisher takes it over.
	ProcessingLease time.Duration
}

const defaultProcessingLease = time.Minute

// Publisher moves lifecycle events from the outbox table to the producer.
type Publisher struct {
	db             db.DB
	repo           storage.OutboxTaskRepository
	producer       Producer
	config         PublisherConfig
	logger         *zap.Logger
	wg             sync.WaitGroup
	shutdownSignal chan struct{}
	mu             sync.Mutex
	stopped        bool
	timeNow        func() time.Time
}

func NewPublisher(db db.DB, repo storage.OutboxTaskRepository, producer Producer, config PublisherConfig, logger *zap.Logger) *Publisher {
	if config.ProcessingLease <= 0 {
		config.ProcessingLease = defaultProcessingLease
	}
	return &Publisher{
		db:             db,
		repo:           repo,
		producer:       producer,
		config:         config,
		logger:         logger,
		shutdownSignal: make(chan struct{}),
		timeNow:        time.Now,
	}
}

// Run polls until ctx ends or Shutdown is called. Run after Shutdown
// returns at once.
func (p *Publisher) Run(ctx context.Context) {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.wg.Add(1)
	p.mu.Unlock()
	defer p.wg.Done()

	p.logger.Info("starting outbox publisher",
		zap.Duration("poll_interval", p.config.PollInterval),
		zap.Int("batch_size", p.config.BatchSize))

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := p.processBatch(ctx); err != nil {
				p.logger.Error("outbox publisher failed to process batch", zap.Error(err))
			}
		case <-p.shutdownSignal:
			p.logger.Info("outbox publisher received shutdown signal")
			return
		case <-ctx.Done():
			p.logger.Info("outbox publisher context cancelled")
			return
		}
	}
}

// Shutdown stops the poll loop, waits for the batch in flight and closes
// the producer.
func (p *Publisher) Shutdown(ctx context.Context) {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.shutdownSignal)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		p.logger.Info("outbox publisher stopped")
	case <-ctx.Done():
		p.logger.Warn("outbox publisher shutdown timed out")
	}

	if err := p.producer.Close(); err != nil {
		p.logger.Error("failed to close event producer", zap.Error(err))
	}
}

func (p *Publisher) processBatch(ctx context.Context) error {
	tx, err := p.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for fetching tasks: %w", err)
	}
	defer func() {
		_ = tx.Rollback(context.Background())
	}()

	staleBefore := p.timeNow().Add(-p.config.ProcessingLease).UTC()
	tasks, err := p.repo.GetProcessableTasksTx(ctx, tx, p.config.BatchSize, p.config.MaxAttempts, staleBefore)
	if err != nil {
		return fmt.Errorf("failed to get processable tasks: %w", err)
	}

	if len(tasks) == 0 {
		return tx.Commit(ctx)
	}

	p.logger.Debug("outbox publisher fetched tasks", zap.Int("count", len(tasks)))

	for _, task := range tasks {
		err := p.repo.UpdateTaskStatusTx(ctx, tx, task.ID, repository.TaskStatusProcessing, task.Attempts, nil, nil)
		if err != nil {
			return fmt.Errorf("failed to mark task %s as PROCESSING: %w", task.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction after marking tasks as PROCESSING: %w", err)
	}

	for i, task := range tasks {
		select {
		case <-p.shutdownSignal:
			p.logger.Warn("shutdown during batch processing", zap.Stringer("task_id", task.ID))
			p.releaseTasks(ctx, tasks[i:])
			return errors.New("publisher shutdown during batch processing")
		case <-ctx.Done():
			p.releaseTasks(ctx, tasks[i:])
			return ctx.Err()
		default:
		}

		if err := p.processSingleTask(ctx, task); err != nil {
			p.logger.Error("failed to process outbox task", zap.Stringer("task_id", task.ID), zap.Error(err))
		}
	}

	return nil
}

// releaseTasks hands claimed but unsent tasks back to the queue with their
// attempt count unchanged.
func (p *Publisher) releaseTasks(ctx context.Context, tasks []*repository.OutboxTask) {
	ctx = context.WithoutCancel(ctx)
	for _, task := range tasks {
		status := repository.TaskStatusCreated
		if task.Status == repository.TaskStatusFailed {
			status = repository.TaskStatusFailed
		}
		if err := p.repo.UpdateTaskStatus(ctx, p.db, task.ID, status, task.Attempts, task.LastError, nil); err != nil {
			p.logger.Error("failed to release outbox task", zap.Stringer("task_id", task.ID), zap.Error(err))
		}
	}
}

func (p *Publisher) processSingleTask(ctx context.Context, task *repository.OutboxTask) error {
	key := []byte(task.EntityKey)
	if len(key) == 0 {
		key = []byte(task.ID.String())
	}

	err := p.producer.SendMessage(ctx, task.Topic, key, task.Payload)
	if err != nil {
		attempts := task.Attempts + 1
		errMsg := err.Error()

		result := "failed"
		if attempts >= p.config.MaxAttempts {
			result = "exhausted"
			p.logger.Error("outbox task reached max attempts",
				zap.Stringer("task_id", task.ID),
				zap.Int("max_attempts", p.config.MaxAttempts))
		}
		metrics.OutboxPublishedTotal.WithLabelValues(result).Inc()

		updateErr := p.repo.UpdateTaskStatus(context.WithoutCancel(ctx), p.db, task.ID, repository.TaskStatusFailed, attempts, &errMsg, nil)
		if updateErr != nil {
			return fmt.Errorf("failed to update task status after send failure: %w (send error: %v)", updateErr, err)
		}
		return err
	}

	metrics.OutboxPublishedTotal.WithLabelValues("done").Inc()
	now := p.timeNow().UTC()
	if err := p.repo.UpdateTaskStatus(context.WithoutCancel(ctx), p.db, task.ID, repository.TaskStatusDone, task.Attempts, nil, &now); err != nil {
		return fmt.Errorf("failed to update task status after successful send: %w", err)
	}

	return nil
}

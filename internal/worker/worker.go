package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/expansio/backend/internal/matching"
	"github.com/expansio/backend/internal/models"
	"github.com/expansio/backend/internal/notifications"
	"github.com/expansio/backend/internal/research"
	"github.com/expansio/backend/pkg/queue"
)

// NotificationProcessor drains match notification jobs: deliver the email,
// record the attempt, retry on failure.
type NotificationProcessor struct {
	mailer *notifications.Mailer
	logs   *notifications.LogRepository
	queue  *queue.Queue
	logger *zap.Logger
}

// NewNotificationProcessor creates a notification delivery processor.
func NewNotificationProcessor(mailer *notifications.Mailer, logs *notifications.LogRepository, q *queue.Queue, logger *zap.Logger) *NotificationProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationProcessor{mailer: mailer, logs: logs, queue: q, logger: logger}
}

// Process executes one match notification job.
func (p *NotificationProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeMatchNotification {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.MatchNotificationPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	subject, sendErr := p.mailer.SendMatchNotification(ctx, payload)
	status := models.NotificationStatusSent
	errMsg := ""
	if sendErr != nil {
		status = models.NotificationStatusFailed
		errMsg = sendErr.Error()
	}
	if err := p.logs.Record(ctx, payload.ProjectID, payload.VendorID, payload.RecipientEmail, subject, status, errMsg); err != nil {
		p.logger.Error("record notification log failed", zap.Error(err),
			zap.Int64("project_id", payload.ProjectID), zap.Int64("vendor_id", payload.VendorID))
	}
	if sendErr != nil {
		return fmt.Errorf("send notification: %w", sendErr)
	}

	p.logger.Info("match notification delivered",
		zap.Int64("project_id", payload.ProjectID),
		zap.Int64("vendor_id", payload.VendorID),
		zap.Float64("score", payload.Score),
	)
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *NotificationProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("notification worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}

// Scheduler runs the periodic maintenance jobs: the full match rebuild and
// the cross-store consistency check.
type Scheduler struct {
	engine   *matching.Engine
	checker  *research.Checker
	interval time.Duration
	logger   *zap.Logger
}

// NewScheduler creates the maintenance scheduler.
func NewScheduler(engine *matching.Engine, checker *research.Checker, interval time.Duration, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{engine: engine, checker: checker, interval: interval, logger: logger}
}

// Run blocks, executing one pass immediately and then one per interval.
func (s *Scheduler) Run(ctx context.Context) {
	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if err := s.engine.RebuildAll(ctx); err != nil {
		s.logger.Error("scheduled rebuild failed", zap.Error(err))
	}
	orphans, err := s.checker.OrphanedProjectIDs(ctx)
	if err != nil {
		s.logger.Error("consistency check failed", zap.Error(err))
		return
	}
	if len(orphans) > 0 {
		s.logger.Warn("research documents reference missing projects",
			zap.Strings("project_ids", orphans))
	}
}

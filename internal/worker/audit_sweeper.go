package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"gophercalc/internal/config"
	"gophercalc/internal/repository"
)

// AuditSweeper deletes audit records past the retention window on a
// cron schedule.
type AuditSweeper struct {
	events        *repository.AuthEventRepository
	logger        *logrus.Logger
	retentionDays int
	schedule      string

	cron *cron.Cron
}

func NewAuditSweeper(events *repository.AuthEventRepository, logger *logrus.Logger, cfg config.AuditConfig) *AuditSweeper {
	return &AuditSweeper{
		events:        events,
		logger:        logger,
		retentionDays: cfg.RetentionDays,
		schedule:      cfg.SweepSchedule,
	}
}

func (s *AuditSweeper) Start() error {
	if s.cron != nil {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(s.schedule, s.sweep); err != nil {
		return fmt.Errorf("parse sweep schedule %q failed: %w", s.schedule, err)
	}
	c.Start()
	s.cron = c

	s.logger.WithFields(logrus.Fields{
		"schedule":       s.schedule,
		"retention_days": s.retentionDays,
	}).Info("audit sweeper started")
	return nil
}

func (s *AuditSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)
	deleted, err := s.events.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.WithError(err).Error("audit sweep failed")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"deleted": deleted,
		"cutoff":  cutoff.Format(time.RFC3339),
	}).Info("audit sweep completed")
}

// Close stops the schedule and waits for a running sweep to finish.
func (s *AuditSweeper) Close() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

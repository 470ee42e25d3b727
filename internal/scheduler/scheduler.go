// Package scheduler wires up the cron job that periodically settles overdue
// submissions and nudges clients whose review window is running out.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/repchain/repchain/internal/fault"
	"github.com/repchain/repchain/internal/models"
	"github.com/repchain/repchain/pkg/repository"
)

const (
	// ReviewWindow is how long a client has to review a submission.
	ReviewWindow = 72 * time.Hour
	// GracePeriod extends the review window before funds auto-release.
	GracePeriod = 24 * time.Hour
	// AutoReleaseAfter is the total time between submission and auto-release.
	AutoReleaseAfter = ReviewWindow + GracePeriod
	// MinJobAge is the minimum job age for a submission to pass basic
	// verification. Younger jobs are treated as suspicious.
	MinJobAge = 24 * time.Hour
)

// warningHours are the elapsed-time marks after submission at which a review
// reminder goes out. Each mark has a one-hour window, so an hourly sweep
// sends each reminder exactly once.
var warningHours = []int{24, 48, 60}

// ReputationUpdater recomputes a user's reputation after an auto-release.
type ReputationUpdater interface {
	UpdateUserReputation(ctx context.Context, userID int64) (int, error)
}

// WarnFunc delivers a review reminder for a pending submission. elapsedHours
// is the time since submission at the warning mark.
type WarnFunc func(ctx context.Context, job models.Job, elapsedHours int)

// Scheduler wraps robfig/cron and manages the settlement sweeps.
type Scheduler struct {
	cron     *cron.Cron
	jobs     repository.JobRepo
	verifier Verifier
	rep      ReputationUpdater
	warn     WarnFunc
	logger   *slog.Logger
	spec     string // cron spec, e.g. "@every 1h"
	now      func() time.Time
}

// New creates a Scheduler firing every interval. rep and warn may be nil;
// the corresponding side effects are then skipped.
func New(jobs repository.JobRepo, verifier Verifier, rep ReputationUpdater, warn WarnFunc, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if verifier == nil {
		verifier = NewBasicVerifier()
	}
	return &Scheduler{
		cron:     cron.New(),
		jobs:     jobs,
		verifier: verifier,
		rep:      rep,
		warn:     warn,
		logger:   logger,
		spec:     fmt.Sprintf("@every %s", interval),
		now:      time.Now,
	}
}

// Start registers the sweep and starts the cron loop. Also runs one sweep
// immediately so overdue submissions settle without waiting for the first
// tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.RunOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", slog.String("spec", s.spec))

	go s.RunOnce(ctx)

	return nil
}

// Stop shuts down the cron loop. Sweeps already running are not interrupted.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("scheduler stopped")
}

// RunOnce performs a single sweep: auto-release first, then reminders.
func (s *Scheduler) RunOnce(ctx context.Context) {
	if err := s.CheckAutoRelease(ctx); err != nil {
		s.logger.Error("auto-release sweep failed", slog.Any("err", err))
	}
	if err := s.SendReviewWarnings(ctx); err != nil {
		s.logger.Error("review warning sweep failed", slog.Any("err", err))
	}
}

// CheckAutoRelease settles every submission older than AutoReleaseAfter.
// A submission passing verification is released to the freelancer; a failing
// one is moved to DISPUTED for manual resolution. One bad job never stops
// the sweep.
func (s *Scheduler) CheckAutoRelease(ctx context.Context) error {
	now := s.now().UTC()
	cutoff := now.Add(-AutoReleaseAfter)
	status := models.StatusSubmitted

	due, err := s.jobs.ListJobs(ctx, models.JobFilter{Status: &status, SubmittedBefore: &cutoff})
	if err != nil {
		return fmt.Errorf("list overdue submissions: %w", err)
	}
	if len(due) == 0 {
		return nil
	}

	s.logger.Info("auto-release sweep", slog.Int("due", len(due)))
	for i := range due {
		if err := s.settle(ctx, &due[i], now); err != nil {
			s.logger.Error("auto-release failed",
				slog.String("job_id", due[i].JobID),
				slog.Any("err", fault.SchedulerItem(err, "settle %s", due[i].JobID)))
		}
	}
	return nil
}

func (s *Scheduler) settle(ctx context.Context, job *models.Job, now time.Time) error {
	ok, reason := s.verifier.Verify(ctx, job)
	if !ok {
		reason = "auto-verification failed: " + reason
		applied, err := s.jobs.TransitionJob(ctx, job.ID, models.StatusSubmitted, models.StatusDisputed,
			models.JobChanges{ReviewedAt: &now, RejectionReason: &reason})
		if err != nil {
			return err
		}
		if applied {
			s.logger.Warn("submission disputed",
				slog.String("job_id", job.JobID), slog.String("reason", reason))
		}
		return nil
	}

	applied, err := s.jobs.TransitionJob(ctx, job.ID, models.StatusSubmitted, models.StatusAutoReleased,
		models.JobChanges{ReviewedAt: &now})
	if err != nil {
		return err
	}
	if !applied {
		// The client reviewed between the listing and the write. Their
		// decision stands.
		return nil
	}

	s.logger.Info("payment auto-released",
		slog.String("job_id", job.JobID), slog.Int64("budget", job.Budget))

	if s.rep != nil && job.FreelancerID != nil {
		if _, err := s.rep.UpdateUserReputation(ctx, *job.FreelancerID); err != nil {
			s.logger.Error("reputation recompute failed",
				slog.String("job_id", job.JobID), slog.Any("err", err))
		}
	}
	return nil
}

// SendReviewWarnings notifies clients whose review window is slipping away.
// Reminders fire when the time since submission crosses 24h, 48h and 60h;
// the one-hour window per mark keeps an hourly sweep from repeating itself.
func (s *Scheduler) SendReviewWarnings(ctx context.Context) error {
	if s.warn == nil {
		return nil
	}

	now := s.now().UTC()
	status := models.StatusSubmitted
	earliest := now.Add(-time.Duration(warningHours[0]) * time.Hour)

	pending, err := s.jobs.ListJobs(ctx, models.JobFilter{Status: &status, SubmittedBefore: &earliest})
	if err != nil {
		return fmt.Errorf("list pending submissions: %w", err)
	}

	for _, job := range pending {
		if job.SubmittedAt == nil || job.ReviewedAt != nil {
			continue
		}
		elapsed := now.Sub(*job.SubmittedAt)
		for _, mark := range warningHours {
			lower := time.Duration(mark) * time.Hour
			if elapsed >= lower && elapsed < lower+time.Hour {
				s.logger.Info("review reminder",
					slog.String("job_id", job.JobID),
					slog.Int("elapsed_hours", mark))
				s.warn(ctx, job, mark)
				break
			}
		}
	}
	return nil
}

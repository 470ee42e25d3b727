// Package jobs implements the job lifecycle: creation, assignment, work
// submission, review and cancellation. Every transition is authorized
// against the acting principal and committed with a conditional write, so
// two actors racing on the same job cannot both succeed.
package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/repchain/repchain/internal/fault"
	"github.com/repchain/repchain/internal/models"
	"github.com/repchain/repchain/pkg/repository"
)

// Actor identifies the authenticated principal on state-mutating calls. The
// identity comes from the session token; the service trusts it.
type Actor struct {
	UserID int64
	Wallet string
}

// ReputationUpdater recomputes a user's reputation after a job closes.
type ReputationUpdater interface {
	UpdateUserReputation(ctx context.Context, userID int64) (int, error)
}

type ReviewAction string

const (
	ReviewApprove         ReviewAction = "approve"
	ReviewReject          ReviewAction = "reject"
	ReviewRequestRevision ReviewAction = "request_revision"
)

// ParseReviewAction converts a raw string to a ReviewAction.
func ParseReviewAction(s string) (ReviewAction, error) {
	a := ReviewAction(s)
	switch a {
	case ReviewApprove, ReviewReject, ReviewRequestRevision:
		return a, nil
	}
	return "", fault.Validation("invalid review action %q", s)
}

type Service struct {
	jobs   repository.JobRepo
	users  repository.UserRepo
	rep    ReputationUpdater
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates the lifecycle service. rep may be nil; reputation
// recomputation is then skipped.
func NewService(jobs repository.JobRepo, users repository.UserRepo, rep ReputationUpdater, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{jobs: jobs, users: users, rep: rep, logger: logger, now: time.Now}
}

type CreateParams struct {
	Title        string
	Description  string
	Requirements string
	Budget       int64
	Deadline     time.Time
}

// Create validates the terms and stores a new job in OPEN.
func (s *Service) Create(ctx context.Context, actor Actor, p CreateParams) (*models.Job, error) {
	if strings.TrimSpace(p.Title) == "" {
		return nil, fault.Validation("title is required")
	}
	if strings.TrimSpace(p.Description) == "" {
		return nil, fault.Validation("description is required")
	}
	if p.Budget <= 0 {
		return nil, fault.Validation("budget must be greater than 0")
	}
	if !p.Deadline.After(s.now()) {
		return nil, fault.Validation("deadline must be in the future")
	}

	job := &models.Job{
		JobID:        newJobToken(),
		ClientID:     actor.UserID,
		Title:        strings.TrimSpace(p.Title),
		Description:  p.Description,
		Requirements: p.Requirements,
		Budget:       p.Budget,
		Deadline:     p.Deadline,
		Status:       models.StatusOpen,
	}
	id, err := s.jobs.CreateJob(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	s.logger.Info("job created", slog.String("job_id", job.JobID), slog.Int64("client_id", actor.UserID))
	return s.Get(ctx, id)
}

// Get returns the job or a not-found error.
func (s *Service) Get(ctx context.Context, id int64) (*models.Job, error) {
	job, err := s.jobs.GetJobByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fault.NotFound("job %d not found", id)
	}
	return job, nil
}

// List returns jobs matching the filter.
func (s *Service) List(ctx context.Context, f models.JobFilter) ([]models.Job, error) {
	return s.jobs.ListJobs(ctx, f)
}

// Apply acknowledges a freelancer's proposal on an open job. Proposals are
// not persisted yet; applications live outside this core.
func (s *Service) Apply(ctx context.Context, actor Actor, jobID int64, proposal string) (*models.Job, error) {
	job, err := s.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.ClientID == actor.UserID {
		return nil, fault.Validation("cannot apply to your own job")
	}
	if job.Status != models.StatusOpen {
		return nil, fault.Precondition("job is not open for applications")
	}

	s.logger.Info("application received",
		slog.String("job_id", job.JobID), slog.Int64("freelancer_id", actor.UserID))
	return job, nil
}

// Assign sets the freelancer and moves the job to IN_PROGRESS. Only the
// owning client may assign, only while the job is OPEN, and only to an
// existing user other than themselves.
func (s *Service) Assign(ctx context.Context, actor Actor, jobID, freelancerID int64) (*models.Job, error) {
	job, err := s.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.ClientID != actor.UserID {
		return nil, fault.Authorization("only the job creator can assign freelancers")
	}
	if job.Status != models.StatusOpen {
		return nil, fault.Precondition("job is not open")
	}
	if freelancerID == job.ClientID {
		return nil, fault.Validation("cannot assign the job to its creator")
	}

	freelancer, err := s.users.GetUserByID(ctx, freelancerID)
	if err != nil {
		return nil, err
	}
	if freelancer == nil {
		return nil, fault.NotFound("freelancer %d not found", freelancerID)
	}

	return s.transition(ctx, job, models.StatusInProgress,
		models.JobChanges{FreelancerID: &freelancerID}, "job is no longer open")
}

// SubmitWork records the submission URL and moves the job to SUBMITTED.
// Only the assigned freelancer may submit. Notes are passed through for
// the client but not stored.
func (s *Service) SubmitWork(ctx context.Context, actor Actor, jobID int64, submissionURL, notes string) (*models.Job, error) {
	job, err := s.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.FreelancerID == nil || *job.FreelancerID != actor.UserID {
		return nil, fault.Authorization("only the assigned freelancer can submit work")
	}
	if job.Status != models.StatusInProgress {
		return nil, fault.Precondition("job is not in progress")
	}

	submittedAt := s.now().UTC()
	return s.transition(ctx, job, models.StatusSubmitted,
		models.JobChanges{SubmissionURL: &submissionURL, SubmittedAt: &submittedAt},
		"job is no longer in progress")
}

// Review settles a submission: approve completes the job, reject opens a
// dispute (reason required), request_revision sends it back to the
// freelancer and clears the submission timestamp.
func (s *Service) Review(ctx context.Context, actor Actor, jobID int64, action ReviewAction, reason string) (*models.Job, error) {
	job, err := s.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.ClientID != actor.UserID {
		return nil, fault.Authorization("only the job creator can review submissions")
	}
	if job.Status != models.StatusSubmitted {
		return nil, fault.Precondition("job has not been submitted")
	}

	reviewedAt := s.now().UTC()
	switch action {
	case ReviewApprove:
		job, err = s.transition(ctx, job, models.StatusCompleted,
			models.JobChanges{ReviewedAt: &reviewedAt}, "submission already settled")
		if err != nil {
			return nil, err
		}
		s.recomputeReputation(ctx, job)
		return job, nil

	case ReviewReject:
		if strings.TrimSpace(reason) == "" {
			return nil, fault.Validation("rejection reason required")
		}
		return s.transition(ctx, job, models.StatusDisputed,
			models.JobChanges{ReviewedAt: &reviewedAt, RejectionReason: &reason},
			"submission already settled")

	case ReviewRequestRevision:
		return s.transition(ctx, job, models.StatusInProgress,
			models.JobChanges{ClearSubmittedAt: true}, "submission already settled")
	}

	return nil, fault.Validation("invalid review action %q", action)
}

// Cancel withdraws an OPEN job. Terminal; cancelled jobs are kept as history.
func (s *Service) Cancel(ctx context.Context, actor Actor, jobID int64) (*models.Job, error) {
	job, err := s.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.ClientID != actor.UserID {
		return nil, fault.Authorization("only the job creator can cancel the job")
	}
	if job.Status != models.StatusOpen {
		return nil, fault.Precondition("can only cancel open jobs")
	}

	return s.transition(ctx, job, models.StatusCancelled, models.JobChanges{}, "job is no longer open")
}

// transition commits the conditional write keyed on the status the caller
// observed. A lost race surfaces as a precondition rejection with msg.
func (s *Service) transition(ctx context.Context, job *models.Job, to models.JobStatus, set models.JobChanges, msg string) (*models.Job, error) {
	if !models.CanTransition(job.Status, to) {
		return nil, fault.Precondition("no transition from %s to %s", job.Status, to)
	}

	ok, err := s.jobs.TransitionJob(ctx, job.ID, job.Status, to, set)
	if err != nil {
		return nil, fmt.Errorf("transition %s: %w", job.JobID, err)
	}
	if !ok {
		return nil, fault.Precondition("%s", msg)
	}

	s.logger.Info("job transitioned",
		slog.String("job_id", job.JobID),
		slog.String("from", string(job.Status)),
		slog.String("to", string(to)))
	return s.Get(ctx, job.ID)
}

// recomputeReputation refreshes the freelancer's score after a completed
// job. Failures are logged; the settled transition stands either way.
func (s *Service) recomputeReputation(ctx context.Context, job *models.Job) {
	if s.rep == nil || job.FreelancerID == nil {
		return
	}
	if _, err := s.rep.UpdateUserReputation(ctx, *job.FreelancerID); err != nil {
		s.logger.Error("reputation recompute failed",
			slog.String("job_id", job.JobID),
			slog.Int64("freelancer_id", *job.FreelancerID),
			slog.Any("err", err))
	}
}

// newJobToken builds the external-facing job identifier, e.g. JOB-3F2A9C41.
func newJobToken() string {
	return "JOB-" + strings.ToUpper(uuid.NewString()[:8])
}

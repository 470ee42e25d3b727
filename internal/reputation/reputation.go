// Package reputation computes the 0-1000 trust score from GitHub signals and
// on-platform job history. Scores are recomputed only when a caller asks for
// it (GitHub connect/disconnect/refresh, job completion, auto-release); reads
// always see the last persisted value.
package reputation

import (
	"context"
	"math"

	"log/slog"

	"github.com/repchain/repchain/internal/fault"
	"github.com/repchain/repchain/internal/models"
	"github.com/repchain/repchain/pkg/github"
	"github.com/repchain/repchain/pkg/repository"
)

const (
	MinScore = 0
	MaxScore = 1000
)

// Weight factors. Disputes subtract.
const (
	weightGitHub        = 0.30
	weightJobCompletion = 0.25
	weightReviews       = 0.25
	weightTimeliness    = 0.15
	weightDisputes      = 0.05
)

// DefaultNeutralReviewScore stands in for the unbuilt review subsystem.
const DefaultNeutralReviewScore = 500

// StatsProvider supplies aggregated GitHub statistics for a username.
type StatsProvider interface {
	GetStats(ctx context.Context, username string) (*github.Stats, error)
}

type Engine struct {
	users  repository.UserRepo
	jobs   repository.JobRepo
	stats  StatsProvider
	logger *slog.Logger

	// NeutralReviewScore is returned as the review sub-score until a real
	// review subsystem exists. Overridable so a replacement can phase in.
	NeutralReviewScore float64
}

func NewEngine(users repository.UserRepo, jobs repository.JobRepo, stats StatsProvider, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		users:              users,
		jobs:               jobs,
		stats:              stats,
		logger:             logger,
		NeutralReviewScore: DefaultNeutralReviewScore,
	}
}

// Calculate computes the weighted reputation score for a user along with the
// underlying factors. GitHub fetch failures are treated as a zero
// contribution and never fail the calculation; store errors do.
func (e *Engine) Calculate(ctx context.Context, userID int64) (int, models.ReputationFactors, error) {
	var factors models.ReputationFactors

	user, err := e.users.GetUserByID(ctx, userID)
	if err != nil {
		return 0, factors, err
	}
	if user == nil {
		return 0, factors, fault.NotFound("user %d not found", userID)
	}

	if user.GitHubUsername != nil && *user.GitHubUsername != "" {
		factors.GitHubScore = e.githubScore(ctx, *user.GitHubUsername)
	}

	factors.JobCompletionScore, err = e.jobCompletionScore(ctx, userID)
	if err != nil {
		return 0, factors, err
	}

	factors.ReviewScore = e.NeutralReviewScore

	factors.TimelinessScore, err = e.timelinessScore(ctx, userID)
	if err != nil {
		return 0, factors, err
	}

	factors.DisputeScore, err = e.disputeScore(ctx, userID)
	if err != nil {
		return 0, factors, err
	}

	total := factors.GitHubScore*weightGitHub +
		factors.JobCompletionScore*weightJobCompletion +
		factors.ReviewScore*weightReviews +
		factors.TimelinessScore*weightTimeliness -
		factors.DisputeScore*weightDisputes

	score := int(math.Round(math.Max(MinScore, math.Min(MaxScore, total))))
	return score, factors, nil
}

// githubScore derives 0-600 raw points from account age, repos, stars, forks
// and language diversity, each capped independently.
func (e *Engine) githubScore(ctx context.Context, username string) float64 {
	stats, err := e.stats.GetStats(ctx, username)
	if err != nil {
		e.logger.Warn("github stats unavailable, scoring 0",
			slog.String("username", username), slog.Any("err", err))
		return 0
	}

	score := math.Min(100, float64(stats.AccountAgeDays)/10)
	score += math.Min(150, float64(stats.TotalRepos)*5)
	score += math.Min(200, float64(stats.TotalStars)*2)
	score += math.Min(100, float64(stats.TotalForks)*5)
	score += math.Min(50, float64(len(stats.Languages))*10)

	return math.Round(score)
}

// jobCompletionScore rewards completion rate plus a volume bonus of 50 points
// per completed job capped at 500.
func (e *Engine) jobCompletionScore(ctx context.Context, userID int64) (float64, error) {
	completed := models.StatusCompleted
	completedCount, err := e.jobs.CountJobsByFreelancer(ctx, userID, &completed)
	if err != nil {
		return 0, err
	}
	totalCount, err := e.jobs.CountJobsByFreelancer(ctx, userID, nil)
	if err != nil {
		return 0, err
	}
	if totalCount == 0 {
		return 0, nil
	}

	completionRate := float64(completedCount) / float64(totalCount)
	volumeBonus := math.Min(500, float64(completedCount)*50)
	return math.Round(completionRate*500 + volumeBonus), nil
}

// timelinessScore is the on-time rate over completed jobs, where on-time
// means submitted no later than the deadline.
func (e *Engine) timelinessScore(ctx context.Context, userID int64) (float64, error) {
	completed := models.StatusCompleted
	jobs, err := e.jobs.ListJobs(ctx, models.JobFilter{FreelancerID: &userID, Status: &completed})
	if err != nil {
		return 0, err
	}
	if len(jobs) == 0 {
		return 0, nil
	}

	onTime := 0
	for _, job := range jobs {
		if job.SubmittedAt != nil && !job.SubmittedAt.After(job.Deadline) {
			onTime++
		}
	}
	rate := float64(onTime) / float64(len(jobs))
	return math.Round(rate * 1000), nil
}

// disputeScore is a penalty of 50 points per disputed job, capped at 500.
func (e *Engine) disputeScore(ctx context.Context, userID int64) (float64, error) {
	disputed := models.StatusDisputed
	count, err := e.jobs.CountJobsByFreelancer(ctx, userID, &disputed)
	if err != nil {
		return 0, err
	}
	return math.Min(500, float64(count)*50), nil
}

// UpdateUserReputation recomputes and persists the score, returning it.
func (e *Engine) UpdateUserReputation(ctx context.Context, userID int64) (int, error) {
	score, _, err := e.Calculate(ctx, userID)
	if err != nil {
		return 0, err
	}
	if err := e.users.SetReputationScore(ctx, userID, score); err != nil {
		return 0, err
	}
	e.logger.Info("reputation updated", slog.Int64("user_id", userID), slog.Int("score", score))
	return score, nil
}

// UpdateAllReputations recomputes every active user's score. Individual
// failures are logged and do not abort the batch.
func (e *Engine) UpdateAllReputations(ctx context.Context) error {
	users, err := e.users.ListActiveUsers(ctx)
	if err != nil {
		return err
	}

	e.logger.Info("batch reputation update starting", slog.Int("users", len(users)))
	for _, user := range users {
		if _, err := e.UpdateUserReputation(ctx, user.ID); err != nil {
			e.logger.Error("reputation update failed",
				slog.Int64("user_id", user.ID), slog.Any("err", err))
		}
	}
	e.logger.Info("batch reputation update completed")
	return nil
}

package repository

import (
	"context"

	"github.com/repchain/repchain/internal/models"
)

// Repository interfaces for domain entities. These are the contracts the
// services depend on; concrete implementations live under internal/.
// Lookup methods return (nil, nil) when no row matches.

type UserRepo interface {
	CreateUser(ctx context.Context, u *models.User) (int64, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByWallet(ctx context.Context, wallet string) (*models.User, error)
	GetUserByGitHubUsername(ctx context.Context, username string) (*models.User, error)
	UpdateProfile(ctx context.Context, id int64, username, bio, email *string) error
	SetGitHubUsername(ctx context.Context, id int64, username *string) error
	SetReputationScore(ctx context.Context, id int64, score int) error
	ListActiveUsers(ctx context.Context) ([]models.User, error)
}

type JobRepo interface {
	CreateJob(ctx context.Context, j *models.Job) (int64, error)
	GetJobByID(ctx context.Context, id int64) (*models.Job, error)
	ListJobs(ctx context.Context, f models.JobFilter) ([]models.Job, error)

	// TransitionJob applies the changes and moves status from → to in a single
	// conditional write keyed on the expected current status. It returns false
	// when the row exists but was not in `from` (a lost race or stale read).
	TransitionJob(ctx context.Context, id int64, from, to models.JobStatus, set models.JobChanges) (bool, error)

	CountJobsByFreelancer(ctx context.Context, freelancerID int64, status *models.JobStatus) (int64, error)
}

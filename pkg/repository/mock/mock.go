// Package mock provides an in-memory repository for tests. Conditional
// transitions are applied under a mutex so racing callers observe the same
// first-writer-wins behavior as the sqlite implementation.
package mock

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/repchain/repchain/internal/models"
	"github.com/repchain/repchain/pkg/repository"
)

type Store struct {
	mu     sync.Mutex
	users  map[int64]*models.User
	jobs   map[int64]*models.Job
	nextID int64

	// CreateJobErr, when set, is returned by CreateJob.
	CreateJobErr error
	// TransitionErr, when set, is returned by TransitionJob.
	TransitionErr error
}

var _ repository.UserRepo = (*Store)(nil)
var _ repository.JobRepo = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		users:  make(map[int64]*models.User),
		jobs:   make(map[int64]*models.Job),
		nextID: 1,
	}
}

func (s *Store) nextIDLocked() int64 {
	id := s.nextID
	s.nextID++
	return id
}

func copyUser(u *models.User) *models.User {
	cp := *u
	if u.GitHubUsername != nil {
		g := *u.GitHubUsername
		cp.GitHubUsername = &g
	}
	return &cp
}

func copyJob(j *models.Job) *models.Job {
	cp := *j
	if j.FreelancerID != nil {
		f := *j.FreelancerID
		cp.FreelancerID = &f
	}
	if j.SubmittedAt != nil {
		t := *j.SubmittedAt
		cp.SubmittedAt = &t
	}
	if j.ReviewedAt != nil {
		t := *j.ReviewedAt
		cp.ReviewedAt = &t
	}
	return &cp
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := copyUser(u)
	cp.ID = s.nextIDLocked()
	if cp.Created.IsZero() {
		cp.Created = time.Now().UTC()
	}
	s.users[cp.ID] = cp
	return cp.ID, nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return copyUser(u), nil
	}
	return nil, nil
}

func (s *Store) GetUserByWallet(ctx context.Context, wallet string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.WalletAddress == wallet {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (s *Store) GetUserByGitHubUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.GitHubUsername != nil && *u.GitHubUsername == username {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (s *Store) UpdateProfile(ctx context.Context, id int64, username, bio, email *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil
	}
	if username != nil {
		u.Username = *username
	}
	if bio != nil {
		u.Bio = *bio
	}
	if email != nil {
		u.Email = *email
	}
	return nil
}

func (s *Store) SetGitHubUsername(ctx context.Context, id int64, username *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		if username == nil {
			u.GitHubUsername = nil
		} else {
			g := *username
			u.GitHubUsername = &g
		}
	}
	return nil
}

func (s *Store) SetReputationScore(ctx context.Context, id int64, score int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.ReputationScore = score
	}
	return nil
}

func (s *Store) ListActiveUsers(ctx context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, u := range s.users {
		if u.IsActive {
			out = append(out, *copyUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreateJob(ctx context.Context, j *models.Job) (int64, error) {
	if s.CreateJobErr != nil {
		return 0, s.CreateJobErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := copyJob(j)
	cp.ID = s.nextIDLocked()
	if cp.Created.IsZero() {
		cp.Created = time.Now().UTC()
	}
	s.jobs[cp.ID] = cp
	return cp.ID, nil
}

func (s *Store) GetJobByID(ctx context.Context, id int64) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[id]; ok {
		return copyJob(j), nil
	}
	return nil, nil
}

func (s *Store) ListJobs(ctx context.Context, f models.JobFilter) ([]models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Job
	for _, j := range s.jobs {
		if f.Status != nil && j.Status != *f.Status {
			continue
		}
		if f.ClientID != nil && j.ClientID != *f.ClientID {
			continue
		}
		if f.FreelancerID != nil && (j.FreelancerID == nil || *j.FreelancerID != *f.FreelancerID) {
			continue
		}
		if f.Party != nil {
			if j.ClientID != *f.Party && (j.FreelancerID == nil || *j.FreelancerID != *f.Party) {
				continue
			}
		}
		if f.SubmittedBefore != nil {
			if j.SubmittedAt == nil || j.SubmittedAt.After(*f.SubmittedBefore) {
				continue
			}
		}
		out = append(out, *copyJob(j))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) TransitionJob(ctx context.Context, id int64, from, to models.JobStatus, set models.JobChanges) (bool, error) {
	if s.TransitionErr != nil {
		return false, s.TransitionErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok || j.Status != from {
		return false, nil
	}
	j.Status = to
	if set.FreelancerID != nil {
		f := *set.FreelancerID
		j.FreelancerID = &f
	}
	if set.SubmissionURL != nil {
		j.SubmissionURL = *set.SubmissionURL
	}
	if set.SubmittedAt != nil {
		t := *set.SubmittedAt
		j.SubmittedAt = &t
	}
	if set.ClearSubmittedAt {
		j.SubmittedAt = nil
	}
	if set.ReviewedAt != nil {
		t := *set.ReviewedAt
		j.ReviewedAt = &t
	}
	if set.RejectionReason != nil {
		j.RejectionReason = *set.RejectionReason
	}
	j.Updated = time.Now().UTC()
	return true, nil
}

func (s *Store) CountJobsByFreelancer(ctx context.Context, freelancerID int64, status *models.JobStatus) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, j := range s.jobs {
		if j.FreelancerID == nil || *j.FreelancerID != freelancerID {
			continue
		}
		if status != nil && j.Status != *status {
			continue
		}
		n++
	}
	return n, nil
}

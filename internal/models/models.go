package models

import "time"

// User is a marketplace participant identified by a wallet address.
// ReputationScore is always the output of the last reputation engine run;
// it is never set directly by the user.
type User struct {
	ID              int64     `json:"id" db:"id"`
	WalletAddress   string    `json:"wallet_address" db:"wallet_address"`
	Username        string    `json:"username,omitempty" db:"username"`
	Bio             string    `json:"bio,omitempty" db:"bio"`
	Email           string    `json:"email,omitempty" db:"email"`
	GitHubUsername  *string   `json:"github_username,omitempty" db:"github_username"`
	ReputationScore int       `json:"reputation_score" db:"reputation_score"`
	IsActive        bool      `json:"is_active" db:"is_active"`
	Created         time.Time `json:"created" db:"created"`
	Updated         time.Time `json:"updated" db:"updated"`
}

// Job is a unit of work posted by a client. FreelancerID is nil until the
// client assigns a freelancer and immutable afterwards. Status changes only
// through the transition checks in the jobs service; rows are never deleted.
type Job struct {
	ID              int64      `json:"id" db:"id"`
	JobID           string     `json:"job_id" db:"job_id"`
	ClientID        int64      `json:"client_id" db:"client_id"`
	FreelancerID    *int64     `json:"freelancer_id,omitempty" db:"freelancer_id"`
	Title           string     `json:"title" db:"title"`
	Description     string     `json:"description" db:"description"`
	Requirements    string     `json:"requirements,omitempty" db:"requirements"`
	Budget          int64      `json:"budget" db:"budget"`
	Deadline        time.Time  `json:"deadline" db:"deadline"`
	Status          JobStatus  `json:"status" db:"status"`
	SubmissionURL   string     `json:"submission_url,omitempty" db:"submission_url"`
	SubmittedAt     *time.Time `json:"submitted_at,omitempty" db:"submitted_at"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty" db:"reviewed_at"`
	RejectionReason string     `json:"rejection_reason,omitempty" db:"rejection_reason"`
	Created         time.Time  `json:"created" db:"created"`
	Updated         time.Time  `json:"updated" db:"updated"`
}

// JobFilter selects jobs for listing. Nil fields are ignored. Party matches
// jobs where the user is either the client or the freelancer; it is mutually
// exclusive with ClientID/FreelancerID.
type JobFilter struct {
	Status          *JobStatus
	ClientID        *int64
	FreelancerID    *int64
	Party           *int64
	SubmittedBefore *time.Time
}

// JobChanges carries the field updates applied together with a status
// transition. Nil pointer fields are left untouched. ClearSubmittedAt resets
// submitted_at to NULL (used by request_revision).
type JobChanges struct {
	FreelancerID     *int64
	SubmissionURL    *string
	SubmittedAt      *time.Time
	ClearSubmittedAt bool
	ReviewedAt       *time.Time
	RejectionReason  *string
}

// ReputationFactors are the five weighted sub-scores combined into the
// persisted 0-1000 reputation score. They are ephemeral and never stored.
type ReputationFactors struct {
	GitHubScore        float64 `json:"github_score"`
	JobCompletionScore float64 `json:"job_completion_score"`
	ReviewScore        float64 `json:"review_score"`
	TimelinessScore    float64 `json:"timeliness_score"`
	DisputeScore       float64 `json:"dispute_score"`
}

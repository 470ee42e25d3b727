package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/repchain/repchain/internal/models"
)

const jobColumns = `id, job_id, client_id, freelancer_id, title, description, requirements, budget, deadline, status, submission_url, submitted_at, reviewed_at, rejection_reason, created, updated`

func (r *SQLiteRepo) CreateJob(ctx context.Context, j *models.Job) (int64, error) {
	if j == nil {
		return 0, fmt.Errorf("job is nil")
	}

	res, err := r.conn.Exec(ctx,
		`INSERT INTO jobs (job_id, client_id, title, description, requirements, budget, deadline, status, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.JobID, j.ClientID, j.Title, j.Description, j.Requirements, j.Budget, j.Deadline.UTC().Unix(), string(j.Status), now(), now())
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetJobByID(ctx context.Context, id int64) (*models.Job, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	j, err := scanJobRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return j, err
}

func (r *SQLiteRepo) ListJobs(ctx context.Context, f models.JobFilter) ([]models.Job, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != nil {
		where = append(where, "status = ?")
		args = append(args, string(*f.Status))
	}
	if f.ClientID != nil {
		where = append(where, "client_id = ?")
		args = append(args, *f.ClientID)
	}
	if f.FreelancerID != nil {
		where = append(where, "freelancer_id = ?")
		args = append(args, *f.FreelancerID)
	}
	if f.Party != nil {
		where = append(where, "(client_id = ? OR freelancer_id = ?)")
		args = append(args, *f.Party, *f.Party)
	}
	if f.SubmittedBefore != nil {
		where = append(where, "submitted_at IS NOT NULL AND submitted_at <= ?")
		args = append(args, f.SubmittedBefore.UTC().Unix())
	}

	q := `SELECT ` + jobColumns + ` FROM jobs`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created DESC, id DESC`

	rows, err := r.conn.QueryRows(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Job
	for rows.Next() {
		j, err := scanJobRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *j)
	}
	return out, rows.Err()
}

// TransitionJob performs the conditional status update in a single UPDATE
// keyed on the expected current status. Racing callers lose cleanly: the
// statement matches zero rows and false is returned.
func (r *SQLiteRepo) TransitionJob(ctx context.Context, id int64, from, to models.JobStatus, set models.JobChanges) (bool, error) {
	sets := []string{"status = ?", "updated = ?"}
	args := []any{string(to), now()}

	if set.FreelancerID != nil {
		sets = append(sets, "freelancer_id = ?")
		args = append(args, *set.FreelancerID)
	}
	if set.SubmissionURL != nil {
		sets = append(sets, "submission_url = ?")
		args = append(args, *set.SubmissionURL)
	}
	if set.SubmittedAt != nil {
		sets = append(sets, "submitted_at = ?")
		args = append(args, set.SubmittedAt.UTC().Unix())
	}
	if set.ClearSubmittedAt {
		sets = append(sets, "submitted_at = NULL")
	}
	if set.ReviewedAt != nil {
		sets = append(sets, "reviewed_at = ?")
		args = append(args, set.ReviewedAt.UTC().Unix())
	}
	if set.RejectionReason != nil {
		sets = append(sets, "rejection_reason = ?")
		args = append(args, *set.RejectionReason)
	}
	args = append(args, id, string(from))

	q := `UPDATE jobs SET ` + strings.Join(sets, ", ") + ` WHERE id = ? AND status = ?`
	res, err := r.conn.Exec(ctx, q, args...)
	if err != nil {
		return false, fmt.Errorf("transition job %d %s->%s: %w", id, from, to, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

func (r *SQLiteRepo) CountJobsByFreelancer(ctx context.Context, freelancerID int64, status *models.JobStatus) (int64, error) {
	q := `SELECT COUNT(1) FROM jobs WHERE freelancer_id = ?`
	args := []any{freelancerID}
	if status != nil {
		q += ` AND status = ?`
		args = append(args, string(*status))
	}

	var n int64
	row := r.conn.QueryRow(ctx, q, args...)
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func scanJobRow(s rowScanner) (*models.Job, error) {
	var (
		j            models.Job
		freelancerID sql.NullInt64
		requirements sql.NullString
		status       string
		submissionURL sql.NullString
		submittedAt  sql.NullInt64
		reviewedAt   sql.NullInt64
		rejection    sql.NullString
		deadline     int64
		created      int64
		updated      int64
	)
	if err := s.Scan(&j.ID, &j.JobID, &j.ClientID, &freelancerID, &j.Title, &j.Description, &requirements, &j.Budget, &deadline, &status, &submissionURL, &submittedAt, &reviewedAt, &rejection, &created, &updated); err != nil {
		return nil, err
	}
	if freelancerID.Valid {
		f := freelancerID.Int64
		j.FreelancerID = &f
	}
	j.Requirements = requirements.String
	j.Status = models.JobStatus(status)
	j.SubmissionURL = submissionURL.String
	if submittedAt.Valid {
		j.SubmittedAt = timePtr(submittedAt.Int64)
	}
	if reviewedAt.Valid {
		j.ReviewedAt = timePtr(reviewedAt.Int64)
	}
	j.Deadline = time.Unix(deadline, 0).UTC()
	j.Created = time.Unix(created, 0).UTC()
	j.Updated = time.Unix(updated, 0).UTC()
	return &j, nil
}

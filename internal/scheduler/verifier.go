package scheduler

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/repchain/repchain/internal/models"
)

// Verifier decides whether a submission may auto-release. A false result
// carries a human-readable reason that is recorded on the dispute.
type Verifier interface {
	Verify(ctx context.Context, job *models.Job) (bool, string)
}

// BasicVerifier is the default policy: the submission URL must be a
// well-formed absolute URL and the job must be at least MinJobAge old.
// It never fetches the URL; reachability is not checked.
type BasicVerifier struct {
	MinAge time.Duration
	now    func() time.Time
}

func NewBasicVerifier() *BasicVerifier {
	return &BasicVerifier{MinAge: MinJobAge, now: time.Now}
}

func (v *BasicVerifier) Verify(ctx context.Context, job *models.Job) (bool, string) {
	raw := strings.TrimSpace(job.SubmissionURL)
	if raw == "" {
		return false, "missing submission URL"
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false, "malformed submission URL"
	}
	if v.now().Sub(job.Created) < v.MinAge {
		return false, "job too recent for automatic release"
	}
	return true, ""
}

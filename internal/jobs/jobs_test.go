package jobs

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/repchain/repchain/internal/fault"
	"github.com/repchain/repchain/internal/models"
	"github.com/repchain/repchain/pkg/repository/mock"
)

type recordingRep struct {
	calls []int64
}

func (r *recordingRep) UpdateUserReputation(ctx context.Context, userID int64) (int, error) {
	r.calls = append(r.calls, userID)
	return 0, nil
}

func setup(t *testing.T) (*Service, *mock.Store, *recordingRep) {
	t.Helper()
	store := mock.NewStore()
	rep := &recordingRep{}
	svc := NewService(store, store, rep, nil)
	return svc, store, rep
}

func addUser(t *testing.T, store *mock.Store, wallet string) int64 {
	t.Helper()
	id, err := store.CreateUser(context.Background(), &models.User{WalletAddress: wallet, IsActive: true})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return id
}

func createOpenJob(t *testing.T, svc *Service, client int64) *models.Job {
	t.Helper()
	job, err := svc.Create(context.Background(), Actor{UserID: client}, CreateParams{
		Title:       "Build landing page",
		Description: "Next.js site with wallet login",
		Budget:      500_000_000,
		Deadline:    time.Now().Add(14 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return job
}

func TestCreate_Validation(t *testing.T) {
	svc, store, _ := setup(t)
	client := addUser(t, store, "wallet-client")
	actor := Actor{UserID: client}

	tests := []struct {
		name   string
		params CreateParams
	}{
		{"empty title", CreateParams{Description: "d", Budget: 1, Deadline: time.Now().Add(time.Hour)}},
		{"empty description", CreateParams{Title: "t", Budget: 1, Deadline: time.Now().Add(time.Hour)}},
		{"zero budget", CreateParams{Title: "t", Description: "d", Budget: 0, Deadline: time.Now().Add(time.Hour)}},
		{"negative budget", CreateParams{Title: "t", Description: "d", Budget: -5, Deadline: time.Now().Add(time.Hour)}},
		{"past deadline", CreateParams{Title: "t", Description: "d", Budget: 1, Deadline: time.Now().Add(-time.Hour)}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), actor, tc.params); !fault.Is(err, fault.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreate_OpenWithToken(t *testing.T) {
	svc, store, _ := setup(t)
	client := addUser(t, store, "wallet-client")
	job := createOpenJob(t, svc, client)

	if job.Status != models.StatusOpen {
		t.Fatalf("new job status = %s, want OPEN", job.Status)
	}
	if !strings.HasPrefix(job.JobID, "JOB-") || len(job.JobID) != len("JOB-")+8 {
		t.Fatalf("unexpected job token %q", job.JobID)
	}
	if job.JobID != strings.ToUpper(job.JobID) {
		t.Fatalf("job token not uppercase: %q", job.JobID)
	}
	if job.ClientID != client {
		t.Fatalf("client id = %d, want %d", job.ClientID, client)
	}
}

func TestAssign(t *testing.T) {
	svc, store, _ := setup(t)
	client := addUser(t, store, "wallet-client")
	freelancer := addUser(t, store, "wallet-freelancer")
	stranger := addUser(t, store, "wallet-stranger")
	job := createOpenJob(t, svc, client)
	ctx := context.Background()

	if _, err := svc.Assign(ctx, Actor{UserID: stranger}, job.ID, freelancer); !fault.Is(err, fault.KindAuthorization) {
		t.Fatalf("non-owner assign: expected authorization error, got %v", err)
	}
	if _, err := svc.Assign(ctx, Actor{UserID: client}, job.ID, client); !fault.Is(err, fault.KindValidation) {
		t.Fatalf("self assign: expected validation error, got %v", err)
	}
	if _, err := svc.Assign(ctx, Actor{UserID: client}, job.ID, 9999); !fault.Is(err, fault.KindNotFound) {
		t.Fatalf("unknown freelancer: expected not-found error, got %v", err)
	}

	got, err := svc.Assign(ctx, Actor{UserID: client}, job.ID, freelancer)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if got.Status != models.StatusInProgress {
		t.Fatalf("status = %s, want IN_PROGRESS", got.Status)
	}
	if got.FreelancerID == nil || *got.FreelancerID != freelancer {
		t.Fatalf("freelancer id not recorded: %+v", got.FreelancerID)
	}

	// Second assign must lose: the job already left OPEN.
	if _, err := svc.Assign(ctx, Actor{UserID: client}, job.ID, stranger); !fault.Is(err, fault.KindPrecondition) {
		t.Fatalf("re-assign: expected precondition error, got %v", err)
	}
}

func TestSubmitWork(t *testing.T) {
	svc, store, _ := setup(t)
	client := addUser(t, store, "wallet-client")
	freelancer := addUser(t, store, "wallet-freelancer")
	job := createOpenJob(t, svc, client)
	ctx := context.Background()

	if _, err := svc.SubmitWork(ctx, Actor{UserID: freelancer}, job.ID, "https://github.com/acme/pr/1", ""); !fault.Is(err, fault.KindAuthorization) {
		t.Fatalf("submit before assignment: expected authorization error, got %v", err)
	}

	if _, err := svc.Assign(ctx, Actor{UserID: client}, job.ID, freelancer); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	if _, err := svc.SubmitWork(ctx, Actor{UserID: client}, job.ID, "https://example.com", ""); !fault.Is(err, fault.KindAuthorization) {
		t.Fatalf("client submit: expected authorization error, got %v", err)
	}

	before := time.Now().UTC().Add(-time.Second)
	got, err := svc.SubmitWork(ctx, Actor{UserID: freelancer}, job.ID, "https://github.com/acme/pr/1", "done early")
	if err != nil {
		t.Fatalf("SubmitWork: %v", err)
	}
	if got.Status != models.StatusSubmitted {
		t.Fatalf("status = %s, want SUBMITTED", got.Status)
	}
	if got.SubmissionURL != "https://github.com/acme/pr/1" {
		t.Fatalf("submission url = %q", got.SubmissionURL)
	}
	if got.SubmittedAt == nil || got.SubmittedAt.Before(before) {
		t.Fatalf("submitted_at not recorded: %+v", got.SubmittedAt)
	}

	if _, err := svc.SubmitWork(ctx, Actor{UserID: freelancer}, job.ID, "https://example.com/v2", ""); !fault.Is(err, fault.KindPrecondition) {
		t.Fatalf("double submit: expected precondition error, got %v", err)
	}
}

func submittedJob(t *testing.T, svc *Service, store *mock.Store) (jobID int64, client, freelancer int64) {
	t.Helper()
	client = addUser(t, store, "wallet-client")
	freelancer = addUser(t, store, "wallet-freelancer")
	job := createOpenJob(t, svc, client)
	ctx := context.Background()
	if _, err := svc.Assign(ctx, Actor{UserID: client}, job.ID, freelancer); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if _, err := svc.SubmitWork(ctx, Actor{UserID: freelancer}, job.ID, "https://github.com/acme/pr/1", ""); err != nil {
		t.Fatalf("SubmitWork: %v", err)
	}
	return job.ID, client, freelancer
}

func TestReview_Approve(t *testing.T) {
	svc, store, rep := setup(t)
	jobID, client, freelancer := submittedJob(t, svc, store)
	ctx := context.Background()

	if _, err := svc.Review(ctx, Actor{UserID: freelancer}, jobID, ReviewApprove, ""); !fault.Is(err, fault.KindAuthorization) {
		t.Fatalf("freelancer review: expected authorization error, got %v", err)
	}

	got, err := svc.Review(ctx, Actor{UserID: client}, jobID, ReviewApprove, "")
	if err != nil {
		t.Fatalf("Review approve: %v", err)
	}
	if got.Status != models.StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", got.Status)
	}
	if got.ReviewedAt == nil {
		t.Fatalf("reviewed_at not recorded")
	}
	if len(rep.calls) != 1 || rep.calls[0] != freelancer {
		t.Fatalf("reputation recompute calls = %v, want [%d]", rep.calls, freelancer)
	}

	// COMPLETED is terminal.
	if _, err := svc.Review(ctx, Actor{UserID: client}, jobID, ReviewReject, "changed my mind"); !fault.Is(err, fault.KindPrecondition) {
		t.Fatalf("review after completion: expected precondition error, got %v", err)
	}
}

func TestReview_RejectRequiresReason(t *testing.T) {
	svc, store, _ := setup(t)
	jobID, client, _ := submittedJob(t, svc, store)
	ctx := context.Background()

	if _, err := svc.Review(ctx, Actor{UserID: client}, jobID, ReviewReject, "  "); !fault.Is(err, fault.KindValidation) {
		t.Fatalf("reject without reason: expected validation error, got %v", err)
	}

	got, err := svc.Review(ctx, Actor{UserID: client}, jobID, ReviewReject, "deliverable does not match the brief")
	if err != nil {
		t.Fatalf("Review reject: %v", err)
	}
	if got.Status != models.StatusDisputed {
		t.Fatalf("status = %s, want DISPUTED", got.Status)
	}
	if got.RejectionReason != "deliverable does not match the brief" {
		t.Fatalf("rejection reason = %q", got.RejectionReason)
	}
	if got.ReviewedAt == nil {
		t.Fatalf("reviewed_at not recorded")
	}
}

func TestReview_RequestRevision(t *testing.T) {
	svc, store, rep := setup(t)
	jobID, client, freelancer := submittedJob(t, svc, store)
	ctx := context.Background()

	got, err := svc.Review(ctx, Actor{UserID: client}, jobID, ReviewRequestRevision, "")
	if err != nil {
		t.Fatalf("Review request_revision: %v", err)
	}
	if got.Status != models.StatusInProgress {
		t.Fatalf("status = %s, want IN_PROGRESS", got.Status)
	}
	if got.SubmittedAt != nil {
		t.Fatalf("submitted_at should be cleared, got %v", got.SubmittedAt)
	}
	if len(rep.calls) != 0 {
		t.Fatalf("revision must not trigger reputation recompute, got %v", rep.calls)
	}

	// The freelancer can resubmit after a revision request.
	again, err := svc.SubmitWork(ctx, Actor{UserID: freelancer}, jobID, "https://github.com/acme/pr/2", "")
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if again.Status != models.StatusSubmitted || again.SubmittedAt == nil {
		t.Fatalf("resubmit state = %s submitted_at=%v", again.Status, again.SubmittedAt)
	}
	if again.SubmissionURL != "https://github.com/acme/pr/2" {
		t.Fatalf("resubmit url = %q", again.SubmissionURL)
	}
}

func TestReview_InvalidAction(t *testing.T) {
	svc, store, _ := setup(t)
	jobID, client, _ := submittedJob(t, svc, store)

	if _, err := svc.Review(context.Background(), Actor{UserID: client}, jobID, ReviewAction("escalate"), ""); !fault.Is(err, fault.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCancel(t *testing.T) {
	svc, store, _ := setup(t)
	client := addUser(t, store, "wallet-client")
	freelancer := addUser(t, store, "wallet-freelancer")
	stranger := addUser(t, store, "wallet-stranger")
	job := createOpenJob(t, svc, client)
	ctx := context.Background()

	if _, err := svc.Cancel(ctx, Actor{UserID: stranger}, job.ID); !fault.Is(err, fault.KindAuthorization) {
		t.Fatalf("non-owner cancel: expected authorization error, got %v", err)
	}

	got, err := svc.Cancel(ctx, Actor{UserID: client}, job.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if got.Status != models.StatusCancelled {
		t.Fatalf("status = %s, want CANCELLED", got.Status)
	}

	// CANCELLED is terminal; no further moves.
	if _, err := svc.Assign(ctx, Actor{UserID: client}, job.ID, freelancer); !fault.Is(err, fault.KindPrecondition) {
		t.Fatalf("assign after cancel: expected precondition error, got %v", err)
	}

	other := createOpenJob(t, svc, client)
	if _, err := svc.Assign(ctx, Actor{UserID: client}, other.ID, freelancer); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if _, err := svc.Cancel(ctx, Actor{UserID: client}, other.ID); !fault.Is(err, fault.KindPrecondition) {
		t.Fatalf("cancel in-progress: expected precondition error, got %v", err)
	}
}

func TestApply(t *testing.T) {
	svc, store, _ := setup(t)
	client := addUser(t, store, "wallet-client")
	freelancer := addUser(t, store, "wallet-freelancer")
	job := createOpenJob(t, svc, client)
	ctx := context.Background()

	if _, err := svc.Apply(ctx, Actor{UserID: client}, job.ID, "I wrote it"); !fault.Is(err, fault.KindValidation) {
		t.Fatalf("own-job apply: expected validation error, got %v", err)
	}
	if _, err := svc.Apply(ctx, Actor{UserID: freelancer}, job.ID, "3 years of Next.js"); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if _, err := svc.Cancel(ctx, Actor{UserID: client}, job.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if _, err := svc.Apply(ctx, Actor{UserID: freelancer}, job.ID, "still interested"); !fault.Is(err, fault.KindPrecondition) {
		t.Fatalf("apply after cancel: expected precondition error, got %v", err)
	}

	// Applying mutates nothing.
	got, err := svc.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.FreelancerID != nil {
		t.Fatalf("apply must not assign, got freelancer %v", *got.FreelancerID)
	}
}

func TestGet_NotFound(t *testing.T) {
	svc, _, _ := setup(t)
	if _, err := svc.Get(context.Background(), 404); !fault.Is(err, fault.KindNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestParseReviewAction(t *testing.T) {
	for _, s := range []string{"approve", "reject", "request_revision"} {
		if _, err := ParseReviewAction(s); err != nil {
			t.Fatalf("ParseReviewAction(%q): %v", s, err)
		}
	}
	if _, err := ParseReviewAction("APPROVE"); !fault.Is(err, fault.KindValidation) {
		t.Fatalf("expected validation error for unknown action, got %v", err)
	}
}

func TestFullLifecycle(t *testing.T) {
	svc, store, rep := setup(t)
	client := addUser(t, store, "wallet-client")
	freelancer := addUser(t, store, "wallet-freelancer")
	ctx := context.Background()

	job := createOpenJob(t, svc, client)
	if _, err := svc.Apply(ctx, Actor{UserID: freelancer}, job.ID, "pick me"); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, err := svc.Assign(ctx, Actor{UserID: client}, job.ID, freelancer); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if _, err := svc.SubmitWork(ctx, Actor{UserID: freelancer}, job.ID, "https://github.com/acme/site", ""); err != nil {
		t.Fatalf("SubmitWork: %v", err)
	}
	got, err := svc.Review(ctx, Actor{UserID: client}, job.ID, ReviewApprove, "")
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if got.Status != models.StatusCompleted {
		t.Fatalf("final status = %s, want COMPLETED", got.Status)
	}
	if len(rep.calls) != 1 {
		t.Fatalf("reputation recompute calls = %v", rep.calls)
	}
}

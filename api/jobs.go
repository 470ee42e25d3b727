package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/repchain/repchain/internal/fault"
	"github.com/repchain/repchain/internal/jobs"
	"github.com/repchain/repchain/internal/models"
	"github.com/repchain/repchain/pkg/repository"
)

const maxBodyBytes = 1 << 20

type JobsHandler struct {
	svc   *jobs.Service
	users repository.UserRepo
}

func NewJobsHandler(svc *jobs.Service, users repository.UserRepo) *JobsHandler {
	return &JobsHandler{svc: svc, users: users}
}

type userSummary struct {
	ID              int64  `json:"id"`
	Username        string `json:"username,omitempty"`
	WalletAddress   string `json:"wallet_address"`
	ReputationScore int    `json:"reputation_score"`
}

// jobResponse embeds the job plus lightweight summaries of both parties so
// listings render without extra lookups.
type jobResponse struct {
	models.Job
	Client     *userSummary `json:"client,omitempty"`
	Freelancer *userSummary `json:"freelancer,omitempty"`
}

func (h *JobsHandler) toResponse(r *http.Request, job *models.Job) jobResponse {
	resp := jobResponse{Job: *job}
	resp.Client = h.summary(r, job.ClientID)
	if job.FreelancerID != nil {
		resp.Freelancer = h.summary(r, *job.FreelancerID)
	}
	return resp
}

func (h *JobsHandler) summary(r *http.Request, userID int64) *userSummary {
	u, err := h.users.GetUserByID(r.Context(), userID)
	if err != nil || u == nil {
		return nil
	}
	return &userSummary{
		ID:              u.ID,
		Username:        u.Username,
		WalletAddress:   u.WalletAddress,
		ReputationScore: u.ReputationScore,
	}
}

func actor(r *http.Request) (jobs.Actor, bool) {
	id, wallet, ok := actorFromContext(r.Context())
	return jobs.Actor{UserID: id, Wallet: wallet}, ok
}

func jobIDFromPath(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, fault.Validation("invalid job id")
	}
	return id, nil
}

type createJobRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Requirements string `json:"requirements"`
	Budget       int64  `json:"budget"`
	Deadline     string `json:"deadline"`
}

func (h *JobsHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, fault.Validation("unreadable body"))
		return
	}
	if err := validateBody(r.Context(), createJobSchema, body); err != nil {
		writeError(w, err)
		return
	}

	var req createJobRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, fault.Validation("invalid json"))
		return
	}
	deadline, err := time.Parse(time.RFC3339, req.Deadline)
	if err != nil {
		writeError(w, fault.Validation("deadline must be RFC3339"))
		return
	}

	job, err := h.svc.Create(r.Context(), act, jobs.CreateParams{
		Title:        req.Title,
		Description:  req.Description,
		Requirements: req.Requirements,
		Budget:       req.Budget,
		Deadline:     deadline,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, h.toResponse(r, job), http.StatusCreated)
}

func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter models.JobFilter

	if s := q.Get("status"); s != "" {
		status, err := models.ParseJobStatus(s)
		if err != nil {
			writeError(w, fault.Validation("invalid status %q", s))
			return
		}
		filter.Status = &status
	}
	if c := q.Get("client_id"); c != "" {
		id, err := strconv.ParseInt(c, 10, 64)
		if err != nil {
			writeError(w, fault.Validation("invalid client_id"))
			return
		}
		filter.ClientID = &id
	}
	if f := q.Get("freelancer_id"); f != "" {
		id, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			writeError(w, fault.Validation("invalid freelancer_id"))
			return
		}
		filter.FreelancerID = &id
	}

	h.list(w, r, filter)
}

// MyJobs lists jobs where the caller participates, filtered by role.
func (h *JobsHandler) MyJobs(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var filter models.JobFilter
	switch role := r.URL.Query().Get("role"); role {
	case "client":
		filter.ClientID = &act.UserID
	case "freelancer":
		filter.FreelancerID = &act.UserID
	case "", "both":
		filter.Party = &act.UserID
	default:
		writeError(w, fault.Validation("invalid role %q", role))
		return
	}

	h.list(w, r, filter)
}

func (h *JobsHandler) list(w http.ResponseWriter, r *http.Request, filter models.JobFilter) {
	found, err := h.svc.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	items := make([]jobResponse, 0, len(found))
	for i := range found {
		items = append(items, h.toResponse(r, &found[i]))
	}
	writeJSON(w, map[string]any{"total": len(items), "items": items}, http.StatusOK)
}

func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := jobIDFromPath(r)
	if err != nil {
		writeError(w, err)
		return
	}
	job, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, h.toResponse(r, job), http.StatusOK)
}

type applyRequest struct {
	Proposal string `json:"proposal"`
}

func (h *JobsHandler) Apply(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := jobIDFromPath(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req applyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fault.Validation("invalid json"))
		return
	}

	if _, err := h.svc.Apply(r.Context(), act, id, req.Proposal); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"message": "application received"}, http.StatusOK)
}

type assignRequest struct {
	FreelancerID int64 `json:"freelancer_id"`
}

func (h *JobsHandler) Assign(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := jobIDFromPath(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fault.Validation("invalid json"))
		return
	}
	if req.FreelancerID <= 0 {
		writeError(w, fault.Validation("freelancer_id is required"))
		return
	}

	job, err := h.svc.Assign(r.Context(), act, id, req.FreelancerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, h.toResponse(r, job), http.StatusOK)
}

type submitRequest struct {
	SubmissionURL string `json:"submission_url"`
	Notes         string `json:"notes"`
}

func (h *JobsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := jobIDFromPath(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fault.Validation("invalid json"))
		return
	}

	job, err := h.svc.SubmitWork(r.Context(), act, id, req.SubmissionURL, req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, h.toResponse(r, job), http.StatusOK)
}

type reviewRequest struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
}

func (h *JobsHandler) Review(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := jobIDFromPath(r)
	if err != nil {
		writeError(w, err)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, fault.Validation("unreadable body"))
		return
	}
	if err := validateBody(r.Context(), reviewSchema, body); err != nil {
		writeError(w, err)
		return
	}

	var req reviewRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, fault.Validation("invalid json"))
		return
	}
	action, err := jobs.ParseReviewAction(req.Action)
	if err != nil {
		writeError(w, err)
		return
	}

	job, err := h.svc.Review(r.Context(), act, id, action, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, h.toResponse(r, job), http.StatusOK)
}

func (h *JobsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := jobIDFromPath(r)
	if err != nil {
		writeError(w, err)
		return
	}

	job, err := h.svc.Cancel(r.Context(), act, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, h.toResponse(r, job), http.StatusOK)
}

package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/repchain/repchain/internal/fault"
	"github.com/repchain/repchain/internal/models"
	"github.com/repchain/repchain/internal/reputation"
	"github.com/repchain/repchain/pkg/repository"
)

type UsersHandler struct {
	users  repository.UserRepo
	engine *reputation.Engine
}

func NewUsersHandler(users repository.UserRepo, engine *reputation.Engine) *UsersHandler {
	return &UsersHandler{users: users, engine: engine}
}

func (h *UsersHandler) currentUser(w http.ResponseWriter, r *http.Request) *models.User {
	id, _, ok := actorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return nil
	}
	u, err := h.users.GetUserByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return nil
	}
	if u == nil {
		writeError(w, fault.NotFound("user %d not found", id))
		return nil
	}
	return u
}

func (h *UsersHandler) Me(w http.ResponseWriter, r *http.Request) {
	u := h.currentUser(w, r)
	if u == nil {
		return
	}
	writeJSON(w, u, http.StatusOK)
}

type updateProfileRequest struct {
	Username *string `json:"username"`
	Bio      *string `json:"bio"`
	Email    *string `json:"email"`
}

func (h *UsersHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	u := h.currentUser(w, r)
	if u == nil {
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fault.Validation("invalid json"))
		return
	}
	if req.Username == nil && req.Bio == nil && req.Email == nil {
		writeError(w, fault.Validation("nothing to update"))
		return
	}
	if req.Username != nil && len(*req.Username) > 80 {
		writeError(w, fault.Validation("username too long"))
		return
	}

	if err := h.users.UpdateProfile(r.Context(), u.ID, req.Username, req.Bio, req.Email); err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.users.GetUserByID(r.Context(), u.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, updated, http.StatusOK)
}

type reputationResponse struct {
	UserID  int64                    `json:"user_id"`
	Score   int                      `json:"score"`
	Factors models.ReputationFactors `json:"factors"`
}

// GetReputation computes the live score and breakdown without persisting.
func (h *UsersHandler) GetReputation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		writeError(w, fault.Validation("invalid user id"))
		return
	}

	score, factors, err := h.engine.Calculate(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, reputationResponse{UserID: id, Score: score, Factors: factors}, http.StatusOK)
}

// RefreshReputation recomputes and persists the caller's score. Users can
// only refresh themselves.
func (h *UsersHandler) RefreshReputation(w http.ResponseWriter, r *http.Request) {
	actorID, _, ok := actorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		writeError(w, fault.Validation("invalid user id"))
		return
	}
	if id != actorID {
		writeError(w, fault.Authorization("can only refresh your own reputation"))
		return
	}

	score, err := h.engine.UpdateUserReputation(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"user_id": id, "score": score}, http.StatusOK)
}

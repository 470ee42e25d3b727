package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"log/slog"

	"github.com/repchain/repchain/internal/fault"
	"github.com/repchain/repchain/internal/reputation"
	"github.com/repchain/repchain/pkg/github"
	"github.com/repchain/repchain/pkg/repository"
)

// GitHubHandler links marketplace accounts to GitHub profiles. Linking and
// unlinking both trigger a reputation recompute since the GitHub factor is
// 30% of the score.
type GitHubHandler struct {
	users  repository.UserRepo
	client *github.Client
	engine *reputation.Engine
}

func NewGitHubHandler(users repository.UserRepo, client *github.Client, engine *reputation.Engine) *GitHubHandler {
	return &GitHubHandler{users: users, client: client, engine: engine}
}

type connectRequest struct {
	GitHubUsername string `json:"github_username"`
}

func (h *GitHubHandler) Connect(w http.ResponseWriter, r *http.Request) {
	actorID, _, ok := actorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req connectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fault.Validation("invalid json"))
		return
	}
	req.GitHubUsername = strings.TrimSpace(req.GitHubUsername)
	if req.GitHubUsername == "" {
		writeError(w, fault.Validation("github_username is required"))
		return
	}

	ctx := r.Context()

	exists, err := h.client.Verify(ctx, req.GitHubUsername)
	if err != nil {
		writeError(w, fault.External(err, "verify github account"))
		return
	}
	if !exists {
		writeError(w, fault.Validation("github account %q not found", req.GitHubUsername))
		return
	}

	// One GitHub identity backs at most one wallet.
	taken, err := h.users.GetUserByGitHubUsername(ctx, req.GitHubUsername)
	if err != nil {
		writeError(w, err)
		return
	}
	if taken != nil && taken.ID != actorID {
		writeError(w, fault.Precondition("github account %q is already linked", req.GitHubUsername))
		return
	}

	if err := h.users.SetGitHubUsername(ctx, actorID, &req.GitHubUsername); err != nil {
		writeError(w, err)
		return
	}

	score, err := h.engine.UpdateUserReputation(ctx, actorID)
	if err != nil {
		writeError(w, err)
		return
	}

	logger.Info("github linked", slog.Int64("user_id", actorID), slog.String("github_username", req.GitHubUsername))
	writeJSON(w, map[string]any{"github_username": req.GitHubUsername, "score": score}, http.StatusOK)
}

func (h *GitHubHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	actorID, _, ok := actorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx := r.Context()
	if err := h.users.SetGitHubUsername(ctx, actorID, nil); err != nil {
		writeError(w, err)
		return
	}

	score, err := h.engine.UpdateUserReputation(ctx, actorID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"github_username": nil, "score": score}, http.StatusOK)
}

func (h *GitHubHandler) Stats(w http.ResponseWriter, r *http.Request) {
	actorID, _, ok := actorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx := r.Context()
	user, err := h.users.GetUserByID(ctx, actorID)
	if err != nil {
		writeError(w, err)
		return
	}
	if user == nil || user.GitHubUsername == nil || *user.GitHubUsername == "" {
		writeError(w, fault.NotFound("no github account linked"))
		return
	}

	stats, err := h.client.GetStats(ctx, *user.GitHubUsername)
	if err != nil {
		writeError(w, fault.External(err, "fetch github stats"))
		return
	}
	writeJSON(w, stats, http.StatusOK)
}

// Refresh recomputes the caller's reputation from fresh GitHub data.
func (h *GitHubHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	actorID, _, ok := actorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	score, err := h.engine.UpdateUserReputation(r.Context(), actorID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"score": score}, http.StatusOK)
}

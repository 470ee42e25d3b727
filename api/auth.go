package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"log/slog"

	"github.com/repchain/repchain/internal/fault"
	"github.com/repchain/repchain/internal/models"
	"github.com/repchain/repchain/pkg/repository"
)

// AuthHandler implements wallet-based login. The client signs a nonce
// message with their wallet key; on-chain signature verification happens in
// the wallet adapter upstream, so the handler trusts the presented wallet
// address and only manages sessions.
type AuthHandler struct {
	users         repository.UserRepo
	jwtSecret     string
	tokenDuration time.Duration
}

func NewAuthHandler(users repository.UserRepo, jwtSecret string, tokenDuration time.Duration) *AuthHandler {
	return &AuthHandler{users: users, jwtSecret: jwtSecret, tokenDuration: tokenDuration}
}

type nonceRequest struct {
	WalletAddress string `json:"wallet_address"`
}

type nonceResponse struct {
	Nonce   string `json:"nonce"`
	Message string `json:"message"`
}

type loginRequest struct {
	WalletAddress string `json:"wallet_address"`
	Signature     string `json:"signature"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Nonce issues a fresh message for the wallet to sign.
func (h *AuthHandler) Nonce(w http.ResponseWriter, r *http.Request) {
	var req nonceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fault.Validation("invalid json"))
		return
	}
	req.WalletAddress = strings.TrimSpace(req.WalletAddress)
	if req.WalletAddress == "" {
		writeError(w, fault.Validation("wallet_address is required"))
		return
	}

	nonce := uuid.NewString()
	msg := fmt.Sprintf("RepChain login\nwallet: %s\nnonce: %s", req.WalletAddress, nonce)
	writeJSON(w, nonceResponse{Nonce: nonce, Message: msg}, http.StatusOK)
}

// Login finds or creates the user for the wallet and issues a session token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fault.Validation("invalid json"))
		return
	}
	req.WalletAddress = strings.TrimSpace(req.WalletAddress)
	if req.WalletAddress == "" {
		writeError(w, fault.Validation("wallet_address is required"))
		return
	}

	ctx := r.Context()
	user, err := h.users.GetUserByWallet(ctx, req.WalletAddress)
	if err != nil {
		writeError(w, err)
		return
	}
	if user == nil {
		u := &models.User{WalletAddress: req.WalletAddress, IsActive: true}
		id, err := h.users.CreateUser(ctx, u)
		if err != nil {
			writeError(w, err)
			return
		}
		user, err = h.users.GetUserByID(ctx, id)
		if err != nil || user == nil {
			writeError(w, fmt.Errorf("load created user %d: %w", id, err))
			return
		}
		logger.Info("user created", slog.Int64("user_id", id), slog.String("wallet", req.WalletAddress))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"wallet":  user.WalletAddress,
		"exp":     time.Now().Add(h.tokenDuration).Unix(),
	})
	tokenStr, err := token.SignedString([]byte(h.jwtSecret))
	if err != nil {
		writeError(w, fmt.Errorf("sign token: %w", err))
		return
	}

	writeJSON(w, loginResponse{Token: tokenStr, User: user}, http.StatusOK)
}

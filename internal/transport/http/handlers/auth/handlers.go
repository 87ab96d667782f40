package authhandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"leavehub/internal/domain/auth"
	"leavehub/internal/domain/org"
	"leavehub/internal/transport/http/api"
	"leavehub/internal/transport/http/middleware"
)

type Handler struct {
	Org       *org.Store
	JWTSecret string
	TokenTTL  time.Duration
}

func NewHandler(orgStore *org.Store, jwtSecret string, tokenTTL time.Duration) *Handler {
	return &Handler{Org: orgStore, JWTSecret: jwtSecret, TokenTTL: tokenTTL}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if strings.TrimSpace(payload.Email) == "" || payload.Password == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "email and password required", middleware.GetRequestID(r.Context()))
		return
	}

	creds, err := h.Org.CredentialsByEmail(r.Context(), payload.Email)
	if err != nil {
		if errors.Is(err, org.ErrActorNotFound) {
			api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password", middleware.GetRequestID(r.Context()))
			return
		}
		api.ServerError(w, "login_failed", "login failed", middleware.GetRequestID(r.Context()))
		return
	}
	if err := auth.CheckPassword(creds.PasswordHash, payload.Password); err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password", middleware.GetRequestID(r.Context()))
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, auth.Claims{UserID: creds.UserID, Role: string(creds.Role)}, h.TokenTTL)
	if err != nil {
		api.ServerError(w, "login_failed", "login failed", middleware.GetRequestID(r.Context()))
		return
	}

	api.Success(w, map[string]any{
		"token": token,
		"user":  map[string]string{"id": creds.UserID, "role": string(creds.Role)},
	}, middleware.GetRequestID(r.Context()))
}

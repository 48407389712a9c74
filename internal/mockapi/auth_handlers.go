package mockapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/example/ec-storefront/internal/auth"
	"go.uber.org/zap"
)

// AuthHandlers handles login and registration
type AuthHandlers struct {
	store      *Store
	jwtService *auth.JWTService
	logger     *zap.Logger
}

func NewAuthHandlers(store *Store, jwtService *auth.JWTService, logger *zap.Logger) *AuthHandlers {
	return &AuthHandlers{store: store, jwtService: jwtService, logger: logger}
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Admin    bool   `json:"admin"`
}

// Register creates a customer account and signs it in
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		respondError(w, "Username is required", http.StatusBadRequest)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) || errors.Is(err, auth.ErrPasswordTooLong) {
			respondError(w, err.Error(), http.StatusBadRequest)
			return
		}
		respondError(w, "Registration failed", http.StatusInternalServerError)
		return
	}

	err = h.store.AddUser(user{Username: req.Username, FullName: req.FullName, PasswordHash: hash})
	if errors.Is(err, ErrUserExists) {
		respondError(w, "Username already taken", http.StatusConflict)
		return
	}
	h.respondToken(w, http.StatusCreated, req.Username, false)
}

// Login verifies the password and issues a token
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	u, exists := h.store.User(req.Username)
	if !exists || !auth.CheckPassword(req.Password, u.PasswordHash) {
		respondError(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}
	h.respondToken(w, http.StatusOK, u.Username, u.Admin)
}

func (h *AuthHandlers) respondToken(w http.ResponseWriter, status int, username string, admin bool) {
	token, _, err := h.jwtService.GenerateAccessToken(username, admin)
	if err != nil {
		h.logger.Error("failed to sign token", zap.Error(err))
		respondError(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}
	respondJSON(w, status, authResponse{Token: token, Username: username, Admin: admin})
}

// AddUser creates an account directly, e.g. to seed an administrator
func AddUser(store *Store, username, password, fullName string, admin bool) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	return store.AddUser(user{Username: username, FullName: fullName, PasswordHash: hash, Admin: admin})
}

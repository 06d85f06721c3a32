package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/example/leathershop/internal/api/middleware"
	"github.com/example/leathershop/internal/auth"
	"github.com/example/leathershop/internal/email"
	"github.com/example/leathershop/internal/store"
)

// UserStore is the slice of the user store the auth handlers need.
type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash, name, role string) (*store.User, error)
	GetUserByEmail(ctx context.Context, email string) (*store.User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	RecordLoginAttempt(ctx context.Context, email, ip string) error
}

// AuthHandlers handles authentication-related HTTP requests
type AuthHandlers struct {
	users      UserStore
	jwtService *auth.JWTService
	emails     *email.Service
	appOrigin  string
}

func NewAuthHandlers(users UserStore, jwtService *auth.JWTService, emails *email.Service, appOrigin string) *AuthHandlers {
	return &AuthHandlers{
		users:      users,
		jwtService: jwtService,
		emails:     emails,
		appOrigin:  appOrigin,
	}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse represents the authentication response
type AuthResponse struct {
	User    UserResponse `json:"user"`
	Message string       `json:"message,omitempty"`
}

// UserResponse represents user data in responses
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func toUserResponse(u *store.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

// Register handles user registration
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" {
		respondJSONError(w, "Email is required", http.StatusBadRequest)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			respondJSONError(w, "Password must be at least 8 characters", http.StatusBadRequest)
			return
		}
		respondJSONError(w, "Registration failed", http.StatusInternalServerError)
		return
	}

	newUser, err := h.users.CreateUser(r.Context(), req.Email, hash, req.Name, store.RoleCustomer)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			respondJSONError(w, "Email already registered", http.StatusConflict)
			return
		}
		respondJSONError(w, "Registration failed", http.StatusInternalServerError)
		return
	}

	h.setSessionCookie(w, r, newUser)

	respondJSON(w, http.StatusCreated, AuthResponse{
		User:    toUserResponse(newUser),
		Message: "Registration successful",
	})
}

// Login handles user login. A failed attempt is recorded with the caller's
// IP; a successful one notifies the shop owner by email, best-effort.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	ip := clientIP(r)

	userModel, err := h.users.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = h.users.RecordLoginAttempt(r.Context(), req.Email, ip)
			respondJSONError(w, "Invalid email or password", http.StatusUnauthorized)
			return
		}
		respondJSONError(w, "Login failed", http.StatusInternalServerError)
		return
	}

	if !auth.CheckPassword(req.Password, userModel.PasswordHash) {
		_ = h.users.RecordLoginAttempt(r.Context(), req.Email, ip)
		respondJSONError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	h.setSessionCookie(w, r, userModel)

	go func(userEmail, ip string) {
		if err := h.emails.SendLoginNotice(userEmail, ip); err != nil {
			log.Printf("[Auth] Login notice email failed: %v", err)
		}
	}(userModel.Email, ip)

	respondJSON(w, http.StatusOK, AuthResponse{
		User:    toUserResponse(userModel),
		Message: "Login successful",
	})
}

// Logout clears the session cookie.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Logout successful",
	})
}

// Session returns the current identity, or a null user for anonymous
// callers. Runs behind OptionalAuth so it never rejects.
func (h *AuthHandlers) Session(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	if !identity.IsAuthenticated() {
		respondJSON(w, http.StatusOK, map[string]interface{}{"user": nil})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"user": UserResponse{
			ID:    identity.UserID,
			Email: identity.Email,
			Role:  identity.Role,
		},
	})
}

// ForgotPassword mails a recovery link. The response is the same whether
// or not the email belongs to an account.
func (h *AuthHandlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" {
		respondJSONError(w, "Email is required", http.StatusBadRequest)
		return
	}

	userModel, err := h.users.GetUserByEmail(r.Context(), req.Email)
	if err == nil {
		token, _, tokenErr := h.jwtService.GenerateRecoveryToken(userModel.ID, userModel.Email)
		if tokenErr == nil {
			resetURL := h.appOrigin + "/nouveau-mot-de-passe?token=" + url.QueryEscape(token)
			if sendErr := h.emails.SendPasswordReset(userModel.Email, resetURL); sendErr != nil {
				log.Printf("[Auth] Password reset email failed: %v", sendErr)
			}
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		respondJSONError(w, "Request failed", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "If an account exists for this address, a reset link has been sent",
	})
}

// NewPassword sets a new password. Runs behind RequireRecovery: only the
// short-lived token from the reset email reaches here.
func (h *AuthHandlers) NewPassword(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			respondJSONError(w, "Password must be at least 8 characters", http.StatusBadRequest)
			return
		}
		respondJSONError(w, "Password update failed", http.StatusInternalServerError)
		return
	}

	if err := h.users.UpdatePassword(r.Context(), identity.UserID, hash); err != nil {
		respondJSONError(w, "Password update failed", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Password updated",
	})
}

func (h *AuthHandlers) setSessionCookie(w http.ResponseWriter, r *http.Request, u *store.User) {
	token, expiresAt, err := h.jwtService.GenerateSessionToken(u.ID, u.Email, u.Role)
	if err != nil {
		log.Printf("[Auth] Failed to sign session token: %v", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
}

// clientIP returns the first X-Forwarded-For entry when present, otherwise
// the connection's remote host.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.Index(fwd, ","); idx >= 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}
	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx >= 0 {
		host = host[:idx]
	}
	return host
}

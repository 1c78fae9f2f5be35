package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/vijaymanda323/motion-video/internal/auth"
	"github.com/vijaymanda323/motion-video/internal/domain"
	"github.com/vijaymanda323/motion-video/internal/metrics"
	"github.com/vijaymanda323/motion-video/internal/service"
)

// UserHandler handles registration, login, and profile requests.
type UserHandler struct {
	authService *service.AuthService
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(authService *service.AuthService, m *metrics.Metrics, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		authService: authService,
		metrics:     m,
		logger:      logger.With().Str("handler", "user").Logger(),
	}
}

// RegisterRoutes registers user routes.
func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Post("/users/register", h.handleRegister)
	r.Post("/users/login", h.handleLogin)
	r.Put("/users/profile", h.handleUpdateProfile)
	r.Get("/users/profile/{email}", h.handleGetProfile)
}

// RegisterProtectedRoutes registers routes that require a session token.
func (h *UserHandler) RegisterProtectedRoutes(r chi.Router) {
	r.Get("/users/me", h.handleMe)
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type loginUserSummary struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	FirstName   string `json:"firstName,omitempty"`
	StreakCount int    `json:"streakCount"`
}

func (h *UserHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, fmt.Errorf("%w: invalid request body", domain.ErrValidation))
		return
	}

	out, err := h.authService.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"token": out.Token,
		"user": userSummary{
			ID:    out.User.ID,
			Name:  out.User.Name,
			Email: out.User.Email,
		},
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *UserHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, fmt.Errorf("%w: invalid request body", domain.ErrValidation))
		return
	}

	out, err := h.authService.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.metrics.LoginsTotal.Inc()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": out.Token,
		"user": loginUserSummary{
			ID:          out.User.ID,
			Name:        out.User.Name,
			Email:       out.User.Email,
			FirstName:   out.User.FirstName,
			StreakCount: out.User.StreakCount,
		},
	})
}

type profileRequest struct {
	Email                   string   `json:"email"`
	Name                    *string  `json:"name"`
	FirstName               *string  `json:"firstName"`
	Surname                 *string  `json:"surname"`
	Gender                  *string  `json:"gender"`
	BirthDate               *string  `json:"birthDate"`
	Height                  *float64 `json:"height"`
	Weight                  *float64 `json:"weight"`
	HeartSurgery            *bool    `json:"heartSurgery"`
	WithinSixMonths         *bool    `json:"withinSixMonths"`
	HeartSurgeryComment     *string  `json:"heartSurgeryComment"`
	Fractures               *bool    `json:"fractures"`
	WithinSixMonthsFracture *bool    `json:"withinSixMonthsFracture"`
	FracturesComment        *string  `json:"fracturesComment"`
}

func (h *UserHandler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, fmt.Errorf("%w: invalid request body", domain.ErrValidation))
		return
	}

	// The mobile client sends the email in the body; a session token can
	// stand in for it when absent.
	email := req.Email
	if email == "" {
		if tokenEmail, ok := auth.EmailFromContext(r.Context()); ok {
			email = tokenEmail
		}
	}
	if email == "" {
		writeError(w, h.logger, domain.ErrEmailRequired)
		return
	}

	input := service.UpdateProfileInput{
		Email:                   email,
		Name:                    req.Name,
		FirstName:               req.FirstName,
		Surname:                 req.Surname,
		Gender:                  req.Gender,
		Height:                  req.Height,
		Weight:                  req.Weight,
		HeartSurgery:            req.HeartSurgery,
		WithinSixMonths:         req.WithinSixMonths,
		HeartSurgeryComment:     req.HeartSurgeryComment,
		Fractures:               req.Fractures,
		WithinSixMonthsFracture: req.WithinSixMonthsFracture,
		FracturesComment:        req.FracturesComment,
	}

	if req.BirthDate != nil {
		birthDate, err := parseDate(*req.BirthDate)
		if err != nil {
			writeError(w, h.logger, fmt.Errorf("%w: invalid birthDate", domain.ErrValidation))
			return
		}
		input.BirthDate = &birthDate
	}

	user, err := h.authService.UpdateProfile(r.Context(), input)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

// handleMe returns the profile of the authenticated user. The auth
// middleware guarantees an email is present.
func (h *UserHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	email, ok := auth.EmailFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrInvalidCredentials)
		return
	}

	user, err := h.authService.GetProfile(r.Context(), email)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

func (h *UserHandler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	user, err := h.authService.GetProfile(r.Context(), email)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

// parseDate accepts a bare calendar date or a full RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

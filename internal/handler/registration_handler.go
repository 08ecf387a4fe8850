package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"registration-wizard/internal/otp"
	"registration-wizard/internal/service"
	"registration-wizard/internal/steps"
	"registration-wizard/internal/util"
	"registration-wizard/internal/validation"
)

const maxBodyBytes = 64 << 10

// RegistrationHandler exposes the wizard screens over HTTP
type RegistrationHandler struct {
	registrations *service.RegistrationService
	logger        *zap.Logger
}

func NewRegistrationHandler(registrations *service.RegistrationService, logger *zap.Logger) *RegistrationHandler {
	return &RegistrationHandler{
		registrations: registrations,
		logger:        util.OrNop(logger),
	}
}

// Response represents a standard API response
type Response struct {
	Success bool              `json:"success"`
	Data    interface{}       `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func successResponse(data interface{}, message string) Response {
	return Response{
		Success: true,
		Data:    data,
		Message: message,
	}
}

func errorResponse(err error, message string) Response {
	resp := Response{
		Success: false,
		Error:   err.Error(),
		Message: message,
	}
	var input *service.InputError
	if errors.As(err, &input) {
		resp.Fields = input.Fields
	}
	return resp
}

type roleRequest struct {
	Role string `json:"role"`
}

type codeRequest struct {
	Code string `json:"code"`
}

// RegisterRoutes registers all registration routes
func (h *RegistrationHandler) RegisterRoutes(router chi.Router) {
	router.Route("/registrations", func(r chi.Router) {
		r.Post("/", h.Create)

		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Delete("/", h.Logout)
			r.Post("/phone", h.SubmitPhone)
			r.Put("/role", h.SelectRole)
			r.Post("/role", h.ContinueRole)
			r.Post("/otp", h.SubmitCode)
			r.Post("/otp/resend", h.ResendCode)
			r.Post("/profile", h.SubmitProfile)
			r.Post("/back", h.Back)
			r.Post("/edit", h.Edit)
		})
	})
}

func (h *RegistrationHandler) Create(w http.ResponseWriter, r *http.Request) {
	view, err := h.registrations.Create(r.Context())
	if err != nil {
		h.respondWithError(w, h.getStatusCode(err), err, "Failed to start registration")
		return
	}
	h.respondWithJSON(w, http.StatusCreated, successResponse(view, "Registration started"))
}

func (h *RegistrationHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.registrations.Get(r.Context(), sessionID(r))
	h.respondWithView(w, view, err, "Registration retrieved", "Failed to get registration")
}

func (h *RegistrationHandler) SubmitPhone(w http.ResponseWriter, r *http.Request) {
	var req steps.PhoneForm
	if !h.decode(w, r, &req, false) {
		return
	}
	view, err := h.registrations.SubmitPhone(r.Context(), sessionID(r), req)
	h.respondWithView(w, view, err, "Code sent", "Failed to submit phone")
}

func (h *RegistrationHandler) SelectRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if !h.decode(w, r, &req, false) {
		return
	}
	view, err := h.registrations.SelectRole(r.Context(), sessionID(r), req.Role)
	h.respondWithView(w, view, err, "Role selected", "Failed to select role")
}

// ContinueRole accepts an empty body to keep the current selection
func (h *RegistrationHandler) ContinueRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if !h.decode(w, r, &req, true) {
		return
	}
	view, err := h.registrations.ContinueRole(r.Context(), sessionID(r), req.Role)
	h.respondWithView(w, view, err, "Role confirmed", "Failed to confirm role")
}

func (h *RegistrationHandler) SubmitCode(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if !h.decode(w, r, &req, false) {
		return
	}
	view, err := h.registrations.SubmitCode(r.Context(), sessionID(r), req.Code)
	h.respondWithView(w, view, err, "Code accepted", "Failed to verify code")
}

func (h *RegistrationHandler) ResendCode(w http.ResponseWriter, r *http.Request) {
	view, err := h.registrations.ResendCode(r.Context(), sessionID(r))
	h.respondWithView(w, view, err, "Code sent", "Failed to resend code")
}

func (h *RegistrationHandler) SubmitProfile(w http.ResponseWriter, r *http.Request) {
	var req validation.ProfileForm
	if !h.decode(w, r, &req, false) {
		return
	}
	view, err := h.registrations.SubmitProfile(r.Context(), sessionID(r), req)
	h.respondWithView(w, view, err, "Registration complete", "Failed to save profile")
}

func (h *RegistrationHandler) Back(w http.ResponseWriter, r *http.Request) {
	view, err := h.registrations.Back(r.Context(), sessionID(r))
	h.respondWithView(w, view, err, "Moved back", "Failed to go back")
}

func (h *RegistrationHandler) Edit(w http.ResponseWriter, r *http.Request) {
	view, err := h.registrations.Edit(r.Context(), sessionID(r))
	h.respondWithView(w, view, err, "Editing profile", "Failed to start editing")
}

func (h *RegistrationHandler) Logout(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	if err := h.registrations.Logout(r.Context(), id); err != nil {
		h.respondWithError(w, h.getStatusCode(err), err, "Failed to log out")
		return
	}
	h.respondWithJSON(w, http.StatusOK, successResponse(nil, "Logged out"))
	h.logger.Info("Registration logged out via HTTP", util.String("session_id", id))
}

// Helper Methods

func sessionID(r *http.Request) string {
	return chi.URLParam(r, "sessionID")
}

// decode reads a JSON body; allowEmpty lets a missing body through
func (h *RegistrationHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}, allowEmpty bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || (allowEmpty && errors.Is(err, io.EOF)) {
		return true
	}
	h.respondWithError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", service.ErrInvalidInput, err), "Invalid request body")
	return false
}

func (h *RegistrationHandler) respondWithView(w http.ResponseWriter, view *service.View, err error, okMessage, failMessage string) {
	if err != nil {
		h.respondWithError(w, h.getStatusCode(err), err, failMessage)
		return
	}
	h.respondWithJSON(w, http.StatusOK, successResponse(view, okMessage))
}

// respondWithJSON sends a JSON response
func (h *RegistrationHandler) respondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", util.ErrorField(err))
	}
}

// respondWithError sends an error response
func (h *RegistrationHandler) respondWithError(w http.ResponseWriter, statusCode int, err error, message string) {
	h.logger.Warn("HTTP error response",
		util.ErrorField(err),
		util.Int("status_code", statusCode),
		util.String("message", message),
	)

	var early *otp.TooEarlyError
	if errors.As(err, &early) {
		w.Header().Set("Retry-After", strconv.Itoa(otp.Seconds(early.Remaining)))
	}
	h.respondWithJSON(w, statusCode, errorResponse(err, message))
}

// getStatusCode determines the appropriate HTTP status code for an error
func (h *RegistrationHandler) getStatusCode(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrWrongStep):
		return http.StatusConflict
	case errors.Is(err, service.ErrResendTooEarly):
		return http.StatusTooManyRequests
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// healthHandler reports dependency health within a short deadline
func healthHandler(check func(context.Context) error, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				logger.Warn("Health check failed", util.ErrorField(err))
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(Response{Success: false, Error: err.Error(), Message: "Service unhealthy"})
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","service":"registration-wizard"}`))
	}
}

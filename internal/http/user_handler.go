package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/room-reservations/internal/application"
	"github.com/example/room-reservations/internal/booking"
)

type userService interface {
	SearchResponsible(ctx context.Context, principal application.Principal, query string) ([]application.User, error)
	ListUsers(ctx context.Context, principal application.Principal) ([]application.User, error)
	UpdateRole(ctx context.Context, params application.UpdateRoleParams) (application.User, error)
}

type UserHandler struct {
	service   userService
	responder responder
	logger    *slog.Logger
}

func NewUserHandler(service userService, logger *slog.Logger) *UserHandler {
	base := defaultLogger(logger)
	return &UserHandler{service: service, responder: newResponder(base), logger: base}
}

// Responsibles serves the responsible-party picker.
func (h *UserHandler) Responsibles(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	users, err := h.service.SearchResponsible(r.Context(), principal, r.URL.Query().Get("q"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]responsibleDTO, 0, len(users))
	for _, u := range users {
		out = append(out, responsibleDTO{ID: u.ID, FullName: u.FullName, Area: u.Area})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, responsiblesResponse{Users: out})
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	users, err := h.service.ListUsers(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]userDTO, 0, len(users))
	for _, u := range users {
		out = append(out, toUserDTO(u))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listUsersResponse{Users: out})
}

// Update changes a user's role.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	userID := strings.TrimSpace(r.PathValue("id"))
	if userID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidUserID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := handlerLogger(r.Context(), h.logger, "UserHandler", "Update", "principal_id", principal.UserID, "user_id", userID)

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(r.Context(), "failed to decode user update", "error", err, "error_kind", "bad_request")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	user, err := h.service.UpdateRole(r.Context(), application.UpdateRoleParams{
		Principal: principal,
		UserID:    userID,
		Role:      booking.ParseRole(req.Role),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "user role updated", "role", string(user.Role))
	h.responder.writeJSON(r.Context(), w, http.StatusOK, userResponse{User: toUserDTO(user)})
}

type updateUserRequest struct {
	Role string `json:"role"`
}

type responsibleDTO struct {
	ID       string  `json:"id"`
	FullName string  `json:"full_name"`
	Area     *string `json:"area,omitempty"`
}

type responsiblesResponse struct {
	Users []responsibleDTO `json:"users"`
}

type userDTO struct {
	ID       string  `json:"id"`
	Email    string  `json:"email"`
	FullName string  `json:"full_name"`
	Area     *string `json:"area,omitempty"`
	Role     string  `json:"role"`
	Active   bool    `json:"active"`
}

func toUserDTO(u application.User) userDTO {
	return userDTO{ID: u.ID, Email: u.Email, FullName: u.FullName, Area: u.Area, Role: string(u.Role), Active: u.Active}
}

type userResponse struct {
	User userDTO `json:"user"`
}

type listUsersResponse struct {
	Users []userDTO `json:"users"`
}

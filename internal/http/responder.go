package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/room-reservations/internal/application"
	"github.com/example/room-reservations/internal/logging"
)

var (
	errBadRequestBody      = errors.New("El formato de la solicitud no es válido.")
	errInvalidReservation  = errors.New("El identificador de la reserva no es válido.")
	errInvalidRoomID       = errors.New("El identificador de la sala no es válido.")
	errInvalidUserID       = errors.New("El identificador del usuario no es válido.")
	errMissingSessionToken = errors.New("Debe iniciar sesión para continuar.")
)

type responder struct {
	logger *slog.Logger
}

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func newResponder(logger *slog.Logger) responder {
	return responder{logger: defaultLogger(logger)}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).WarnContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// handleServiceError maps application errors onto status codes and Spanish messages.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("error desconocido"))
		return
	}

	var (
		vErr       *application.ValidationError
		partialErr *application.PartialFailureError
	)
	switch {
	case errors.Is(err, application.ErrNotAuthenticated), errors.Is(err, application.ErrInvalidToken):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{ErrorCode: "AUTH_REQUIRED", Message: localizedStatusMessage(http.StatusUnauthorized)})
	case errors.Is(err, application.ErrInactiveUser):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{ErrorCode: "USER_INACTIVE", Message: "Su cuenta está desactivada. Contacte a un administrador."})
	case errors.Is(err, application.ErrPermissionDenied):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{ErrorCode: "AUTH_FORBIDDEN", Message: localizedStatusMessage(http.StatusForbidden)})
	case errors.As(err, &partialErr):
		r.writeJSON(ctx, w, http.StatusMultiStatus, partialFailureResponse{
			ErrorCode: "PARTIAL_FAILURE",
			Message:   "Algunas reservas no pudieron cancelarse. Recargue la vista para ver el estado actual.",
			Succeeded: partialErr.Succeeded,
			Failed:    partialErr.Failed,
		})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{ErrorCode: "NOT_FOUND", Message: localizedStatusMessage(http.StatusNotFound)})
	case errors.Is(err, application.ErrConflict):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{ErrorCode: "SLOT_TAKEN", Message: "El horario seleccionado ya está reservado."})
	case errors.Is(err, application.ErrReservationEnded):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{ErrorCode: "RESERVATION_ENDED", Message: "La reserva ya finalizó y no puede cancelarse."})
	case errors.Is(err, application.ErrAlreadyCheckedIn):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{ErrorCode: "ALREADY_CHECKED_IN", Message: "La reserva ya registró su asistencia."})
	case errors.Is(err, application.ErrCheckinWindowClosed):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{ErrorCode: "CHECKIN_WINDOW_CLOSED", Message: "El check-in solo está disponible 15 minutos antes y después del inicio."})
	case errors.Is(err, application.ErrCodeInvalid):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{ErrorCode: "CHECKIN_CODE_INVALID", Message: "El código de check-in no es válido."})
	case errors.Is(err, application.ErrCodeExpired):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{ErrorCode: "CHECKIN_CODE_EXPIRED", Message: "El código de check-in expiró."})
	case errors.Is(err, application.ErrCodeUsed):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{ErrorCode: "CHECKIN_CODE_USED", Message: "El código de check-in ya fue utilizado."})
	case errors.As(err, &vErr):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "VALIDATION_FAILED",
			Message:   localizedStatusMessage(http.StatusUnprocessableEntity),
			Errors:    localizeValidationErrors(vErr),
		})
	case errors.Is(err, application.ErrUpstream):
		r.loggerFor(ctx).ErrorContext(ctx, "upstream failure", "error", err)
		r.writeJSON(ctx, w, http.StatusBadGateway, errorResponse{ErrorCode: "UPSTREAM_UNAVAILABLE", Message: localizedStatusMessage(http.StatusBadGateway)})
	default:
		r.loggerFor(ctx).ErrorContext(ctx, "unexpected failure", "error", err)
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: localizedStatusMessage(http.StatusInternalServerError)})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := logging.FromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

// handlerLogger tags the request logger, or fallback when the request has
// none, with the handler and operation names.
func handlerLogger(ctx context.Context, fallback *slog.Logger, handlerName, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = defaultLogger(fallback)
	}
	logger = logger.With("handler", handlerName)
	if operation != "" {
		logger = logger.With("operation", operation)
	}
	return logger.With(attrs...)
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "La solicitud no es válida."
	case http.StatusUnauthorized:
		return "Debe iniciar sesión para continuar."
	case http.StatusForbidden:
		return "No tiene permisos para realizar esta acción."
	case http.StatusNotFound:
		return "El recurso solicitado no existe."
	case http.StatusConflict:
		return "La solicitud entra en conflicto con el estado actual."
	case http.StatusUnprocessableEntity:
		return "Hay errores en los datos ingresados."
	case http.StatusBadGateway:
		return "El servicio de reservas no está disponible. Intente nuevamente."
	default:
		return "Ocurrió un error interno en el servidor."
	}
}

func localizeValidationErrors(vErr *application.ValidationError) map[string]string {
	if vErr == nil || len(vErr.FieldErrors) == 0 {
		return nil
	}

	translated := make(map[string]string, len(vErr.FieldErrors))
	for field, msg := range vErr.FieldErrors {
		translated[field] = translateValidationMessage(msg)
	}
	return translated
}

func translateValidationMessage(message string) string {
	switch message {
	case "date is required":
		return "La fecha es obligatoria."
	case "date must not be in the past":
		return "No se puede reservar en una fecha pasada."
	case "purpose is required":
		return "El motivo de la reserva es obligatorio."
	case "room is required":
		return "Debe seleccionar una sala."
	case "room is not available for booking":
		return "La sala no está disponible para reservas."
	case "select at least one slot":
		return "Seleccione al menos un bloque horario."
	case "select at least one block":
		return "Seleccione al menos un bloque para cancelar."
	case "reservation id is required":
		return "El identificador de la reserva es obligatorio."
	case "room id is required":
		return "El identificador de la sala es obligatorio."
	case "user id is required":
		return "El identificador del usuario es obligatorio."
	case "unknown role":
		return "El rol indicado no existe."
	case "you cannot change your own role":
		return "No puede cambiar su propio rol."
	case "the reservation lies outside the requested span":
		return "La reserva no pertenece al bloque indicado."
	default:
		switch {
		case strings.HasPrefix(message, "purpose must be at most"):
			return "El motivo es demasiado largo."
		case strings.HasSuffix(message, "is not a bookable slot"):
			return "El bloque " + strings.TrimSuffix(message, " is not a bookable slot") + " no es un horario reservable."
		case strings.HasSuffix(message, "selected twice"):
			return "El bloque " + strings.TrimSuffix(message, " selected twice") + " está repetido."
		case strings.HasSuffix(message, "is not part of the reservation"):
			return "Uno de los bloques no pertenece a la reserva."
		}
		return message
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}

type partialFailureResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
}

package utils

import (
	"errors"
	"net/http"

	"github.com/Jiriyaj/ProCan-Dashboard/internal/constants"
)

// Domain-level errors used by the service layer to provide
// fine-grained failure reasons.
var (
	ErrRouteNotFound    = errors.New("route_not_found")
	ErrOrderNotFound    = errors.New("order_not_found")
	ErrOperatorNotFound = errors.New("operator_not_found")

	ErrInvalidPayload    = errors.New("invalid_payload")
	ErrInvalidDate       = errors.New("invalid_date")
	ErrInvalidStatus     = errors.New("invalid_status")
	ErrRouteNotReady     = errors.New("route_not_ready")
	ErrOrderAlreadyRoute = errors.New("order_already_routed")
	ErrRouteNameTaken    = errors.New("route_name_taken")
	ErrNoActiveOperators = errors.New("no_active_operators")

	// For concurrency conflicts
	ErrRowVersionConflict = errors.New("row_version_conflict")

	// For external service failures (geocoding, SendGrid, Twilio)
	ErrExternalServiceFailure = errors.New("external_service_failure")
	ErrServiceNotConfigured   = errors.New("service_not_configured")
)

// AppError for structured error handling from services to controllers.
type AppError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// HandleAppError centralizes responding to AppErrors and the sentinel errors above.
func HandleAppError(w http.ResponseWriter, err error) {
	var appErr *AppError
	switch {
	case errors.As(err, &appErr):
		RespondErrorWithCode(w, appErr.StatusCode, appErr.Code, appErr.Message, nil, appErr.Err)
	case errors.Is(err, ErrRouteNotFound), errors.Is(err, ErrOrderNotFound), errors.Is(err, ErrOperatorNotFound):
		RespondErrorWithCode(w, http.StatusNotFound, ErrCodeNotFound, err.Error(), nil, err)
	case errors.Is(err, ErrInvalidPayload), errors.Is(err, ErrInvalidDate), errors.Is(err, ErrInvalidStatus):
		RespondErrorWithCode(w, http.StatusBadRequest, ErrCodeInvalidPayload, err.Error(), nil, err)
	case errors.Is(err, ErrRouteNotReady), errors.Is(err, ErrOrderAlreadyRoute), errors.Is(err, ErrRouteNameTaken),
		errors.Is(err, ErrNoActiveOperators):
		RespondErrorWithCode(w, http.StatusConflict, ErrCodeConflict, err.Error(), nil, err)
	case errors.Is(err, ErrRowVersionConflict):
		RespondErrorWithCode(w, http.StatusConflict, ErrCodeRowVersionConflict, constants.ErrMsgRowVersionConflictRefresh, nil, err)
	case errors.Is(err, ErrExternalServiceFailure):
		RespondErrorWithCode(w, http.StatusBadGateway, ErrCodeExternalServiceFailure, "Upstream service failed", nil, err)
	case errors.Is(err, ErrServiceNotConfigured):
		RespondErrorWithCode(w, http.StatusServiceUnavailable, ErrCodeNotConfigured, err.Error(), nil, err)
	default:
		RespondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternal, "An unexpected error occurred", nil, err)
	}
}

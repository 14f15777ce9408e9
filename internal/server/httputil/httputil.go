package httputil

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	apperrors "github.com/nmxmxh/referral-leaderboard/pkg/errors"
	"github.com/nmxmxh/referral-leaderboard/pkg/json"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Details   string `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// WriteJSONError writes a JSON error response and logs the error. Server
// errors log at Error, client errors at Debug.
func WriteJSONError(w http.ResponseWriter, r *http.Request, log *zap.Logger, status int, msg string, err error, contextFields ...zap.Field) {
	reqID := apperrors.RequestID(r.Context())
	fields := append(contextFields, zap.Int("status", status), zap.String("request_id", reqID))
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	if status >= http.StatusInternalServerError {
		log.Error(msg, fields...)
	} else {
		log.Debug(msg, fields...)
	}

	resp := ErrorResponse{Error: msg, RequestID: reqID}
	// Internal details stay in the log.
	if err != nil && status < http.StatusInternalServerError {
		resp.Details = err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error("Failed to write error response", zap.Error(err))
	}
}

// WriteJSONResponse writes a JSON response and logs on error.
func WriteJSONResponse(w http.ResponseWriter, log *zap.Logger, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to write JSON response", zap.Error(err))
	}
}

// StatusFromError maps service errors to HTTP status codes.
func StatusFromError(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case apperrors.Is(err, apperrors.ErrInvalidData), apperrors.Is(err, apperrors.ErrInvalidArgument):
		return http.StatusBadRequest
	case apperrors.Is(err, apperrors.ErrReferralExists):
		return http.StatusConflict
	case apperrors.Is(err, apperrors.ErrStoreUnavailable), apperrors.Is(err, apperrors.ErrCacheUnavailable):
		return http.StatusServiceUnavailable
	case apperrors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case apperrors.Is(err, context.Canceled):
		return 499 // Client Closed Request
	default:
		return http.StatusInternalServerError
	}
}

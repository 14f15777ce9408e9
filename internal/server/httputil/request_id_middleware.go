package httputil

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/nmxmxh/referral-leaderboard/pkg/errors"
	"github.com/nmxmxh/referral-leaderboard/pkg/logger"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestIDMiddleware returns an HTTP middleware that tags every request with
// an id, taken from the X-Request-ID header or generated, and injects it and
// a request-scoped logger into the context.
func RequestIDMiddleware(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get(RequestIDHeader)
			if reqID == "" || len(reqID) > 128 {
				reqID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, reqID)

			ctx := apperrors.WithRequestID(r.Context(), reqID)
			ctx = logger.WithContext(ctx, log.With(zap.String("request_id", reqID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

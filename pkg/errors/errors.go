package errors

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var (
	// ErrInvalidData is returned when a referral request carries missing or conflicting identifiers.
	ErrInvalidData = errors.New("invalid data")
	// ErrInvalidArgument is returned for malformed arguments such as a negative leaderboard size or an empty cache key.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrReferralExists is returned when a customer already has a referrer.
	ErrReferralExists = errors.New("referral already exists")
)

// Collaborator availability errors.
var (
	// ErrStoreUnavailable is returned when the referral store cannot be reached.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrCacheUnavailable is returned when the cache cannot be reached or its breaker is open.
	ErrCacheUnavailable = errors.New("cache unavailable")
)

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Wrap wraps an error with additional context. The result still matches err with Is.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Mark attaches a sentinel to err so callers can match either one.
func Mark(err, sentinel error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sentinel) {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

// LogWithError logs the error with context and returns a wrapped error. Use this for standardized error logging across services.
func LogWithError(ctx context.Context, log *zap.Logger, msg string, err error, fields ...zap.Field) error {
	if log != nil {
		if ctx != nil {
			if reqID := RequestID(ctx); reqID != "" {
				fields = append(fields, zap.String("request_id", reqID))
			}
		}
		log.Error(msg, append(fields, zap.Error(err))...)
	}
	return Wrap(err, msg)
}

type requestIDKey struct{}

// WithRequestID stores a request id on the context for log correlation.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request id stored by WithRequestID, if any.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

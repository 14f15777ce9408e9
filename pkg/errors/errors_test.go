package errors

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestErrorDefinitions(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
	}{
		{name: "ErrInvalidData", err: ErrInvalidData, message: "invalid data"},
		{name: "ErrInvalidArgument", err: ErrInvalidArgument, message: "invalid argument"},
		{name: "ErrReferralExists", err: ErrReferralExists, message: "referral already exists"},
		{name: "ErrStoreUnavailable", err: ErrStoreUnavailable, message: "store unavailable"},
		{name: "ErrCacheUnavailable", err: ErrCacheUnavailable, message: "cache unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.message, tt.err.Error(), "error message should match expected message")
		})
	}
}

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap(nil, "ignored"))

	wrapped := Wrap(ErrStoreUnavailable, "find all referrals")
	assert.Equal(t, "find all referrals: store unavailable", wrapped.Error())
	assert.True(t, Is(wrapped, ErrStoreUnavailable))
}

func TestMark(t *testing.T) {
	cause := stderrors.New("dial tcp: connection refused")

	marked := Mark(cause, ErrCacheUnavailable)
	assert.True(t, Is(marked, ErrCacheUnavailable))
	assert.True(t, Is(marked, cause))

	// Marking twice does not nest the sentinel again.
	assert.Same(t, marked, Mark(marked, ErrCacheUnavailable))
	assert.NoError(t, Mark(nil, ErrCacheUnavailable))
}

func TestLogWithError(t *testing.T) {
	var buf bytes.Buffer
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zapcore.EncoderConfig{MessageKey: "msg", LevelKey: "level", EncodeLevel: zapcore.LowercaseLevelEncoder}),
		zapcore.AddSync(&buf),
		zapcore.DebugLevel,
	)
	log := zap.New(core)

	ctx := WithRequestID(context.Background(), "req-42")
	err := LogWithError(ctx, log, "failed to add referral", ErrStoreUnavailable)

	require.Error(t, err)
	assert.True(t, Is(err, ErrStoreUnavailable))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "failed to add referral", entry["msg"])
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "req-42", entry["request_id"])
	assert.Equal(t, "store unavailable", entry["error"])
}

func TestRequestID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestID(ctx))
	assert.Equal(t, ctx, WithRequestID(ctx, ""))
	assert.Equal(t, "abc", RequestID(WithRequestID(ctx, "abc")))
}

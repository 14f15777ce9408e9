package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nmxmxh/referral-leaderboard/internal/repository/referral"
	"github.com/nmxmxh/referral-leaderboard/internal/server/httputil"
	"github.com/nmxmxh/referral-leaderboard/internal/service/leaderboard"
	apperrors "github.com/nmxmxh/referral-leaderboard/pkg/errors"
	"github.com/nmxmxh/referral-leaderboard/pkg/json"
	"github.com/nmxmxh/referral-leaderboard/pkg/metrics"
)

type fakeReferralService struct {
	addErr    error
	directErr error
	boardErr  error
	gotTopN   int
	added     []referral.Referral
}

func (f *fakeReferralService) AddReferral(_ context.Context, customerID, referrerID string) (referral.Referral, error) {
	if f.addErr != nil {
		return referral.Referral{}, f.addErr
	}
	ref := referral.Referral{CustomerID: customerID, ReferrerID: referrerID}
	f.added = append(f.added, ref)
	return ref, nil
}

func (f *fakeReferralService) GetDirectReferrals(_ context.Context, customerID string) ([]referral.Referral, error) {
	if f.directErr != nil {
		return nil, f.directErr
	}
	return []referral.Referral{{CustomerID: "c1", ReferrerID: customerID}}, nil
}

func (f *fakeReferralService) GetReferralLeaderboard(_ context.Context, topN int) ([]leaderboard.Entry, error) {
	f.gotTopN = topN
	if f.boardErr != nil {
		return nil, f.boardErr
	}
	return []leaderboard.Entry{{CustomerID: "r1", ReferralCount: 2, Rank: 1}}, nil
}

func serve(t *testing.T, h http.Handler, method, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, "/api/referral", strings.NewReader(body)))
	return rec
}

func TestReferralOpsHandler(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		body     string
		svc      *fakeReferralService
		wantCode int
		wantBody string
		wantTopN int
	}{
		{
			name:     "add referral",
			method:   http.MethodPost,
			body:     `{"action":"add_referral","customer_id":"c1","referrer_id":"r1"}`,
			svc:      &fakeReferralService{},
			wantCode: http.StatusCreated,
			wantBody: `{"referral":{"customer_id":"c1","referrer_id":"r1","date_referred":"0001-01-01T00:00:00Z"}}`,
		},
		{
			name:     "add referral with invalid data",
			method:   http.MethodPost,
			body:     `{"action":"add_referral","customer_id":"","referrer_id":"r1"}`,
			svc:      &fakeReferralService{addErr: apperrors.Wrap(apperrors.ErrInvalidData, "customer id is required")},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "duplicate referral",
			method:   http.MethodPost,
			body:     `{"action":"add_referral","customer_id":"c1","referrer_id":"r1"}`,
			svc:      &fakeReferralService{addErr: apperrors.ErrReferralExists},
			wantCode: http.StatusConflict,
		},
		{
			name:     "direct referrals",
			method:   http.MethodPost,
			body:     `{"action":"get_direct_referrals","customer_id":"r1"}`,
			svc:      &fakeReferralService{},
			wantCode: http.StatusOK,
			wantBody: `{"customer_id":"r1","referrals":[{"customer_id":"c1","referrer_id":"r1","date_referred":"0001-01-01T00:00:00Z"}]}`,
		},
		{
			name:     "direct referrals with store down",
			method:   http.MethodPost,
			body:     `{"action":"get_direct_referrals","customer_id":"r1"}`,
			svc:      &fakeReferralService{directErr: apperrors.ErrStoreUnavailable},
			wantCode: http.StatusServiceUnavailable,
		},
		{
			name:     "leaderboard with default size",
			method:   http.MethodPost,
			body:     `{"action":"get_leaderboard"}`,
			svc:      &fakeReferralService{},
			wantCode: http.StatusOK,
			wantBody: `{"top_n":10,"leaderboard":[{"customer_id":"r1","referral_count":2,"rank":1}]}`,
			wantTopN: DefaultTopN,
		},
		{
			name:     "leaderboard with explicit zero",
			method:   http.MethodPost,
			body:     `{"action":"get_leaderboard","top_n":0}`,
			svc:      &fakeReferralService{},
			wantCode: http.StatusOK,
			wantTopN: 0,
		},
		{
			name:     "leaderboard with negative size",
			method:   http.MethodPost,
			body:     `{"action":"get_leaderboard","top_n":-2}`,
			svc:      &fakeReferralService{boardErr: apperrors.ErrInvalidArgument},
			wantCode: http.StatusBadRequest,
			wantTopN: -2,
		},
		{
			name:     "leaderboard at the size limit",
			method:   http.MethodPost,
			body:     `{"action":"get_leaderboard","top_n":1000}`,
			svc:      &fakeReferralService{},
			wantCode: http.StatusOK,
			wantTopN: MaxTopN,
		},
		{
			name:     "leaderboard over the size limit",
			method:   http.MethodPost,
			body:     `{"action":"get_leaderboard","top_n":1001}`,
			svc:      &fakeReferralService{},
			wantCode: http.StatusBadRequest,
			wantTopN: 0,
		},
		{
			name:     "unknown action",
			method:   http.MethodPost,
			body:     `{"action":"delete_everything"}`,
			svc:      &fakeReferralService{},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "missing action",
			method:   http.MethodPost,
			body:     `{}`,
			svc:      &fakeReferralService{},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "malformed JSON",
			method:   http.MethodPost,
			body:     `{"action":`,
			svc:      &fakeReferralService{},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "wrong method",
			method:   http.MethodGet,
			svc:      &fakeReferralService{},
			wantCode: http.StatusMethodNotAllowed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := ReferralOpsHandler(zap.NewNop(), tt.svc, nil)
			rec := serve(t, h, tt.method, tt.body)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			}
			if tt.wantCode >= 400 {
				resp, err := json.Decode[httputil.ErrorResponse](rec.Body.Bytes())
				require.NoError(t, err)
				assert.NotEmpty(t, resp.Error)
			}
			if strings.Contains(tt.body, "get_leaderboard") {
				assert.Equal(t, tt.wantTopN, tt.svc.gotTopN)
			}
		})
	}
}

func TestReferralOpsHandler_RecordsDuration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewHTTP(reg)
	h := ReferralOpsHandler(zap.NewNop(), &fakeReferralService{}, m)

	serve(t, h, http.MethodPost, `{"action":"get_leaderboard","top_n":3}`)
	serve(t, h, http.MethodPost, `{"action":"nope"}`)

	assert.Equal(t, 2, testutil.CollectAndCount(m.RequestDuration))
	count, err := testutil.GatherAndCount(reg, "referral_http_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

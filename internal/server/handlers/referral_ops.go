package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/nmxmxh/referral-leaderboard/internal/repository/referral"
	"github.com/nmxmxh/referral-leaderboard/internal/server/httputil"
	"github.com/nmxmxh/referral-leaderboard/internal/service/leaderboard"
	"github.com/nmxmxh/referral-leaderboard/pkg/json"
	"github.com/nmxmxh/referral-leaderboard/pkg/logger"
	"github.com/nmxmxh/referral-leaderboard/pkg/metrics"
)

// DefaultTopN is the leaderboard size used when a request omits top_n.
const DefaultTopN = 10

// MaxTopN bounds top_n so clients cannot churn the cached variants.
const MaxTopN = 1000

const maxBodyBytes = 64 << 10

// ReferralService is what the referral endpoint calls into.
type ReferralService interface {
	AddReferral(ctx context.Context, customerID, referrerID string) (referral.Referral, error)
	GetDirectReferrals(ctx context.Context, customerID string) ([]referral.Referral, error)
	GetReferralLeaderboard(ctx context.Context, topN int) ([]leaderboard.Entry, error)
}

// ReferralRequest is the body of POST /api/referral. Which fields are
// required depends on Action.
type ReferralRequest struct {
	Action     string `json:"action"`
	CustomerID string `json:"customer_id,omitempty"`
	ReferrerID string `json:"referrer_id,omitempty"`
	TopN       *int   `json:"top_n,omitempty"`
}

// ReferralOpsHandler handles referral actions selected by the "action" field:
//
//	add_referral          {customer_id, referrer_id}
//	get_direct_referrals  {customer_id}
//	get_leaderboard       {top_n} (default 10, at most 1000)
func ReferralOpsHandler(log *zap.Logger, svc ReferralService, m *metrics.HTTP) http.HandlerFunc {
	if m == nil {
		m = metrics.NewHTTP(nil)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		action := "unknown"
		defer func() {
			m.RequestDuration.WithLabelValues(action, strconv.Itoa(rw.status)).Observe(time.Since(start).Seconds())
		}()

		log := logger.FromContext(r.Context(), log)
		if r.Method != http.MethodPost {
			rw.Header().Set("Allow", http.MethodPost)
			httputil.WriteJSONError(rw, r, log, http.StatusMethodNotAllowed, "method not allowed", nil)
			return
		}

		var req ReferralRequest
		if err := json.NewDecoder(http.MaxBytesReader(rw, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			httputil.WriteJSONError(rw, r, log, http.StatusBadRequest, "invalid JSON", err)
			return
		}
		ctx := r.Context()

		switch req.Action {
		case "add_referral":
			action = req.Action
			ref, err := svc.AddReferral(ctx, req.CustomerID, req.ReferrerID)
			if err != nil {
				httputil.WriteJSONError(rw, r, log, httputil.StatusFromError(err), "failed to add referral", err,
					zap.String("customer_id", req.CustomerID), zap.String("referrer_id", req.ReferrerID))
				return
			}
			rw.Header().Set("Content-Type", "application/json")
			rw.WriteHeader(http.StatusCreated)
			httputil.WriteJSONResponse(rw, log, map[string]interface{}{"referral": ref})
		case "get_direct_referrals":
			action = req.Action
			refs, err := svc.GetDirectReferrals(ctx, req.CustomerID)
			if err != nil {
				httputil.WriteJSONError(rw, r, log, httputil.StatusFromError(err), "failed to get direct referrals", err,
					zap.String("customer_id", req.CustomerID))
				return
			}
			httputil.WriteJSONResponse(rw, log, map[string]interface{}{"customer_id": req.CustomerID, "referrals": refs})
		case "get_leaderboard":
			action = req.Action
			topN := DefaultTopN
			if req.TopN != nil {
				topN = *req.TopN
			}
			if topN > MaxTopN {
				httputil.WriteJSONError(rw, r, log, http.StatusBadRequest, "top_n too large", nil,
					zap.Int("top_n", topN), zap.Int("max_top_n", MaxTopN))
				return
			}
			entries, err := svc.GetReferralLeaderboard(ctx, topN)
			if err != nil {
				httputil.WriteJSONError(rw, r, log, httputil.StatusFromError(err), "failed to get leaderboard", err,
					zap.Int("top_n", topN))
				return
			}
			httputil.WriteJSONResponse(rw, log, map[string]interface{}{"top_n": topN, "leaderboard": entries})
		case "":
			httputil.WriteJSONError(rw, r, log, http.StatusBadRequest, "missing action", nil)
		default:
			httputil.WriteJSONError(rw, r, log, http.StatusBadRequest, "unknown action", nil, zap.String("action", req.Action))
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if !s.wroteHeader {
		s.status = code
		s.wroteHeader = true
	}
	s.ResponseWriter.WriteHeader(code)
}

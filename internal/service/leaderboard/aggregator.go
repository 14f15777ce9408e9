// Package leaderboard ranks referrers and serves the ranking through a
// cache-aside coordinator with per-key single-flight recomputation.
package leaderboard

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nmxmxh/referral-leaderboard/internal/repository/referral"
	apperrors "github.com/nmxmxh/referral-leaderboard/pkg/errors"
)

// Entry is one ranked referrer.
type Entry struct {
	CustomerID    string `json:"customer_id"`
	ReferralCount int    `json:"referral_count"`
	Rank          int    `json:"rank"`
}

// RankFunc turns an edge set into the top topN entries.
type RankFunc func(edges []referral.Referral, topN int) ([]Entry, error)

// Rank counts referrals per referrer and returns the topN referrers ordered by
// count descending, then referrer id ascending. Ranks are 1-based positions;
// equal counts do not share a rank. Edges without a referrer are ignored.
func Rank(edges []referral.Referral, topN int) ([]Entry, error) {
	if topN < 0 {
		return nil, fmt.Errorf("rank: topN must not be negative, got %d: %w", topN, apperrors.ErrInvalidArgument)
	}

	counts := make(map[string]int)
	for _, e := range edges {
		if strings.TrimSpace(e.ReferrerID) == "" {
			continue
		}
		counts[e.ReferrerID]++
	}

	entries := make([]Entry, 0, len(counts))
	for id, n := range counts {
		entries = append(entries, Entry{CustomerID: id, ReferralCount: n})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].ReferralCount != entries[j].ReferralCount {
			return entries[i].ReferralCount > entries[j].ReferralCount
		}
		return entries[i].CustomerID < entries[j].CustomerID
	})

	if topN < len(entries) {
		entries = entries[:topN]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

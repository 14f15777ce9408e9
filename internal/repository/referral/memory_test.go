package referral

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEdges() []Referral {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return []Referral{
		{CustomerID: "c1", ReferrerID: "r1", DateReferred: at},
		{CustomerID: "c2", ReferrerID: "r1", DateReferred: at.Add(time.Minute)},
		{CustomerID: "c3", ReferrerID: "r2", DateReferred: at.Add(2 * time.Minute)},
		{CustomerID: "c4", ReferrerID: "r1", DateReferred: at.Add(3 * time.Minute)},
		{CustomerID: "c5", ReferrerID: "", DateReferred: at.Add(4 * time.Minute)},
	}
}

func TestMemoryRepository_FindByReferrerIDIgnoresInsertionOrder(t *testing.T) {
	ctx := context.Background()
	edges := sampleEdges()

	for seed := int64(0); seed < 5; seed++ {
		shuffled := append([]Referral(nil), edges...)
		rand.New(rand.NewSource(seed)).Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		repo := NewMemoryRepository()
		for _, e := range shuffled {
			require.NoError(t, repo.AddReferral(ctx, e))
		}

		r1, err := repo.FindByReferrerID(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, []Referral{edges[0], edges[1], edges[3]}, r1)

		r2, err := repo.FindByReferrerID(ctx, "r2")
		require.NoError(t, err)
		assert.Equal(t, []Referral{edges[2]}, r2)

		none, err := repo.FindByReferrerID(ctx, "nobody")
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	}
}

func TestMemoryRepository_DuplicateCustomer(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	require.NoError(t, repo.AddReferral(ctx, Referral{CustomerID: "c1", ReferrerID: "r1"}))
	err := repo.AddReferral(ctx, Referral{CustomerID: "c1", ReferrerID: "r2"})
	assert.ErrorIs(t, err, ErrReferralExists)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "r1", all[0].ReferrerID)
}

func TestMemoryRepository_FindAllReturnsCopy(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	for _, e := range sampleEdges() {
		require.NoError(t, repo.AddReferral(ctx, e))
	}

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 5)
	all[0].ReferrerID = "mutated"

	again, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "r1", again[0].ReferrerID)
	assert.NoError(t, repo.Check(ctx))
}

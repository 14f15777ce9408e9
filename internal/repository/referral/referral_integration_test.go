//go:build integration

package referral

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

func setupPostgres(ctx context.Context, t *testing.T) *sql.DB {
	t.Helper()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_DB":       "test_db",
				"POSTGRES_USER":     "test_user",
				"POSTGRES_PASSWORD": "test_password",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Failed to terminate Postgres container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	db, err := sql.Open("postgres", fmt.Sprintf(
		"host=%s port=%s user=test_user password=test_password dbname=test_db sslmode=disable",
		host, port.Port()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.Eventually(t, func() bool { return db.PingContext(ctx) == nil }, 10*time.Second, 200*time.Millisecond)
	return db
}

func TestRepository_Postgres(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupPostgres(ctx, t), zap.NewNop())
	require.NoError(t, repo.Migrate(ctx))
	// Migrate is idempotent.
	require.NoError(t, repo.Migrate(ctx))

	for _, e := range sampleEdges() {
		require.NoError(t, repo.AddReferral(ctx, e))
	}

	err := repo.AddReferral(ctx, Referral{CustomerID: "c1", ReferrerID: "r9", DateReferred: time.Now()})
	assert.ErrorIs(t, err, ErrReferralExists)

	err = repo.AddReferral(ctx, Referral{CustomerID: "c9", ReferrerID: "c9", DateReferred: time.Now()})
	assert.Error(t, err, "self referral violates the check constraint")

	r1, err := repo.FindByReferrerID(ctx, "r1")
	require.NoError(t, err)
	edges := sampleEdges()
	require.Len(t, r1, 3)
	for i, want := range []Referral{edges[0], edges[1], edges[3]} {
		assert.Equal(t, want.CustomerID, r1[i].CustomerID)
		assert.Equal(t, want.ReferrerID, r1[i].ReferrerID)
		assert.True(t, want.DateReferred.Equal(r1[i].DateReferred))
	}

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 5)
	assert.NoError(t, repo.Check(ctx))
}

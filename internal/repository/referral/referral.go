package referral

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	repository "github.com/nmxmxh/referral-leaderboard/internal/repository"
	apperrors "github.com/nmxmxh/referral-leaderboard/pkg/errors"
)

// ErrReferralExists is returned when the customer already has a referrer.
var ErrReferralExists = apperrors.ErrReferralExists

// Referral is one edge of the referral graph: CustomerID was referred by ReferrerID.
type Referral struct {
	CustomerID   string    `json:"customer_id"`
	ReferrerID   string    `json:"referrer_id"`
	DateReferred time.Time `json:"date_referred"`
}

const schema = `
CREATE TABLE IF NOT EXISTS referral_edge (
	customer_id   TEXT PRIMARY KEY,
	referrer_id   TEXT NOT NULL DEFAULT '',
	date_referred TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT referral_edge_not_self CHECK (customer_id <> referrer_id)
)`

const referrerIndex = `CREATE INDEX IF NOT EXISTS idx_referral_edge_referrer_id ON referral_edge (referrer_id)`

// Repository handles database operations for referral edges.
type Repository struct {
	*repository.BaseRepository
}

// NewRepository creates a new referral repository instance.
func NewRepository(db *sql.DB, log *zap.Logger) *Repository {
	return &Repository{
		BaseRepository: repository.NewBaseRepository(db, log),
	}
}

// Migrate creates the referral_edge table and its referrer index.
func (r *Repository) Migrate(ctx context.Context) error {
	return r.WithTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range []string{schema, referrerIndex} {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return repository.StoreError("migrate referral_edge", err)
			}
		}
		return nil
	})
}

// AddReferral inserts a new edge. A second edge for the same customer fails with ErrReferralExists.
func (r *Repository) AddReferral(ctx context.Context, ref Referral) error {
	_, err := r.GetDB().ExecContext(ctx,
		`INSERT INTO referral_edge (customer_id, referrer_id, date_referred) VALUES ($1, $2, $3)`,
		ref.CustomerID, ref.ReferrerID, ref.DateReferred.UTC())
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return fmt.Errorf("customer %q: %w", ref.CustomerID, ErrReferralExists)
	}
	return repository.StoreError("insert referral", err)
}

// FindByReferrerID returns the edges whose referrer is referrerID, ordered by customer.
func (r *Repository) FindByReferrerID(ctx context.Context, referrerID string) ([]Referral, error) {
	rows, err := r.GetDB().QueryContext(ctx, `
		SELECT customer_id, referrer_id, date_referred
		FROM referral_edge
		WHERE referrer_id = $1
		ORDER BY customer_id`, referrerID)
	if err != nil {
		return nil, repository.StoreError("find referrals by referrer", err)
	}
	return scanReferrals(rows)
}

// FindAll returns every edge, ordered by customer. The whole table is loaded.
func (r *Repository) FindAll(ctx context.Context) ([]Referral, error) {
	rows, err := r.GetDB().QueryContext(ctx, `
		SELECT customer_id, referrer_id, date_referred
		FROM referral_edge
		ORDER BY customer_id`)
	if err != nil {
		return nil, repository.StoreError("find all referrals", err)
	}
	return scanReferrals(rows)
}

func scanReferrals(rows *sql.Rows) ([]Referral, error) {
	defer rows.Close()
	refs := make([]Referral, 0)
	for rows.Next() {
		var ref Referral
		if err := rows.Scan(&ref.CustomerID, &ref.ReferrerID, &ref.DateReferred); err != nil {
			return nil, repository.StoreError("scan referral", err)
		}
		ref.DateReferred = ref.DateReferred.UTC()
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, repository.StoreError("iterate referrals", err)
	}
	return refs, nil
}

// Package referral is the entry point for recording referrals and reading
// the referral graph and leaderboard.
package referral

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	repo "github.com/nmxmxh/referral-leaderboard/internal/repository/referral"
	"github.com/nmxmxh/referral-leaderboard/internal/service/leaderboard"
	apperrors "github.com/nmxmxh/referral-leaderboard/pkg/errors"
	"github.com/nmxmxh/referral-leaderboard/pkg/events"
)

//go:generate mockgen -source=referral.go -destination=mocks/mock_referral.go -package=mocks

// Store persists referral edges.
type Store interface {
	AddReferral(ctx context.Context, ref repo.Referral) error
	FindByReferrerID(ctx context.Context, referrerID string) ([]repo.Referral, error)
}

// Leaderboard serves and invalidates cached leaderboards.
type Leaderboard interface {
	GetLeaderboard(ctx context.Context, topN int) ([]leaderboard.Entry, error)
	InvalidateLeaderboard(ctx context.Context) error
}

// Service records referrals and answers graph and leaderboard queries.
type Service struct {
	log         *zap.Logger
	store       Store
	leaderboard Leaderboard
	events      events.EventEmitter
	tracer      trace.Tracer
	now         func() time.Time
}

// NewService wires the service. A nil emitter disables events.
func NewService(log *zap.Logger, store Store, board Leaderboard, emitter events.EventEmitter) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if emitter == nil {
		emitter = events.NopEmitter{}
	}
	return &Service{
		log:         log.With(zap.String("service", "referral")),
		store:       store,
		leaderboard: board,
		events:      emitter,
		tracer:      otel.Tracer("github.com/nmxmxh/referral-leaderboard/internal/service/referral"),
		now:         time.Now,
	}
}

// AddReferral records that referrerID referred customerID. The write is the
// source of truth: once it succeeds, cache invalidation and the event are
// best effort and their failures are only logged.
func (s *Service) AddReferral(ctx context.Context, customerID, referrerID string) (repo.Referral, error) {
	ctx, span := s.tracer.Start(ctx, "referral.AddReferral", trace.WithAttributes(
		attribute.String("referral.customer_id", customerID),
		attribute.String("referral.referrer_id", referrerID),
	))
	defer span.End()

	if err := validateIDs(customerID, referrerID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return repo.Referral{}, err
	}

	ref := repo.Referral{
		CustomerID:   customerID,
		ReferrerID:   referrerID,
		DateReferred: s.now().UTC(),
	}
	if err := s.store.AddReferral(ctx, ref); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return repo.Referral{}, apperrors.LogWithError(ctx, s.log, "failed to add referral", err,
			zap.String("customer_id", customerID), zap.String("referrer_id", referrerID))
	}

	if err := s.leaderboard.InvalidateLeaderboard(ctx); err != nil {
		s.log.Warn("Leaderboard invalidation failed, cached boards expire by TTL",
			zap.String("customer_id", customerID), zap.Error(err))
	}
	s.emitCreated(ctx, ref)

	s.log.Info("Referral added", zap.String("customer_id", customerID), zap.String("referrer_id", referrerID))
	return ref, nil
}

// GetDirectReferrals returns the customers referred by customerID, read
// straight from the store.
func (s *Service) GetDirectReferrals(ctx context.Context, customerID string) ([]repo.Referral, error) {
	ctx, span := s.tracer.Start(ctx, "referral.GetDirectReferrals", trace.WithAttributes(
		attribute.String("referral.customer_id", customerID),
	))
	defer span.End()

	if isBlank(customerID) {
		err := fmt.Errorf("customer id is required: %w", apperrors.ErrInvalidData)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	refs, err := s.store.FindByReferrerID(ctx, customerID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, apperrors.LogWithError(ctx, s.log, "failed to get direct referrals", err, zap.String("customer_id", customerID))
	}
	span.SetAttributes(attribute.Int("referral.count", len(refs)))
	return refs, nil
}

// GetReferralLeaderboard returns the topN referrers by direct referral count.
func (s *Service) GetReferralLeaderboard(ctx context.Context, topN int) ([]leaderboard.Entry, error) {
	entries, err := s.leaderboard.GetLeaderboard(ctx, topN)
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrInvalidArgument) {
			s.log.Error("Failed to get referral leaderboard", zap.Int("top_n", topN), zap.Error(err))
		}
		return nil, err
	}
	return entries, nil
}

func (s *Service) emitCreated(ctx context.Context, ref repo.Referral) {
	env, err := events.NewEnvelope(events.TypeReferralCreated, ref.CustomerID, ref)
	if err == nil {
		_, err = s.events.EmitEventEnvelope(ctx, env)
	}
	if err != nil {
		s.log.Warn("Failed to emit referral event", zap.String("customer_id", ref.CustomerID), zap.Error(err))
	}
}

func validateIDs(customerID, referrerID string) error {
	switch {
	case isBlank(customerID):
		return fmt.Errorf("customer id is required: %w", apperrors.ErrInvalidData)
	case isBlank(referrerID):
		return fmt.Errorf("referrer id is required: %w", apperrors.ErrInvalidData)
	case customerID == referrerID:
		return fmt.Errorf("customer %q cannot refer themselves: %w", customerID, apperrors.ErrInvalidData)
	}
	return nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

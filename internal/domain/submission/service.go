package submission

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	apperrors "github.com/yanqian/disha/pkg/errors"
	"github.com/yanqian/disha/pkg/metrics"
)

const listLimit = 50

// Service records optimistic submissions around backend calls.
type Service interface {
	// Track records a pending submission, runs send, and settles the record
	// as confirmed or reverted. The error of send is returned unchanged.
	Track(ctx context.Context, sessionID string, kind Kind, send func(ctx context.Context) error) (Record, error)
	List(ctx context.Context, sessionID string) (ListResponse, error)
}

type service struct {
	repo    Repository
	clock   clockwork.Clock
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewService wires up the submission ledger.
func NewService(repo Repository, clock clockwork.Clock, m *metrics.Metrics, logger *slog.Logger) Service {
	return &service{
		repo:    repo,
		clock:   clock,
		metrics: m,
		logger:  logger.With("component", "submission.service"),
	}
}

func (s *service) Track(ctx context.Context, sessionID string, kind Kind, send func(ctx context.Context) error) (Record, error) {
	now := s.clock.Now().UTC()
	rec := Record{
		ID:        uuid.New(),
		SessionID: sessionID,
		Kind:      kind,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	recorded := true
	if err := s.repo.Create(ctx, rec); err != nil {
		recorded = false
		s.logger.Warn("record pending submission failed", "kind", kind, "error", err)
	}

	sendErr := send(ctx)

	rec.Status = StatusConfirmed
	if sendErr != nil {
		rec.Status = StatusReverted
		rec.Error = apperrors.MessageOf(sendErr)
	}
	rec.UpdatedAt = s.clock.Now().UTC()
	if recorded {
		if err := s.repo.UpdateStatus(ctx, rec.ID, rec.Status, rec.Error, rec.UpdatedAt); err != nil {
			s.logger.Warn("settle submission failed", "id", rec.ID, "status", rec.Status, "error", err)
		}
	}
	if s.metrics != nil {
		s.metrics.Submissions.WithLabelValues(string(kind), string(rec.Status)).Inc()
	}
	s.logger.Info("submission settled", "id", rec.ID, "kind", kind, "status", rec.Status)
	return rec, sendErr
}

func (s *service) List(ctx context.Context, sessionID string) (ListResponse, error) {
	if sessionID == "" {
		return ListResponse{}, apperrors.Wrap(apperrors.CodeNotAuthenticated, "You need to be logged in", nil)
	}
	records, err := s.repo.ListBySession(ctx, sessionID, listLimit)
	if err != nil {
		return ListResponse{}, apperrors.Wrap(apperrors.CodeStorage, "failed to load submissions", err)
	}
	if records == nil {
		records = []Record{}
	}
	return ListResponse{Submissions: records}, nil
}

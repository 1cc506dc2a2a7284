package submission

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Kind names a tracked flow.
type Kind string

const (
	KindMoneyDonation Kind = "money_donation"
	KindBloodDonation Kind = "blood_donation"
	KindImageReport   Kind = "image_report"
	KindVideoReport   Kind = "video_report"
)

// Status is the lifecycle of an optimistic submission.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusReverted  Status = "reverted"
)

// Record is one submission as seen by its author.
type Record struct {
	ID        uuid.UUID `json:"id"`
	SessionID string    `json:"-"`
	Kind      Kind      `json:"kind"`
	Status    Status    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Repository persists submission records.
type Repository interface {
	Create(ctx context.Context, rec Record) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, errMsg string, at time.Time) error
	ListBySession(ctx context.Context, sessionID string, limit int) ([]Record, error)
}

// ListResponse is returned by the submissions endpoint.
type ListResponse struct {
	Submissions []Record `json:"submissions"`
}

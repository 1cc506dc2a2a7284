package aid

import (
	"github.com/yanqian/disha/internal/domain/submission"
	"github.com/yanqian/disha/internal/infra/backend"
)

// MoneyDonationRequest is the money donation form.
type MoneyDonationRequest struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
}

// BloodDonationRequest is the blood donation form.
type BloodDonationRequest struct {
	Name       string `json:"name"`
	Age        string `json:"age"`
	BloodGroup string `json:"bloodGroup"`
	Address    string `json:"address"`
}

// VolunteerRequest is the volunteer registration form. Avatar is optional.
type VolunteerRequest struct {
	FullName       string
	ContactDetails string
	Address        string
	City           string
	State          string
	Avatar         *backend.FilePart
}

// SubmissionResponse reports how a tracked submission settled.
type SubmissionResponse struct {
	Submission submission.Record `json:"submission"`
	Message    string            `json:"message"`
}

// VolunteerResponse acknowledges a volunteer registration.
type VolunteerResponse struct {
	Message string `json:"message"`
}

// Config holds the aid limits.
type Config struct {
	MaxAvatarBytes int64
}

package aid

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/yanqian/disha/internal/domain/submission"
	"github.com/yanqian/disha/internal/infra/backend"
	apperrors "github.com/yanqian/disha/pkg/errors"
)

const (
	moneyDonationPath = "/api/v1/money/make-moneyDonation"
	bloodDonationPath = "/api/v1/blood/make-bloodDonation"
	volunteerPath     = "/api/v1/volunteer"

	donationLoginMessage = "You need to be logged in to make a donation"
)

// Service exposes donation and volunteering flows.
type Service interface {
	MoneyDonation(ctx context.Context, sessionID string, req MoneyDonationRequest) (SubmissionResponse, error)
	BloodDonation(ctx context.Context, sessionID string, req BloodDonationRequest) (SubmissionResponse, error)
	Volunteer(ctx context.Context, req VolunteerRequest) (VolunteerResponse, error)
}

// Backend sends requests to the DISHA backend.
type Backend interface {
	Public(ctx context.Context, method, path string, payload *backend.Payload) (backend.Response, error)
	Authorized(ctx context.Context, tokens backend.TokenStore, method, path string, payload *backend.Payload) (backend.Response, error)
}

// Credentials resolves the backend credentials of a session.
type Credentials interface {
	Tokens(sessionID string) backend.TokenStore
}

type service struct {
	cfg         Config
	backend     Backend
	credentials Credentials
	tracker     submission.Service
	logger      *slog.Logger
}

// NewService wires up the aid domain.
func NewService(cfg Config, b Backend, credentials Credentials, tracker submission.Service, logger *slog.Logger) Service {
	if cfg.MaxAvatarBytes <= 0 {
		cfg.MaxAvatarBytes = 5 << 20
	}
	return &service{
		cfg:         cfg,
		backend:     b,
		credentials: credentials,
		tracker:     tracker,
		logger:      logger.With("component", "aid.service"),
	}
}

func (s *service) MoneyDonation(ctx context.Context, sessionID string, req MoneyDonationRequest) (SubmissionResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Contact = strings.TrimSpace(req.Contact)
	if missing := missing(map[string]string{"name": req.Name, "contact": req.Contact}, "name", "contact"); missing != "" {
		return SubmissionResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, missing, nil)
	}
	return s.donate(ctx, sessionID, submission.KindMoneyDonation, moneyDonationPath, req,
		"Your money donation has been processed successfully.")
}

func (s *service) BloodDonation(ctx context.Context, sessionID string, req BloodDonationRequest) (SubmissionResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Age = strings.TrimSpace(req.Age)
	req.BloodGroup = strings.TrimSpace(req.BloodGroup)
	req.Address = strings.TrimSpace(req.Address)
	fields := map[string]string{"name": req.Name, "age": req.Age, "bloodGroup": req.BloodGroup, "address": req.Address}
	if missing := missing(fields, "name", "age", "bloodGroup", "address"); missing != "" {
		return SubmissionResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, missing, nil)
	}
	return s.donate(ctx, sessionID, submission.KindBloodDonation, bloodDonationPath, req,
		"Your blood donation request has been recorded.")
}

func (s *service) donate(ctx context.Context, sessionID string, kind submission.Kind, path string, body any, thanks string) (SubmissionResponse, error) {
	if sessionID == "" {
		return SubmissionResponse{}, apperrors.Wrap(apperrors.CodeNotAuthenticated, donationLoginMessage, nil)
	}
	payload, err := backend.JSONPayload(body)
	if err != nil {
		return SubmissionResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, "invalid donation payload", err)
	}

	tokens := s.credentials.Tokens(sessionID)
	rec, err := s.tracker.Track(ctx, sessionID, kind, func(ctx context.Context) error {
		_, err := s.backend.Authorized(ctx, tokens, http.MethodPost, path, &payload)
		return err
	})
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeNotAuthenticated) {
			return SubmissionResponse{}, apperrors.Wrap(apperrors.CodeNotAuthenticated, donationLoginMessage, err)
		}
		s.logger.Warn("donation failed", "kind", kind, "error", err)
		return SubmissionResponse{}, err
	}
	return SubmissionResponse{Submission: rec, Message: thanks}, nil
}

func (s *service) Volunteer(ctx context.Context, req VolunteerRequest) (VolunteerResponse, error) {
	fields := []backend.Field{
		{Name: "fullName", Value: strings.TrimSpace(req.FullName)},
		{Name: "contactDetails", Value: strings.TrimSpace(req.ContactDetails)},
		{Name: "address", Value: strings.TrimSpace(req.Address)},
		{Name: "city", Value: strings.TrimSpace(req.City)},
		{Name: "state", Value: strings.TrimSpace(req.State)},
	}
	var empty []string
	for _, f := range fields {
		if f.Value == "" {
			empty = append(empty, f.Name)
		}
	}
	if len(empty) > 0 {
		return VolunteerResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, "Please fill all required fields: "+strings.Join(empty, ", "), nil)
	}

	var files []backend.FilePart
	if req.Avatar != nil {
		if !strings.HasPrefix(req.Avatar.ContentType, "image/") {
			return VolunteerResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, "Avatar must be an image", nil)
		}
		if int64(len(req.Avatar.Data)) > s.cfg.MaxAvatarBytes {
			return VolunteerResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf("Avatar must be smaller than %dMB", s.cfg.MaxAvatarBytes>>20), nil)
		}
		avatar := *req.Avatar
		avatar.FieldName = "avatar"
		files = append(files, avatar)
	}

	payload, err := backend.MultipartPayload(fields, files...)
	if err != nil {
		return VolunteerResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, "invalid volunteer form", err)
	}
	if _, err := s.backend.Public(ctx, http.MethodPost, volunteerPath, &payload); err != nil {
		s.logger.Warn("volunteer registration failed", "error", err)
		return VolunteerResponse{}, apperrors.Wrap(apperrors.CodeBackend, "There was a problem submitting your registration.", err)
	}
	return VolunteerResponse{Message: "Thank you for volunteering! Your details have been recorded."}, nil
}

func missing(values map[string]string, order ...string) string {
	var empty []string
	for _, name := range order {
		if values[name] == "" {
			empty = append(empty, name)
		}
	}
	if len(empty) == 0 {
		return ""
	}
	return "Please fill all required fields: " + strings.Join(empty, ", ")
}

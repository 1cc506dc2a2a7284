package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/yanqian/disha/internal/domain/geo"
	"github.com/yanqian/disha/internal/domain/submission"
	"github.com/yanqian/disha/internal/infra/backend"
	apperrors "github.com/yanqian/disha/pkg/errors"
)

const (
	imageReportPath = "/api/v1/images/image-report"
	videoReportPath = "/api/v1/videos/video-report"
)

// Service uploads incident reports to the backend.
type Service interface {
	Submit(ctx context.Context, sessionID string, req Request) (Response, error)
}

// Backend sends authenticated requests to the DISHA backend.
type Backend interface {
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

// NewService wires up incident reporting.
func NewService(cfg Config, b Backend, credentials Credentials, tracker submission.Service, logger *slog.Logger) Service {
	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = 5 << 20
	}
	if cfg.MaxVideoBytes <= 0 {
		cfg.MaxVideoBytes = 20 << 20
	}
	return &service{
		cfg:         cfg,
		backend:     b,
		credentials: credentials,
		tracker:     tracker,
		logger:      logger.With("component", "report.service"),
	}
}

func (s *service) Submit(ctx context.Context, sessionID string, req Request) (Response, error) {
	if sessionID == "" {
		return Response{}, apperrors.Wrap(apperrors.CodeNotAuthenticated, backend.MessageNotAuthenticated, nil)
	}
	if req.File == nil || len(req.File.Data) == 0 {
		return Response{}, apperrors.Wrap(apperrors.CodeInvalidInput, "Please attach an image or video", nil)
	}
	kind, path, err := s.route(*req.File)
	if err != nil {
		return Response{}, err
	}
	loc, err := parseLocation(req.Location)
	if err != nil {
		return Response{}, err
	}
	locJSON, err := json.Marshal(loc)
	if err != nil {
		return Response{}, apperrors.Wrap(apperrors.CodeInvalidInput, "invalid location", err)
	}

	file := *req.File
	if kind == submission.KindImageReport {
		file.FieldName = "imageFile"
	} else {
		file.FieldName = "videoFile"
	}
	payload, err := backend.MultipartPayload([]backend.Field{
		{Name: "title", Value: strings.TrimSpace(req.Title)},
		{Name: "description", Value: strings.TrimSpace(req.Description)},
		{Name: "location", Value: string(locJSON)},
	}, file)
	if err != nil {
		return Response{}, apperrors.Wrap(apperrors.CodeInvalidInput, "invalid report", err)
	}

	tokens := s.credentials.Tokens(sessionID)
	rec, err := s.tracker.Track(ctx, sessionID, kind, func(ctx context.Context) error {
		_, err := s.backend.Authorized(ctx, tokens, http.MethodPost, path, &payload)
		return err
	})
	if err != nil {
		s.logger.Warn("report upload failed", "kind", kind, "bytes", len(file.Data), "error", err)
		if apperrors.IsCode(err, apperrors.CodeBackend) {
			return Response{}, apperrors.Wrap(apperrors.CodeBackend, "Failed to upload report", err)
		}
		return Response{}, err
	}
	return Response{Submission: rec, Message: "Report submitted successfully"}, nil
}

func (s *service) route(file backend.FilePart) (submission.Kind, string, error) {
	size := int64(len(file.Data))
	switch {
	case strings.HasPrefix(file.ContentType, "image/"):
		if size > s.cfg.MaxImageBytes {
			return "", "", apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf("Image size should be less than %dMB", s.cfg.MaxImageBytes>>20), nil)
		}
		return submission.KindImageReport, imageReportPath, nil
	case strings.HasPrefix(file.ContentType, "video/"):
		if size > s.cfg.MaxVideoBytes {
			return "", "", apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf("Video size should be less than %dMB", s.cfg.MaxVideoBytes>>20), nil)
		}
		return submission.KindVideoReport, videoReportPath, nil
	default:
		return "", "", apperrors.Wrap(apperrors.CodeInvalidInput, "Only image and video files are allowed", nil)
	}
}

// parseLocation parses "lat, lon" into coordinates.
func parseLocation(raw string) (location, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return location{}, apperrors.Wrap(apperrors.CodeInvalidInput, "Location is required", nil)
	}
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return location{}, apperrors.Wrap(apperrors.CodeInvalidInput, "Location must be \"lat, lon\"", nil)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return location{}, apperrors.Wrap(apperrors.CodeInvalidInput, "Location must be \"lat, lon\"", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return location{}, apperrors.Wrap(apperrors.CodeInvalidInput, "Location must be \"lat, lon\"", err)
	}
	if err := geo.ValidateCoordinates(lat, lon); err != nil {
		return location{}, apperrors.Wrap(apperrors.CodeInvalidInput, err.Error(), err)
	}
	return location{Lat: lat, Lon: lon}, nil
}

package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/yanqian/disha/internal/infra/backend"
	apperrors "github.com/yanqian/disha/pkg/errors"
	"github.com/yanqian/disha/pkg/kv"
)

const notProvided = "Not provided"

// Service exposes gateway session workflows.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (Profile, error)
	Login(ctx context.Context, req LoginRequest) (LoginResponse, error)
	ValidateToken(ctx context.Context, token string) (Claims, error)
	Profile(ctx context.Context, sessionID string) (Profile, error)
	Logout(ctx context.Context, sessionID string) error
	// Tokens exposes the backend credentials of a session.
	Tokens(sessionID string) backend.TokenStore
}

// Backend is the subset of the DISHA backend used for accounts.
type Backend interface {
	Login(ctx context.Context, creds backend.Credentials) (backend.LoginResult, error)
	Register(ctx context.Context, reg backend.Registration) (json.RawMessage, error)
	CurrentUser(ctx context.Context, tokens backend.TokenStore) (json.RawMessage, error)
}

type service struct {
	cfg     Config
	backend Backend
	store   kv.Store
	clock   clockwork.Clock
	logger  *slog.Logger
}

// NewService constructs a Service instance.
func NewService(cfg Config, b Backend, store kv.Store, clock clockwork.Clock, logger *slog.Logger) Service {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.StoreTTL <= 0 {
		cfg.StoreTTL = 7 * 24 * time.Hour
	}
	return &service{
		cfg:     cfg,
		backend: b,
		store:   store,
		clock:   clock,
		logger:  logger.With("component", "session.service"),
	}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (Profile, error) {
	if missing := missingFields(req); len(missing) > 0 {
		return Profile{}, apperrors.Wrap(apperrors.CodeInvalidInput, "Please fill all required fields: "+strings.Join(missing, ", "), nil)
	}
	if !req.TermsAccepted {
		return Profile{}, apperrors.Wrap(apperrors.CodeInvalidInput, "Please accept the terms to continue", nil)
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return Profile{}, apperrors.Wrap(apperrors.CodeInvalidInput, "invalid email address", err)
	}
	if err := validatePassword(req.Password); err != nil {
		return Profile{}, apperrors.Wrap(apperrors.CodeInvalidInput, err.Error(), nil)
	}

	user, err := s.backend.Register(ctx, backend.Registration{
		FullName:   strings.TrimSpace(req.FullName),
		Email:      email,
		Contact:    strings.TrimSpace(req.Contact),
		Password:   req.Password,
		Username:   strings.TrimSpace(req.Username),
		Address:    strings.TrimSpace(req.Address),
		Pincode:    strings.TrimSpace(req.Pincode),
		State:      strings.TrimSpace(req.State),
		City:       strings.TrimSpace(req.City),
		BloodGroup: strings.TrimSpace(req.BloodGroup),
		Age:        strings.TrimSpace(req.Age),
		Gender:     strings.TrimSpace(req.Gender),
	})
	if err != nil {
		return Profile{}, err
	}
	profile := profileFrom(user)
	if profile.Email == notProvided {
		profile.Email = email
	}
	s.logger.Info("account registered", "email", email)
	return profile, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return LoginResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, "invalid email address", err)
	}
	if strings.TrimSpace(req.Password) == "" {
		return LoginResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, "password cannot be empty", nil)
	}

	result, err := s.backend.Login(ctx, backend.Credentials{Email: email, Password: req.Password})
	if err != nil {
		switch backend.StatusOf(err) {
		case http.StatusUnauthorized, http.StatusNotFound, http.StatusBadRequest:
			return LoginResponse{}, apperrors.Wrap(apperrors.CodeInvalidCredentials, "invalid email or password", err)
		}
		return LoginResponse{}, err
	}

	sessionID := uuid.NewString()
	now := s.clock.Now()
	if err := s.saveCredentials(ctx, sessionID, storedCredentials{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		IssuedAt:     now.UTC(),
	}); err != nil {
		return LoginResponse{}, apperrors.Wrap(apperrors.CodeStorage, "failed to store session", err)
	}

	profile := profileFrom(result.User)
	if profile.Email == notProvided {
		profile.Email = email
	}
	s.cacheProfile(ctx, sessionID, profile)

	token, expiresAt, err := s.generateToken(sessionID, now)
	if err != nil {
		return LoginResponse{}, err
	}
	s.logger.Info("session opened", "session_id", sessionID)
	return LoginResponse{Token: token, ExpiresAt: expiresAt, User: profile}, nil
}

func (s *service) ValidateToken(_ context.Context, token string) (Claims, error) {
	if strings.TrimSpace(token) == "" {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token missing", nil)
	}
	return s.parseToken(token)
}

func (s *service) Profile(ctx context.Context, sessionID string) (Profile, error) {
	if raw, ok, err := s.store.Get(ctx, profileKey(sessionID)); err == nil && ok {
		var cached Profile
		if json.Unmarshal(raw, &cached) == nil {
			return cached, nil
		}
	} else if err != nil {
		s.logger.Warn("profile cache read failed", "error", err)
	}

	user, err := s.backend.CurrentUser(ctx, s.Tokens(sessionID))
	if err != nil {
		return Profile{}, err
	}
	profile := profileFrom(user)
	s.cacheProfile(ctx, sessionID, profile)
	return profile, nil
}

func (s *service) Logout(ctx context.Context, sessionID string) error {
	if err := s.store.Remove(ctx, credentialsKey(sessionID)); err != nil {
		return apperrors.Wrap(apperrors.CodeStorage, "failed to drop session", err)
	}
	if err := s.store.Remove(ctx, profileKey(sessionID)); err != nil {
		s.logger.Warn("drop profile cache failed", "error", err)
	}
	s.logger.Info("session closed", "session_id", sessionID)
	return nil
}

func (s *service) Tokens(sessionID string) backend.TokenStore {
	return &sessionTokens{svc: s, sessionID: sessionID}
}

func (s *service) loadCredentials(ctx context.Context, sessionID string) (storedCredentials, bool, error) {
	raw, ok, err := s.store.Get(ctx, credentialsKey(sessionID))
	if err != nil || !ok {
		return storedCredentials{}, false, err
	}
	var creds storedCredentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		s.logger.Warn("discarding malformed session credentials", "session_id", sessionID, "error", err)
		return storedCredentials{}, false, nil
	}
	return creds, true, nil
}

func (s *service) saveCredentials(ctx context.Context, sessionID string, creds storedCredentials) error {
	payload, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, credentialsKey(sessionID), payload, s.cfg.StoreTTL)
}

func (s *service) cacheProfile(ctx context.Context, sessionID string, profile Profile) {
	payload, err := json.Marshal(profile)
	if err != nil {
		return
	}
	if err := s.store.Set(ctx, profileKey(sessionID), payload, s.cfg.StoreTTL); err != nil {
		s.logger.Warn("profile cache write failed", "error", err)
	}
}

func (s *service) generateToken(sessionID string, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(s.cfg.TokenTTL)
	claims := jwt.RegisteredClaims{
		Subject:   sessionID,
		ID:        newTokenID(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", time.Time{}, apperrors.Wrap(apperrors.CodeInvalidToken, "failed to sign token", err)
	}
	return signed, expiresAt, nil
}

func (s *service) parseToken(token string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return []byte(s.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.clock.Now), jwt.WithExpirationRequired())
	if err != nil {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token validation failed", err)
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token invalid", nil)
	}
	return Claims{SessionID: claims.Subject, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// sessionTokens adapts the stored credentials of one session to the
// backend helper.
type sessionTokens struct {
	svc       *service
	sessionID string
}

func (t *sessionTokens) Tokens(ctx context.Context) (string, string, error) {
	creds, ok, err := t.svc.loadCredentials(ctx, t.sessionID)
	if err != nil || !ok {
		return "", "", err
	}
	return creds.AccessToken, creds.RefreshToken, nil
}

func (t *sessionTokens) SetAccessToken(ctx context.Context, access string) error {
	creds, ok, err := t.svc.loadCredentials(ctx, t.sessionID)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("session no longer exists")
	}
	creds.AccessToken = access
	return t.svc.saveCredentials(ctx, t.sessionID, creds)
}

func profileFrom(raw json.RawMessage) Profile {
	var fields map[string]any
	_ = json.Unmarshal(raw, &fields)
	name := field(fields, "name")
	if name == "" {
		name = field(fields, "fullName")
	}
	return Profile{
		Name:       orNotProvided(name),
		Age:        orNotProvided(field(fields, "age")),
		Contact:    orNotProvided(field(fields, "contact")),
		Email:      orNotProvided(field(fields, "email")),
		BloodGroup: orNotProvided(field(fields, "bloodGroup")),
	}
}

func field(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func orNotProvided(v string) string {
	if v == "" {
		return notProvided
	}
	return v
}

func missingFields(req RegisterRequest) []string {
	fields := []struct {
		name  string
		value string
	}{
		{"fullName", req.FullName},
		{"email", req.Email},
		{"contact", req.Contact},
		{"password", req.Password},
		{"username", req.Username},
		{"address", req.Address},
		{"pincode", req.Pincode},
		{"state", req.State},
		{"city", req.City},
		{"bloodGroup", req.BloodGroup},
		{"age", req.Age},
		{"gender", req.Gender},
	}
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

func normalizeEmail(raw string) (string, error) {
	email := strings.TrimSpace(strings.ToLower(raw))
	if email == "" {
		return "", errors.New("email cannot be empty")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", err
	}
	return email, nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	return nil
}

func credentialsKey(sessionID string) string {
	return "session:" + sessionID
}

func profileKey(sessionID string) string {
	return "profile:" + sessionID
}

func newTokenID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	return hex.EncodeToString(buf)
}

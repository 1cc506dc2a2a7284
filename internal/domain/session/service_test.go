package session

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/disha/internal/infra/backend"
	"github.com/yanqian/disha/internal/infra/kvstore"
	apperrors "github.com/yanqian/disha/pkg/errors"
)

func TestService_LoginValidateAndProfile(t *testing.T) {
	stub := &stubBackend{
		login: backend.LoginResult{AccessToken: "a1", RefreshToken: "r1", User: json.RawMessage(`{"fullName":"Asha Rao","age":29,"contact":"9876543210","bloodGroup":"O+"}`)},
	}
	clock := clockwork.NewFakeClockAt(time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC))
	svc := newTestService(stub, clock)
	ctx := context.Background()

	resp, err := svc.Login(ctx, LoginRequest{Email: " Asha@Example.com ", Password: "secret123"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	require.Equal(t, "asha@example.com", stub.lastCreds.Email)
	require.Equal(t, Profile{Name: "Asha Rao", Age: "29", Contact: "9876543210", Email: "asha@example.com", BloodGroup: "O+"}, resp.User)
	require.Equal(t, clock.Now().Add(time.Hour), resp.ExpiresAt)

	claims, err := svc.ValidateToken(ctx, resp.Token)
	require.NoError(t, err)
	require.NotEmpty(t, claims.SessionID)

	access, refresh, err := svc.Tokens(claims.SessionID).Tokens(ctx)
	require.NoError(t, err)
	require.Equal(t, "a1", access)
	require.Equal(t, "r1", refresh)

	profile, err := svc.Profile(ctx, claims.SessionID)
	require.NoError(t, err)
	require.Equal(t, "Asha Rao", profile.Name)
	require.Zero(t, stub.currentCalls)
}

func TestService_TokenExpires(t *testing.T) {
	stub := &stubBackend{login: backend.LoginResult{AccessToken: "a1", RefreshToken: "r1"}}
	clock := clockwork.NewFakeClockAt(time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC))
	svc := newTestService(stub, clock)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "a@example.com", Password: "secret123"})
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)
	_, err = svc.ValidateToken(context.Background(), resp.Token)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidToken))

	_, err = svc.ValidateToken(context.Background(), "")
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidToken))
}

func TestService_LoginRejectedByBackend(t *testing.T) {
	stub := &stubBackend{loginErr: apperrors.Wrap(apperrors.CodeBackend, "Invalid user credentials", &backend.StatusError{Status: http.StatusUnauthorized})}
	svc := newTestService(stub, clockwork.NewFakeClock())

	_, err := svc.Login(context.Background(), LoginRequest{Email: "a@example.com", Password: "wrongpass"})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidCredentials))

	_, err = svc.Login(context.Background(), LoginRequest{Email: "not-an-email", Password: "x"})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}

func TestService_RegisterValidation(t *testing.T) {
	stub := &stubBackend{register: json.RawMessage(`{"fullName":"Ravi Kumar"}`)}
	svc := newTestService(stub, clockwork.NewFakeClock())
	ctx := context.Background()

	req := validRegistration()
	req.City = ""
	req.Gender = " "
	_, err := svc.Register(ctx, req)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
	require.Equal(t, "Please fill all required fields: city, gender", apperrors.MessageOf(err))

	req = validRegistration()
	req.TermsAccepted = false
	_, err = svc.Register(ctx, req)
	require.Equal(t, "Please accept the terms to continue", apperrors.MessageOf(err))

	req = validRegistration()
	req.Password = "short"
	_, err = svc.Register(ctx, req)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
	require.Zero(t, stub.registerCalls)

	profile, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)
	require.Equal(t, "Ravi Kumar", profile.Name)
	require.Equal(t, "ravi@example.com", profile.Email)
	require.Equal(t, "Not provided", profile.BloodGroup)
	require.Equal(t, "ravi@example.com", stub.lastRegistration.Email)
}

func TestService_ProfileFallsBackToBackend(t *testing.T) {
	stub := &stubBackend{
		login:   backend.LoginResult{AccessToken: "a1", RefreshToken: "r1"},
		current: json.RawMessage(`{"name":"Meera","email":"meera@example.com"}`),
	}
	store := kvstore.NewMemoryStore()
	svc := NewService(Config{Secret: "s", TokenTTL: time.Hour}, stub, store, clockwork.NewFakeClock(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	resp, err := svc.Login(ctx, LoginRequest{Email: "meera@example.com", Password: "secret123"})
	require.NoError(t, err)
	claims, err := svc.ValidateToken(ctx, resp.Token)
	require.NoError(t, err)
	require.NoError(t, store.Remove(ctx, profileKey(claims.SessionID)))

	profile, err := svc.Profile(ctx, claims.SessionID)
	require.NoError(t, err)
	require.Equal(t, "Meera", profile.Name)
	require.Equal(t, 1, stub.currentCalls)
}

func TestService_LogoutDropsCredentials(t *testing.T) {
	stub := &stubBackend{login: backend.LoginResult{AccessToken: "a1", RefreshToken: "r1"}}
	svc := newTestService(stub, clockwork.NewFakeClock())
	ctx := context.Background()

	resp, err := svc.Login(ctx, LoginRequest{Email: "a@example.com", Password: "secret123"})
	require.NoError(t, err)
	claims, err := svc.ValidateToken(ctx, resp.Token)
	require.NoError(t, err)

	tokens := svc.Tokens(claims.SessionID)
	require.NoError(t, tokens.SetAccessToken(ctx, "a2"))
	access, _, err := tokens.Tokens(ctx)
	require.NoError(t, err)
	require.Equal(t, "a2", access)

	require.NoError(t, svc.Logout(ctx, claims.SessionID))
	access, refresh, err := tokens.Tokens(ctx)
	require.NoError(t, err)
	require.Empty(t, access)
	require.Empty(t, refresh)
	require.Error(t, tokens.SetAccessToken(ctx, "a3"))
}

func newTestService(b Backend, clock clockwork.Clock) Service {
	return NewService(Config{
		Secret:   "test-secret",
		TokenTTL: time.Hour,
		StoreTTL: 24 * time.Hour,
	}, b, kvstore.NewMemoryStoreWithClock(clock), clock, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func validRegistration() RegisterRequest {
	return RegisterRequest{
		FullName:      "Ravi Kumar",
		Email:         "Ravi@Example.com",
		Contact:       "9123456780",
		Password:      "longenough",
		Username:      "ravik",
		Address:       "12 MG Road",
		Pincode:       "560001",
		State:         "Karnataka",
		City:          "Bengaluru",
		BloodGroup:    "B+",
		Age:           "34",
		Gender:        "male",
		TermsAccepted: true,
	}
}

type stubBackend struct {
	login            backend.LoginResult
	loginErr         error
	register         json.RawMessage
	current          json.RawMessage
	lastCreds        backend.Credentials
	lastRegistration backend.Registration
	registerCalls    int
	currentCalls     int
}

func (s *stubBackend) Login(_ context.Context, creds backend.Credentials) (backend.LoginResult, error) {
	s.lastCreds = creds
	return s.login, s.loginErr
}

func (s *stubBackend) Register(_ context.Context, reg backend.Registration) (json.RawMessage, error) {
	s.registerCalls++
	s.lastRegistration = reg
	return s.register, nil
}

func (s *stubBackend) CurrentUser(ctx context.Context, tokens backend.TokenStore) (json.RawMessage, error) {
	s.currentCalls++
	if access, _, _ := tokens.Tokens(ctx); access == "" {
		return nil, apperrors.Wrap(apperrors.CodeNotAuthenticated, backend.MessageNotAuthenticated, nil)
	}
	return s.current, nil
}

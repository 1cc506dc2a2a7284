package session

import "time"

// Config drives gateway sessions.
type Config struct {
	Secret   string
	TokenTTL time.Duration
	// StoreTTL bounds how long backend credentials are kept server side.
	StoreTTL time.Duration
}

// RegisterRequest captures the sign-up form. Every field is required.
type RegisterRequest struct {
	FullName      string `json:"fullName"`
	Email         string `json:"email"`
	Contact       string `json:"contact"`
	Password      string `json:"password"`
	Username      string `json:"username"`
	Address       string `json:"address"`
	Pincode       string `json:"pincode"`
	State         string `json:"state"`
	City          string `json:"city"`
	BloodGroup    string `json:"bloodGroup"`
	Age           string `json:"age"`
	Gender        string `json:"gender"`
	TermsAccepted bool   `json:"termsAccepted"`
}

// LoginRequest captures login details.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse returns the signed gateway token.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      Profile   `json:"user"`
}

// Profile is the account summary the pages render.
type Profile struct {
	Name       string `json:"name"`
	Age        string `json:"age"`
	Contact    string `json:"contact"`
	Email      string `json:"email"`
	BloodGroup string `json:"bloodGroup"`
}

// Claims are extracted from the gateway token.
type Claims struct {
	SessionID string
	ExpiresAt time.Time
}

type storedCredentials struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	IssuedAt     time.Time `json:"issuedAt"`
}

package identity

import "crypto/subtle"

// CredentialVerifier compares a stored credential with a candidate password.
// The stored value is whatever the registry carries for the account: an
// argon2id hash in production, ignored entirely by the demo verifiers.
type CredentialVerifier interface {
	Verify(stored, password string) error
}

// OTPVerifier checks a one-time code for a phone number. The demo
// implementation compares against a fixed code; a production deployment must
// wire a verifier backed by a real delivery mechanism.
type OTPVerifier interface {
	Verify(phone, otp string) error
}

// AcceptAnyPassword accepts every password. It is the registry login's demo
// policy and must not be wired in production.
type AcceptAnyPassword struct{}

func (AcceptAnyPassword) Verify(string, string) error { return nil }

// SharedSecret accepts only the configured secret, matching the role-scoped
// demo login flow.
type SharedSecret struct {
	Secret string
}

func (v SharedSecret) Verify(_, password string) error {
	if subtle.ConstantTimeCompare([]byte(v.Secret), []byte(password)) != 1 {
		return ErrInvalidCredentials
	}
	return nil
}

// Argon2Verifier checks passwords against stored argon2id hashes.
type Argon2Verifier struct{}

func (Argon2Verifier) Verify(stored, password string) error {
	if err := VerifyPasswordHash(stored, password); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// StaticOTP accepts only the configured code.
type StaticOTP struct {
	Code string
}

func (v StaticOTP) Verify(_, otp string) error {
	if subtle.ConstantTimeCompare([]byte(v.Code), []byte(otp)) != 1 {
		return ErrInvalidOTP
	}
	return nil
}

// Demo credential constants used when no overrides are configured.
const (
	DemoSharedSecret = "password123"
	DemoOTPCode      = "123456"
)

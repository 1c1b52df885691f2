package identity

import "errors"

var (
	// ErrDuplicateAccount is returned by Signup when the email is already registered.
	ErrDuplicateAccount = errors.New("identity: account already exists")
	// ErrAccountNotFound is returned by Login when no account matches the email.
	ErrAccountNotFound = errors.New("identity: account not found")
	// ErrInvalidCredentials is returned when a password check fails.
	ErrInvalidCredentials = errors.New("identity: invalid credentials")
	// ErrInvalidOTP is returned when a one-time code is rejected or no account
	// matches the phone and role.
	ErrInvalidOTP = errors.New("identity: invalid OTP")
	// ErrInvalidID is returned when no account of the role carries the member identifier.
	ErrInvalidID = errors.New("identity: invalid ID")
)

// ValidationError captures field level validation issues that callers can
// surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

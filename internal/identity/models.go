package identity

import "time"

// Role distinguishes the two account kinds the product supports. It is fixed
// at signup and drives which member identifier an account carries.
type Role string

const (
	RoleFaculty Role = "faculty"
	RoleStudent Role = "student"
)

// Valid reports whether the role is one of the supported values.
func (r Role) Valid() bool {
	return r == RoleFaculty || r == RoleStudent
}

// User represents a campus account. Exactly one of StudentID/FacultyID is
// populated, matching Role.
type User struct {
	ID         string
	Name       string
	Email      string
	Role       Role
	Department string
	StudentID  *string
	FacultyID  *string
	Avatar     *string
	Phone      *string
	JoinDate   time.Time
}

// SignupInput captures the fields a caller provides when creating an account.
type SignupInput struct {
	Name       string
	Email      string
	Role       Role
	Department string
	Phone      *string
	StudentID  *string
	FacultyID  *string
}

// ProfileUpdate carries a shallow merge of profile fields. Nil fields are
// left untouched on the current record.
type ProfileUpdate struct {
	Name       *string
	Email      *string
	Department *string
	Avatar     *string
	Phone      *string
}

// Snapshot is the durable form of the session: who is logged in, if anyone.
type Snapshot struct {
	User            *User
	IsAuthenticated bool
}

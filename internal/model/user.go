package model

import "time"

// User represents an application user record as stored in the
// `users` table. The password is only ever held as a bcrypt hash;
// handlers build separate response types so the hash never leaves
// the process.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Email        – unique, normalized (trimmed, lower-case) email address.
//	PasswordHash – bcrypt hash of the user's secret.
//	GivenName    – first name.
//	FamilyName   – last name.
//	IsActive     – inactive accounts cannot log in or use tokens.
//	IsElevated   – superuser flag; grants visibility over every task.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	GivenName    string    // users.given_name
	FamilyName   string    // users.family_name
	IsActive     bool      // users.is_active
	IsElevated   bool      // users.is_elevated
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// FullName joins the given and family names.
func (u *User) FullName() string {
	return u.GivenName + " " + u.FamilyName
}

// ShortName returns the given name.
func (u *User) ShortName() string {
	return u.GivenName
}

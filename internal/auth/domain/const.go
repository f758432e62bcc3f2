// Package domain defines authentication and authorization domain models.
// Implements role-based access control with signed time-boxed tokens,
// TOTP-based MFA state and audit logging.
package domain

// Role defines the authorization level of a user account.
type Role string

const (
	// RoleAdmin can manage users and perform every file operation.
	RoleAdmin Role = "admin"

	// RoleUser can upload files and access files shared with them.
	RoleUser Role = "user"

	// RoleGuest can only access files shared with them.
	RoleGuest Role = "guest"
)

// Action defines the operations gated by role checks.
type Action string

const (
	// ActionUpload covers creating new encrypted files.
	ActionUpload Action = "upload"

	// ActionAccess covers viewing or downloading a file shared with the user.
	ActionAccess Action = "access"

	// ActionManageUsers covers administrative user management.
	ActionManageUsers Action = "manage_users"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleGuest:
		return true
	}
	return false
}

// Can reports whether the role is allowed to perform the action. Pure
// predicate, no I/O: per-file permissions are checked separately against
// the share row.
func (r Role) Can(action Action) bool {
	switch action {
	case ActionUpload:
		return r == RoleAdmin || r == RoleUser
	case ActionAccess:
		return r.Valid()
	case ActionManageUsers:
		return r == RoleAdmin
	}
	return false
}

// Purpose scopes a signed token to a single flow. Verification requires an
// exact purpose match, so a pending-MFA token can never be replayed as a
// share link and vice versa.
type Purpose string

const (
	// PurposeMFAPending marks the short-lived token issued after password
	// verification, consumed by the MFA confirmation endpoint.
	PurposeMFAPending Purpose = "mfa-pending"

	// PurposeFileShare marks a share link token bound to a single file.
	PurposeFileShare Purpose = "file-share"

	// PurposeAccess marks a full session token issued after MFA confirmation.
	PurposeAccess Purpose = "access"
)

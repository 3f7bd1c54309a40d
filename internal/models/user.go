package models

// UserRole represents the roles the LMS backend assigns to accounts.
type UserRole string

const (
	RoleStudent  UserRole = "student"
	RoleLecturer UserRole = "lecturer"
	RoleAdmin    UserRole = "admin"
)

// Valid reports whether the role is one the backend can produce.
func (r UserRole) Valid() bool {
	switch r {
	case RoleStudent, RoleLecturer, RoleAdmin:
		return true
	}
	return false
}

// UserProfile mirrors the backend user representation. The gateway keeps a
// read copy inside the session; the backend owns the record.
type UserProfile struct {
	ID        int      `json:"id"`
	Username  string   `json:"username"`
	Email     string   `json:"email,omitempty"`
	Role      UserRole `json:"role"`
	FirstName string   `json:"first_name,omitempty"`
	LastName  string   `json:"last_name,omitempty"`
	Bio       string   `json:"bio,omitempty"`
}

// Merge applies non-zero fields from patch onto the profile, mirroring how
// the backend answers a PATCH with the updated record.
func (p *UserProfile) Merge(patch UserProfile) {
	if patch.ID != 0 {
		p.ID = patch.ID
	}
	if patch.Username != "" {
		p.Username = patch.Username
	}
	if patch.Email != "" {
		p.Email = patch.Email
	}
	if patch.Role != "" {
		p.Role = patch.Role
	}
	if patch.FirstName != "" {
		p.FirstName = patch.FirstName
	}
	if patch.LastName != "" {
		p.LastName = patch.LastName
	}
	if patch.Bio != "" {
		p.Bio = patch.Bio
	}
}

// FallbackProfile is stored when the post-login profile fetch fails. It may
// show the wrong role until the user logs in again (known trade-off carried
// over from the product behaviour).
func FallbackProfile(username string) *UserProfile {
	return &UserProfile{ID: 0, Username: username, Role: RoleStudent}
}

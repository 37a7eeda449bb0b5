package domain

// User is the identity record returned by the authentication backend.
// Role is authoritative for every capability check.
type User struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
	Role     Role   `json:"role"`
}

// Can reports whether the user's role grants action. A nil user holds no
// capabilities.
func (u *User) Can(action Action) bool {
	if u == nil {
		return false
	}
	return u.Role.Can(action)
}

// Credential is the token pair issued at login. It is the single record kept
// in the credential store for a browser session.
type Credential struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// Empty reports whether the credential carries no access token.
func (c Credential) Empty() bool {
	return c.Access == ""
}

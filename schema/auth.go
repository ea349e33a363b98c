package schema

type (
	// User is the account holder as returned by the backend.
	User struct {
		ID        int     `json:"id"`
		Email     string  `json:"email"`
		FirstName string  `json:"first_name"`
		LastName  *string `json:"last_name,omitempty"`
		IsActive  *bool   `json:"is_active,omitempty"`
	}

	// UserCreate is the registration payload.
	UserCreate struct {
		Email     string  `json:"email"`
		Password  string  `json:"password"`
		FirstName string  `json:"first_name"`
		LastName  *string `json:"last_name"`
	}

	// RefreshRequest is the refresh endpoint payload.
	RefreshRequest struct {
		RefreshToken string `json:"refresh_token"`
	}
)

// DisplayName returns the user's full name falling back to the email.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	name := u.FirstName
	if u.LastName != nil && *u.LastName != "" {
		name += " " + *u.LastName
	}
	if name == "" {
		return u.Email
	}
	return name
}

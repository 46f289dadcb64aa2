package model

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *Meta     `json:"meta,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type Meta struct {
	Total int `json:"total"`
}

// AuthUser is the outward-facing projection of a User. It never carries the
// password hash.
type AuthUser struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Active   bool   `json:"active"`
	Verified bool   `json:"email_verified"`
}

func (u *User) Public() AuthUser {
	return AuthUser{
		ID:       u.ID,
		Email:    u.Email.String(),
		Name:     u.Name.String(),
		Role:     string(u.Role),
		Active:   u.Active,
		Verified: u.EmailVerified,
	}
}

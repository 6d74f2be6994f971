package crm

import "context"

// User is a CRM user account within the tenant.
type User struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Active    bool   `json:"active_flag"`
	IsAdmin   int    `json:"is_admin"`
	LastLogin string `json:"last_login,omitempty"`
}

// UsersService accesses the /users resource group.
type UsersService struct {
	core *core
}

// List returns every user of the tenant.
func (s *UsersService) List(ctx context.Context) ([]User, error) {
	var users []User
	if _, err := s.core.get(ctx, "/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Me returns the user the session's API token belongs to.
func (s *UsersService) Me(ctx context.Context) (*User, error) {
	var user User
	if _, err := s.core.get(ctx, "/users/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

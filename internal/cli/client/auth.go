package client

import (
	"context"
	"encoding/json"
)

const authBasePath = "/api/auth"

// User is the authenticated identity as returned by the API
type User struct {
	ID        string `json:"id" yaml:"id"`
	Email     string `json:"email" yaml:"email"`
	Name      string `json:"name" yaml:"name"`
	Role      string `json:"role" yaml:"role"`
	TenantID  string `json:"tenantId,omitempty" yaml:"tenantId,omitempty"`
	CreatedAt string `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u != nil && (u.Role == "admin" || u.Role == "ADMIN")
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// ProfileUpdate is a partial update of the signed-in user. Empty fields are
// left unchanged.
type ProfileUpdate struct {
	Name  string `json:"name,omitempty" validate:"required_without=Email"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}

// AuthResponse is returned by login and register
type AuthResponse struct {
	User         User   `json:"user"`
	Token        string `json:"token"`
	APIKey       string `json:"apiKey"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// UnmarshalJSON accepts both the camelCase fields and the snake_case
// access_token/api_key fields the Python backend emits.
func (r *AuthResponse) UnmarshalJSON(data []byte) error {
	var aux struct {
		User          User   `json:"user"`
		Token         string `json:"token"`
		AccessToken   string `json:"access_token"`
		APIKey        string `json:"apiKey"`
		APIKeySnake   string `json:"api_key"`
		RefreshToken  string `json:"refreshToken"`
		RefreshTokenS string `json:"refresh_token"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*r = AuthResponse{
		User:         aux.User,
		Token:        firstNonEmpty(aux.Token, aux.AccessToken),
		APIKey:       firstNonEmpty(aux.APIKey, aux.APIKeySnake),
		RefreshToken: firstNonEmpty(aux.RefreshToken, aux.RefreshTokenS),
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Login authenticates the user. Credentials are not persisted here; the
// session container decides what to keep.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	return createResource[AuthResponse](ctx, c, authBasePath+"/login", LoginRequest{
		Email:    email,
		Password: password,
	})
}

// Register creates an account
func (c *Client) Register(ctx context.Context, name, email, password string) (*AuthResponse, error) {
	return createResource[AuthResponse](ctx, c, authBasePath+"/register", RegisterRequest{
		Name:     name,
		Email:    email,
		Password: password,
	})
}

// Me returns the identity behind the current credentials
func (c *Client) Me(ctx context.Context) (*User, error) {
	return getResource[User](ctx, c, authBasePath+"/me")
}

// UpdateProfile changes the signed-in user and returns the updated identity
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (*User, error) {
	return patchResource[User](ctx, c, authBasePath+"/me", update)
}

// Logout tells the server the session is over
func (c *Client) Logout(ctx context.Context) error {
	return c.post(ctx, authBasePath+"/logout", struct{}{}, nil)
}

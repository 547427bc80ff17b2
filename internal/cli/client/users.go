package client

import (
	"context"
	"net/url"
	"strconv"
)

const usersBasePath = "/api/users"

// UserList is a page of users
type UserList struct {
	Data       []User `json:"data" yaml:"data"`
	Total      int    `json:"total" yaml:"total"`
	Page       int    `json:"page" yaml:"page"`
	Limit      int    `json:"limit" yaml:"limit"`
	TotalPages int    `json:"totalPages" yaml:"totalPages"`
}

// ListUsersParams filters and paginates ListUsers
type ListUsersParams struct {
	Page   int
	Limit  int
	Search string
}

// CreateUserRequest represents a request to create a new user
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,oneof=admin user"`
}

// UpdateUserRequest replaces a user's editable fields. An empty password
// keeps the current one.
type UpdateUserRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password,omitempty" validate:"omitempty,min=6"`
	Role     string `json:"role" validate:"required,oneof=admin user"`
}

// ListUsers returns one page of users
func (c *Client) ListUsers(ctx context.Context, params ListUsersParams) (*UserList, error) {
	q := url.Values{}
	if params.Page > 0 {
		q.Set("page", strconv.Itoa(params.Page))
	}
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	q.Set("search", params.Search)

	return getResource[UserList](ctx, c, withQuery(usersBasePath, q))
}

// GetUser returns a user by ID
func (c *Client) GetUser(ctx context.Context, id string) (*User, error) {
	return getResource[User](ctx, c, resourcePath(usersBasePath+"/%s", id))
}

// CreateUser creates a user
func (c *Client) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	return createResource[User](ctx, c, usersBasePath, req)
}

// UpdateUser replaces a user
func (c *Client) UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*User, error) {
	return replaceResource[User](ctx, c, resourcePath(usersBasePath+"/%s", id), req)
}

// DeleteUser deletes a user by ID
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.delete(ctx, resourcePath(usersBasePath+"/%s", id), nil)
}

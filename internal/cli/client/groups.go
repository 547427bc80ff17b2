package client

import "context"

const groupsBasePath = "/api/groups"

// Group is a permission group
type Group struct {
	ID           string `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	Description  string `json:"description,omitempty" yaml:"description,omitempty"`
	MembersCount int    `json:"membersCount" yaml:"membersCount"`
	CreatedAt    string `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	UpdatedAt    string `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
}

// GroupMember links a user to a group
type GroupMember struct {
	ID      string `json:"id" yaml:"id"`
	UserID  string `json:"userId" yaml:"userId"`
	GroupID string `json:"groupId" yaml:"groupId"`
	Role    string `json:"role" yaml:"role"` // admin, member
	AddedAt string `json:"addedAt,omitempty" yaml:"addedAt,omitempty"`
	AddedBy string `json:"addedBy,omitempty" yaml:"addedBy,omitempty"`
}

// ListGroups returns all groups
func (c *Client) ListGroups(ctx context.Context) ([]Group, error) {
	return listResources[Group](ctx, c, groupsBasePath)
}

// GetGroup returns a group by ID
func (c *Client) GetGroup(ctx context.Context, id string) (*Group, error) {
	return getResource[Group](ctx, c, resourcePath(groupsBasePath+"/%s", id))
}

// ListGroupMembers returns the members of a group
func (c *Client) ListGroupMembers(ctx context.Context, groupID string) ([]GroupMember, error) {
	return listResources[GroupMember](ctx, c, resourcePath(groupsBasePath+"/%s/members", groupID))
}

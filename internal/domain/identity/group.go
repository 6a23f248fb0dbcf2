package identity

import (
	"strings"

	"github.com/chronicle/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Group is a named set of permissions users can be members of
type Group struct {
	ID          uuid.UUID
	Name        string
	Permissions []Permission
}

// NewGroup creates a new group with the given name
func NewGroup(name string) (*Group, error) {
	if err := validateGroupName(name); err != nil {
		return nil, err
	}
	return &Group{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(name),
		Permissions: make([]Permission, 0),
	}, nil
}

// Grant grants a permission to the group
func (g *Group) Grant(perm Permission) error {
	if perm.IsEmpty() {
		return shared.NewDomainError("INVALID_PERMISSION", "Permission cannot be empty")
	}
	for _, p := range g.Permissions {
		if p.Equals(perm) {
			return shared.NewDomainError("PERMISSION_ALREADY_GRANTED", "Group already has this permission")
		}
	}
	g.Permissions = append(g.Permissions, perm)
	return nil
}

// GrantByCode grants a permission by code string
func (g *Group) GrantByCode(code string) error {
	perm, err := NewPermissionFromCode(code)
	if err != nil {
		return err
	}
	return g.Grant(*perm)
}

// Revoke removes a permission from the group
func (g *Group) Revoke(code string) error {
	kept := make([]Permission, 0, len(g.Permissions))
	found := false
	for _, p := range g.Permissions {
		if p.Code == code {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return shared.NewDomainError("PERMISSION_NOT_FOUND", "Group does not have this permission")
	}
	g.Permissions = kept
	return nil
}

// Has reports whether the group holds a permission for the action and resource
func (g *Group) Has(action Action, resource Resource) bool {
	for _, p := range g.Permissions {
		if p.Allows(action, resource) {
			return true
		}
	}
	return false
}

func validateGroupName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_GROUP_NAME", "Group name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError("INVALID_GROUP_NAME", "Group name cannot exceed 100 characters")
	}
	return nil
}

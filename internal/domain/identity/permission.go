package identity

import (
	"regexp"
	"strings"

	"github.com/chronicle/backend/internal/domain/shared"
)

// Action is the closed set of mutating operations a permission can gate
type Action string

const (
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// IsValid reports whether the action is one of the known actions
func (a Action) IsValid() bool {
	switch a {
	case ActionCreate, ActionEdit, ActionDelete:
		return true
	}
	return false
}

// Resource identifies a resource type permissions apply to
type Resource string

// Known resource types
const (
	ResourceEntry   Resource = "entry"
	ResourceComment Resource = "comment"
	ResourceUser    Resource = "user"
	ResourceGroup   Resource = "group"
)

var resourceRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Permission represents a (resource, action) grant (resource:action pattern).
// It is a value object.
type Permission struct {
	Code     string // e.g., "entry:edit"
	Resource Resource
	Action   Action
}

// NewPermission creates a new Permission value object
func NewPermission(resource Resource, action Action) (*Permission, error) {
	if err := validateResource(resource); err != nil {
		return nil, err
	}
	if !action.IsValid() {
		return nil, shared.NewDomainError("INVALID_PERMISSION_ACTION", "Permission action must be one of create, edit, delete")
	}

	return &Permission{
		Code:     string(resource) + ":" + string(action),
		Resource: resource,
		Action:   action,
	}, nil
}

// NewPermissionFromCode creates a Permission from a code string (e.g., "entry:edit")
func NewPermissionFromCode(code string) (*Permission, error) {
	parts := strings.SplitN(code, ":", 2)
	if len(parts) != 2 {
		return nil, shared.NewDomainError("INVALID_PERMISSION_CODE", "Permission code must be in format 'resource:action'")
	}
	return NewPermission(Resource(parts[0]), Action(parts[1]))
}

// Equals checks if two permissions are equal
func (p Permission) Equals(other Permission) bool {
	return p.Code == other.Code
}

// IsEmpty returns true if the permission is empty
func (p Permission) IsEmpty() bool {
	return p.Code == ""
}

// Allows reports whether the permission grants the given action on the resource
func (p Permission) Allows(action Action, resource Resource) bool {
	return p.Action == action && p.Resource == resource
}

func validateResource(resource Resource) error {
	trimmed := strings.TrimSpace(string(resource))
	if trimmed == "" {
		return shared.NewDomainError("INVALID_PERMISSION_RESOURCE", "Permission resource cannot be empty")
	}
	if len(trimmed) > 50 {
		return shared.NewDomainError("INVALID_PERMISSION_RESOURCE", "Permission resource cannot exceed 50 characters")
	}
	if !resourceRegex.MatchString(trimmed) {
		return shared.NewDomainError("INVALID_PERMISSION_RESOURCE", "Permission resource must start with a letter and contain only lowercase letters, numbers, and underscores")
	}
	return nil
}

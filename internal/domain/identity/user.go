package identity

import (
	"context"
	"strings"

	"github.com/chronicle/backend/internal/domain/archive"
	"github.com/chronicle/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// User carries the flags and grants the permission model evaluates. It holds
// no authentication state; establishing who the user is belongs to the caller.
type User struct {
	ID          uuid.UUID
	Username    string
	IsActive    bool
	IsStaff     bool
	IsSuperuser bool
	Permissions []Permission
	Groups      []*Group
}

// NewUser creates an active, non-staff user with no grants
func NewUser(username string) (*User, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	return &User{
		ID:          uuid.New(),
		Username:    strings.TrimSpace(username),
		IsActive:    true,
		Permissions: make([]Permission, 0),
		Groups:      make([]*Group, 0),
	}, nil
}

// Grant grants a permission directly to the user
func (u *User) Grant(perm Permission) error {
	if perm.IsEmpty() {
		return shared.NewDomainError("INVALID_PERMISSION", "Permission cannot be empty")
	}
	for _, p := range u.Permissions {
		if p.Equals(perm) {
			return shared.NewDomainError("PERMISSION_ALREADY_GRANTED", "User already has this permission")
		}
	}
	u.Permissions = append(u.Permissions, perm)
	return nil
}

// GrantByCode grants a permission by code string
func (u *User) GrantByCode(code string) error {
	perm, err := NewPermissionFromCode(code)
	if err != nil {
		return err
	}
	return u.Grant(*perm)
}

// AddToGroup adds the user to a group
func (u *User) AddToGroup(g *Group) error {
	if g == nil {
		return shared.NewDomainError("INVALID_GROUP", "Group cannot be nil")
	}
	for _, existing := range u.Groups {
		if existing.ID == g.ID {
			return shared.NewDomainError("ALREADY_MEMBER", "User is already a member of this group")
		}
	}
	u.Groups = append(u.Groups, g)
	return nil
}

// EffectivePermissions returns the union of the user's direct grants and the
// grants of every group the user belongs to. Inactive users have no effective
// permissions. Superusers are granted everything implicitly, which cannot be
// enumerated; Can handles that case.
func (u *User) EffectivePermissions() []Permission {
	if !u.IsActive {
		return []Permission{}
	}
	seen := make(map[string]bool)
	effective := make([]Permission, 0, len(u.Permissions))
	for _, p := range u.Permissions {
		if !seen[p.Code] {
			seen[p.Code] = true
			effective = append(effective, p)
		}
	}
	for _, g := range u.Groups {
		for _, p := range g.Permissions {
			if !seen[p.Code] {
				seen[p.Code] = true
				effective = append(effective, p)
			}
		}
	}
	return effective
}

// Can resolves whether the user may perform the action on the resource type.
// Inactive users can do nothing, superusers everything; otherwise the union
// of direct and group grants decides. Nothing is cached across calls.
func (u *User) Can(action Action, resource Resource) bool {
	if !u.IsActive {
		return false
	}
	if u.IsSuperuser {
		return true
	}
	for _, p := range u.Permissions {
		if p.Allows(action, resource) {
			return true
		}
	}
	for _, g := range u.Groups {
		if g.Has(action, resource) {
			return true
		}
	}
	return false
}

// Authorize returns ErrPermissionDenied unless the user may perform the
// action on the resource type. Distinct from ErrNotFound so callers can
// choose whether to mask a resource's existence.
func Authorize(u *User, action Action, resource Resource) error {
	if u == nil || !u.Can(action, resource) {
		return shared.ErrPermissionDenied
	}
	return nil
}

// DeletePreview gates a delete and returns the dependent records that would
// be removed along with rec, so the caller can confirm the full closure
// before committing. Cascade discovery itself is owned by the record source.
func DeletePreview(ctx context.Context, u *User, resource Resource, src archive.RecordSource, rec archive.Record) ([]archive.Record, error) {
	if err := Authorize(u, ActionDelete, resource); err != nil {
		return nil, err
	}
	return src.Dependents(ctx, rec)
}

func validateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return shared.NewDomainError("INVALID_USERNAME", "Username cannot be empty")
	}
	if len(username) > 150 {
		return shared.NewDomainError("INVALID_USERNAME", "Username cannot exceed 150 characters")
	}
	return nil
}

package access

import (
	"github.com/chronicle/backend/internal/domain/identity"
	"github.com/chronicle/backend/internal/domain/shared"
)

// GroupSpec declares a group and its permission codes
type GroupSpec struct {
	Name        string
	Permissions []string
}

// UserSpec declares a user, its flags, direct grants and group memberships
type UserSpec struct {
	Username    string
	Active      bool
	Staff       bool
	Superuser   bool
	Permissions []string
	Groups      []string
}

// Directory resolves users and their effective permissions from declarative
// specs. It is built once and read-only afterwards.
type Directory struct {
	users map[string]*identity.User
}

// NewDirectory builds a directory from group and user specs. Unknown group
// references and malformed permission codes fail construction.
func NewDirectory(groups []GroupSpec, users []UserSpec) (*Directory, error) {
	byName := make(map[string]*identity.Group, len(groups))
	for _, spec := range groups {
		group, err := identity.NewGroup(spec.Name)
		if err != nil {
			return nil, err
		}
		for _, code := range spec.Permissions {
			if err := group.GrantByCode(code); err != nil {
				return nil, err
			}
		}
		byName[group.Name] = group
	}

	dir := &Directory{users: make(map[string]*identity.User, len(users))}
	for _, spec := range users {
		user, err := identity.NewUser(spec.Username)
		if err != nil {
			return nil, err
		}
		user.IsActive = spec.Active
		user.IsStaff = spec.Staff
		user.IsSuperuser = spec.Superuser
		for _, code := range spec.Permissions {
			if err := user.GrantByCode(code); err != nil {
				return nil, err
			}
		}
		for _, name := range spec.Groups {
			group, ok := byName[name]
			if !ok {
				return nil, shared.NewDomainError("UNKNOWN_GROUP", "User references a group that is not declared: "+name)
			}
			if err := user.AddToGroup(group); err != nil {
				return nil, err
			}
		}
		dir.users[user.Username] = user
	}
	return dir, nil
}

// User returns the user with the given username
func (d *Directory) User(username string) (*identity.User, error) {
	user, ok := d.users[username]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

// Can resolves a permission decision for the named user
func (d *Directory) Can(username string, action identity.Action, resource identity.Resource) (bool, error) {
	user, err := d.User(username)
	if err != nil {
		return false, err
	}
	return user.Can(action, resource), nil
}

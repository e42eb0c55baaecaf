package identity

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnauthorized = errors.New("identity: not allowed")

type Role string

const (
	RoleUser    Role = "USER"
	RoleManager Role = "MANAGER"
	RoleAdmin   Role = "ADMIN"
)

// ParseRole accepts role names in any case. An empty string means USER.
func ParseRole(raw string) (Role, error) {
	switch r := Role(strings.ToUpper(strings.TrimSpace(raw))); r {
	case "":
		return RoleUser, nil
	case RoleUser, RoleManager, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("identity: unknown role %q", raw)
	}
}

// Actor is the caller on whose behalf an operation runs.
type Actor struct {
	UserID string
	Role   Role
}

// System is the actor background jobs run as.
var System = Actor{UserID: "system", Role: RoleAdmin}

// Staff reports whether the actor may act on other users' data.
func (a Actor) Staff() bool {
	return a.Role == RoleAdmin || a.Role == RoleManager
}

// CanAccess reports whether the actor may read or manage data owned by ownerID.
func (a Actor) CanAccess(ownerID string) bool {
	return a.UserID == ownerID || a.Staff()
}

// RequireOwner fails unless the actor is ownerID itself.
func (a Actor) RequireOwner(ownerID string) error {
	if a.UserID == "" || a.UserID != ownerID {
		return ErrUnauthorized
	}
	return nil
}

// RequireAccess fails unless CanAccess holds.
func (a Actor) RequireAccess(ownerID string) error {
	if a.UserID == "" || !a.CanAccess(ownerID) {
		return ErrUnauthorized
	}
	return nil
}

// RequireStaff fails unless the actor is a manager or an administrator.
func (a Actor) RequireStaff() error {
	if !a.Staff() {
		return ErrUnauthorized
	}
	return nil
}

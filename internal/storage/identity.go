package storage

import (
	"fmt"
	"strings"
)

type Role int

const (
	RoleSender Role = iota + 1
	RoleDriver
	RoleAdmin
)

// ParseRole accepts both the stored spellings and the client aliases
// ("sender" for user, "picker" for driver).
func ParseRole(raw string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "user", "sender":
		return RoleSender, nil
	case "driver", "picker":
		return RoleDriver, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return 0, fmt.Errorf("%w: unknown role %q", ErrValidation, raw)
	}
}

// String is the stored spelling.
func (r Role) String() string {
	switch r {
	case RoleSender:
		return "user"
	case RoleDriver:
		return "driver"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Identity is the authenticated caller of an operation.
type Identity struct {
	UserID string
	Role   Role
}

func requireRole(caller Identity, allowed ...Role) error {
	for _, role := range allowed {
		if caller.Role == role {
			return nil
		}
	}

	var who string
	switch caller.Role {
	case RoleSender:
		who = "senders"
	case RoleDriver:
		who = "drivers"
	case RoleAdmin:
		who = "admins"
	default:
		return fmt.Errorf("%w: unknown role", ErrForbidden)
	}
	return fmt.Errorf("%w: %s are not allowed to perform this action", ErrForbidden, who)
}

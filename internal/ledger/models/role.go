package models

import dErrors "basalt/pkg/domain-errors"

// Role is a capability tag on an account. Admin implies the ability to
// grant and revoke all roles; it does not imply Agent or Minter for the
// operations those gate.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleAgent  Role = "agent"
	RoleMinter Role = "minter"
)

var validRoles = map[Role]bool{
	RoleAdmin:  true,
	RoleAgent:  true,
	RoleMinter: true,
}

// ParseRole constructs a Role from external input.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !validRoles[r] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown role")
	}
	return r, nil
}

func (r Role) String() string {
	return string(r)
}

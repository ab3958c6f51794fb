package entity

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

var roles = []Role{RoleStudent, RoleInstructor, RoleAdmin}

// ParseRole accepts any casing and surrounding whitespace.
func ParseRole(value string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	if !role.IsValid() {
		return "", fmt.Errorf("unknown role %q", value)
	}
	return role, nil
}

func (r Role) IsValid() bool {
	for _, known := range roles {
		if r == known {
			return true
		}
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

func (r *Role) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	case nil:
		*r = RoleStudent
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Role", src)
	}

	parsed, err := ParseRole(raw)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

func (r Role) Value() (driver.Value, error) {
	if !r.IsValid() {
		return nil, fmt.Errorf("unknown role %q", string(r))
	}
	return string(r), nil
}

type User struct {
	ID              uint64
	Email           string
	PasswordHash    string
	FirstName       string
	LastName        string
	Role            Role
	IsEmailVerified bool
	IsActive        bool
	Bio             sql.NullString
	AvatarURL       sql.NullString
	AvatarPublicID  sql.NullString
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

package policy

import "github.com/vibast-solutions/ms-go-onlearn-auth/app/entity"

// Policy names the roles allowed to perform an action and the message
// returned to everyone else.
type Policy struct {
	name    string
	allowed map[entity.Role]struct{}
	message string
}

func New(name, message string, allowed ...entity.Role) Policy {
	set := make(map[entity.Role]struct{}, len(allowed))
	for _, role := range allowed {
		set[role] = struct{}{}
	}
	return Policy{name: name, allowed: set, message: message}
}

var (
	AdminOnly     = New("admin_only", "Access denied: Admins only", entity.RoleAdmin)
	Instructors   = New("instructors", "Access denied: Instructors only", entity.RoleInstructor, entity.RoleAdmin)
	Authenticated = New("authenticated", "Access denied", entity.RoleStudent, entity.RoleInstructor, entity.RoleAdmin)
)

func (p Policy) Name() string {
	return p.name
}

func (p Policy) Message() string {
	return p.message
}

func (p Policy) Allows(role entity.Role) bool {
	_, ok := p.allowed[role]
	return ok
}

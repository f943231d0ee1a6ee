package auth

import "context"

// Role is the enumerated set of staff roles the billing engine recognizes.
// Authorization decisions branch on nothing else.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleDoctor    Role = "doctor"
	RoleReception Role = "reception"
	RoleBilling   Role = "billing"
	RoleSystem    Role = "system"
)

var validRoles = map[Role]bool{
	RoleAdmin:     true,
	RoleDoctor:    true,
	RoleReception: true,
	RoleBilling:   true,
	RoleSystem:    true,
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool { return validRoles[r] }

// Actor identifies who performed an operation. Services take it explicitly on
// every mutating call so the audit trail never depends on ambient state.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// SystemActor is used for internally-triggered mutations (webhooks, jobs).
func SystemActor() Actor {
	return Actor{ID: "system", Role: RoleSystem}
}

// ActorFromContext builds an Actor from the authenticated request context.
// The first known role wins; unknown or missing roles degrade to reception,
// the least privileged staff role.
func ActorFromContext(ctx context.Context) Actor {
	a := Actor{ID: UserIDFromContext(ctx), Role: RoleReception}
	for _, r := range RolesFromContext(ctx) {
		if role := Role(r); role.Valid() {
			a.Role = role
			break
		}
	}
	return a
}

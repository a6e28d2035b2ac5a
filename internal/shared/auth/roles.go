// Package auth provides authentication middleware and the user context the
// derivation engine personalizes its output with.
package auth

// Role represents a user role in the system.
type Role string

const (
	// RoleConsultant handles an assigned caseload of injured workers.
	RoleConsultant Role = "consultant"
	// RoleAdmin supervises consultants: case flags, workloads, instructions.
	RoleAdmin Role = "admin"
	// RoleSupport has read-only access for administrative support staff.
	RoleSupport Role = "support"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleConsultant, RoleAdmin, RoleSupport:
		return true
	}
	return false
}

// CanSupervise reports whether the role may view supervisor surfaces
// (case flags, consultant workloads).
func (r Role) CanSupervise() bool {
	return r == RoleAdmin
}

// CanManageCases reports whether the role may mutate case records.
func (r Role) CanManageCases() bool {
	return r == RoleConsultant || r == RoleAdmin
}

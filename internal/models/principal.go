package models

// Roles understood by the authorization gate.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	ID   string `json:"id"`
	Role string `json:"role"`
	Name string `json:"name"`
}

// IsAdmin reports whether the principal holds the ADMIN role.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

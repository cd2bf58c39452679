package domain

// Principal is the authenticated identity of a request. It is immutable once
// constructed; accessors return copies.
type Principal struct {
	userID      int64
	tenantID    int64
	email       string
	roles       []Role
	authorities []string
	active      bool
}

// NewPrincipal builds a principal, deriving authorities from roles
func NewPrincipal(userID, tenantID int64, email string, roles []Role, active bool) *Principal {
	rs := make([]Role, len(roles))
	copy(rs, roles)
	auths := make([]string, len(roles))
	for i, r := range roles {
		auths[i] = r.Authority()
	}
	return &Principal{
		userID:      userID,
		tenantID:    tenantID,
		email:       email,
		roles:       rs,
		authorities: auths,
		active:      active,
	}
}

// PrincipalFromUser builds a principal for a stored user
func PrincipalFromUser(u *User) *Principal {
	return NewPrincipal(u.ID, u.TenantID, u.Email, u.Roles, u.Active)
}

func (p *Principal) UserID() int64   { return p.userID }
func (p *Principal) TenantID() int64 { return p.tenantID }
func (p *Principal) Email() string   { return p.email }
func (p *Principal) Active() bool    { return p.active }

// Roles returns a copy of the principal's roles
func (p *Principal) Roles() []Role {
	out := make([]Role, len(p.roles))
	copy(out, p.roles)
	return out
}

// Authorities returns a copy of the ROLE_-prefixed authorities
func (p *Principal) Authorities() []string {
	out := make([]string, len(p.authorities))
	copy(out, p.authorities)
	return out
}

// HasRole reports whether the principal holds the role
func (p *Principal) HasRole(role Role) bool {
	for _, r := range p.roles {
		if r == role {
			return true
		}
	}
	return false
}

package domain

import "context"

// Principal is the authenticated owner acting on a ledger.
type Principal struct {
	OwnerID string
	Role    Role
}

// Role represents a principal's access level
type Role string

const (
	// RoleAdmin manages the chart of accounts and every entry operation.
	RoleAdmin Role = "admin"

	// RoleBookkeeper records, posts, voids and duplicates entries.
	RoleBookkeeper Role = "bookkeeper"

	// RoleViewer can only read balances and entries.
	RoleViewer Role = "viewer"
)

// Capability is a permission checked at the host boundary.
type Capability string

const (
	CapabilityView           Capability = "view"
	CapabilityRecordEntries  Capability = "record_entries"
	CapabilityManageAccounts Capability = "manage_accounts"
)

var roleCapabilities = map[Role]map[Capability]bool{
	RoleAdmin: {
		CapabilityView:           true,
		CapabilityRecordEntries:  true,
		CapabilityManageAccounts: true,
	},
	RoleBookkeeper: {
		CapabilityView:          true,
		CapabilityRecordEntries: true,
	},
	RoleViewer: {
		CapabilityView: true,
	},
}

// IsValid checks if the role is a valid role
func (r Role) IsValid() bool {
	_, ok := roleCapabilities[r]
	return ok
}

// Can reports whether the role grants c.
func (r Role) Can(c Capability) bool {
	return roleCapabilities[r][c]
}

type principalKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal stored in ctx.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

package auth

import "strings"

// Role identifies what kind of account the subject holds.
type Role string

const (
	RoleResident  Role = "resident"
	RoleCollector Role = "collector"
	RoleAdmin     Role = "admin"
)

// Capability names an action a role may perform.
type Capability string

const (
	CapRequestPickup    Capability = "request_pickup"
	CapUpdatePickup     Capability = "update_pickup"
	CapAssignPickup     Capability = "assign_pickup"
	CapFileComplaint    Capability = "file_complaint"
	CapResolveComplaint Capability = "resolve_complaint"
	CapManageUsers      Capability = "manage_users"
	CapViewMetrics      Capability = "view_metrics"
)

// RolePolicy groups everything routing and gating need to know about a role.
// Role checks happen here once instead of ad-hoc switches per handler.
type RolePolicy struct {
	Role         Role
	HomeRoute    string
	capabilities map[Capability]struct{}
}

var policies = map[Role]RolePolicy{
	RoleResident: newPolicy(RoleResident, "/resident/dashboard",
		CapRequestPickup, CapFileComplaint),
	RoleCollector: newPolicy(RoleCollector, "/collector/dashboard",
		CapUpdatePickup),
	RoleAdmin: newPolicy(RoleAdmin, "/admin/dashboard",
		CapAssignPickup, CapUpdatePickup, CapResolveComplaint, CapManageUsers, CapViewMetrics),
}

func newPolicy(role Role, home string, caps ...Capability) RolePolicy {
	set := make(map[Capability]struct{}, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return RolePolicy{Role: role, HomeRoute: home, capabilities: set}
}

// ParseRole normalizes a role string, returning false for unknown values.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleResident:
		return RoleResident, true
	case RoleCollector:
		return RoleCollector, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return "", false
}

// PolicyFor returns the policy for a role. Unknown roles get an empty policy
// with no capabilities and the login route as home.
func PolicyFor(role Role) RolePolicy {
	if p, ok := policies[role]; ok {
		return p
	}
	return RolePolicy{Role: role, HomeRoute: "/login", capabilities: map[Capability]struct{}{}}
}

// Can reports whether the role holds the capability.
func (p RolePolicy) Can(c Capability) bool {
	_, ok := p.capabilities[c]
	return ok
}

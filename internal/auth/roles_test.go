package auth

import "testing"

func TestParseRole(t *testing.T) {
	cases := []struct {
		raw  string
		want Role
		ok   bool
	}{
		{"resident", RoleResident, true},
		{" Collector ", RoleCollector, true},
		{"ADMIN", RoleAdmin, true},
		{"superuser", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		got, ok := ParseRole(tc.raw)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParseRole(%q) = %q,%v; want %q,%v", tc.raw, got, ok, tc.want, tc.ok)
		}
	}
}

func TestPolicyCapabilities(t *testing.T) {
	if !PolicyFor(RoleResident).Can(CapRequestPickup) {
		t.Fatal("residents must request pickups")
	}
	if PolicyFor(RoleResident).Can(CapAssignPickup) {
		t.Fatal("residents must not assign pickups")
	}
	if !PolicyFor(RoleCollector).Can(CapUpdatePickup) {
		t.Fatal("collectors must update pickups")
	}
	if PolicyFor(RoleCollector).Can(CapResolveComplaint) {
		t.Fatal("collectors must not resolve complaints")
	}
	for _, c := range []Capability{CapAssignPickup, CapUpdatePickup, CapResolveComplaint, CapManageUsers, CapViewMetrics} {
		if !PolicyFor(RoleAdmin).Can(c) {
			t.Fatalf("admins must hold %s", c)
		}
	}
}

func TestPolicyForUnknownRole(t *testing.T) {
	policy := PolicyFor(Role("ghost"))
	if policy.HomeRoute != "/login" {
		t.Fatalf("unknown roles must land on /login, got %q", policy.HomeRoute)
	}
	if policy.Can(CapRequestPickup) {
		t.Fatal("unknown roles hold no capabilities")
	}
}

func TestHomeRoutes(t *testing.T) {
	cases := map[Role]string{
		RoleResident:  "/resident/dashboard",
		RoleCollector: "/collector/dashboard",
		RoleAdmin:     "/admin/dashboard",
	}
	for role, want := range cases {
		if got := PolicyFor(role).HomeRoute; got != want {
			t.Fatalf("%s home route = %q, want %q", role, got, want)
		}
	}
}

package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                              "/",
		"/metrics":                      "/metrics",
		"/v1/assets":                    "/v1/assets",
		"/v1/assets/01J0ABC":            "/v1/assets/:id",
		"/v1/assets?limit=10":           "/v1/assets",
		"/v1/members/user-1":            "/v1/members/:id",
		"/v1/admin/tenants":             "/v1/admin/tenants",
		"/v1/admin/tenants/t1":          "/v1/admin/tenants/:id",
		"/v1/admin/tenants/t1/suspend":  "/v1/admin/tenants/:id/suspend",
		"/v1/auth/login":                "/v1/auth/login",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}

package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                               "/",
		"/metrics":                       "/metrics",
		"/v1/auth/login":                 "/v1/auth/login",
		"/v1/users/profile":              "/v1/users/profile",
		"/v1/users/01ABC/roles":          "/v1/users/:id/roles",
		"/v1/roles/01ABC/permissions":    "/v1/roles/:id/permissions",
		"/v1/questions/01ABC/review":     "/v1/questions/:id/review",
		"/v1/questions?status=pending":   "/v1/questions",
		"/v1/questions/01ABC/review?x=1": "/v1/questions/:id/review",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}

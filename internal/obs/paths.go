package obs

import "strings"

// CanonicalPath collapses resource identifiers so metric label cardinality
// stays bounded. Unknown paths are passed through unchanged.
func CanonicalPath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	parts := strings.Split(strings.Trim(path, "/"), "/")
	switch {
	case len(parts) == 3 && parts[0] == "v1" && parts[1] == "assets":
		return "/v1/assets/:id"
	case len(parts) >= 3 && parts[0] == "v1" && parts[1] == "members":
		return "/v1/members/:id"
	case len(parts) == 4 && parts[0] == "v1" && parts[1] == "admin" && parts[2] == "tenants":
		return "/v1/admin/tenants/:id"
	case len(parts) == 5 && parts[0] == "v1" && parts[1] == "admin" && parts[2] == "tenants":
		return "/v1/admin/tenants/:id/" + parts[4]
	}
	return path
}

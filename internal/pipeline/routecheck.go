package pipeline

import "strings"

// RoutePathMentioned reports whether generated controller text refers to
// the route path, either literally or through its static segments
// ("/mentors/:id/register" matches text naming "mentor" and "register").
func RoutePathMentioned(text, routePath string) bool {
	if routePath == "" || strings.Contains(text, routePath) {
		return true
	}

	lower := strings.ToLower(text)
	found := false
	for _, seg := range strings.Split(routePath, "/") {
		if seg == "" || strings.HasPrefix(seg, ":") || strings.HasPrefix(seg, "{") {
			continue
		}
		seg = strings.ToLower(strings.NewReplacer("-", "", "_", "").Replace(seg))
		stem := strings.TrimSuffix(seg, "s")
		if stem == "" {
			stem = seg
		}
		if !strings.Contains(lower, stem) {
			return false
		}
		found = true
	}
	return found
}

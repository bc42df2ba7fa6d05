package matching

import "strings"

// MatchTemplate checks if path matches a trigger path template.
// Both are split on "/" and must have the same number of segments. A
// template segment starting with ':' matches any value and captures it;
// every other segment must match exactly.
//
// Examples:
//   - "/orders/:id/items" matches "/orders/42/items" with {"id": "42"}
//   - "/orders/:id/items" does not match "/orders/42/items/extra"
func MatchTemplate(template, path string) (map[string]string, bool) {
	tmplParts := strings.Split(template, "/")
	pathParts := strings.Split(path, "/")

	if len(tmplParts) != len(pathParts) {
		return nil, false
	}

	vars := make(map[string]string)
	for i, part := range tmplParts {
		if strings.HasPrefix(part, ":") {
			vars[part[1:]] = pathParts[i]
			continue
		}
		if part != pathParts[i] {
			return nil, false
		}
	}
	return vars, true
}

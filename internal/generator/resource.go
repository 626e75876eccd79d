package generator

import (
	"regexp"
	"strings"
)

var numericSegment = regexp.MustCompile(`^\d+$`)

// ResourceName derives a label for the resource an endpoint addresses: the
// last path segment that is not purely numeric, or "resource".
//
//	/api/users/123 -> users
//	/              -> resource
func ResourceName(endpoint string) string {
	segments := strings.Split(endpoint, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		s := segments[i]
		if s != "" && !numericSegment.MatchString(s) {
			return s
		}
	}
	return "resource"
}

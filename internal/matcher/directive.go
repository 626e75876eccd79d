package matcher

import (
	"fmt"
	"regexp"
	"strings"
)

// Directive strings understood on the expected side of a comparison.
const (
	DirectiveSkip            = "skip"
	DirectiveShouldNotBeNull = "should_not_be_null"
	DirectiveOnlyDigits      = "only_digits"
	DirectiveOnlyChars       = "only_chars"
	DirectiveMatchRegex      = "match_regex"
)

var (
	digitsPattern = regexp.MustCompile(`\d+`)
	charsPattern  = regexp.MustCompile(`[a-zA-Z]`)
	// The pattern is everything between the first and the last slash.
	regexDirectivePattern = regexp.MustCompile(`/(.*)/`)
)

// IsSkip reports whether v is the "skip" directive.
func IsSkip(v Value) bool {
	s, ok := v.Str()
	return ok && s == DirectiveSkip
}

// MatchRegex builds the directive string for pattern.
func MatchRegex(pattern string) string {
	return DirectiveMatchRegex + "/" + pattern + "/"
}

// compareScalar applies the directive rules of expected to actual. It returns
// (false, nil) on a plain mismatch and a non-nil error only when the directive
// itself is malformed.
func compareScalar(actual, expected Value) (bool, error) {
	s, ok := expected.Str()
	if !ok {
		return actual.Equal(expected), nil
	}

	switch {
	case strings.Contains(s, DirectiveMatchRegex):
		m := regexDirectivePattern.FindStringSubmatch(s)
		if m == nil {
			return false, fmt.Errorf("malformed %s directive %q: pattern must be enclosed in slashes", DirectiveMatchRegex, s)
		}
		re, err := regexp.Compile(m[1])
		if err != nil {
			return false, fmt.Errorf("invalid pattern in %q: %w", s, err)
		}
		return re.MatchString(actual.Text()), nil
	case s == DirectiveOnlyDigits:
		return digitsPattern.MatchString(actual.Text()), nil
	case s == DirectiveOnlyChars:
		return charsPattern.MatchString(actual.Text()), nil
	case s == DirectiveSkip:
		return true, nil
	case s == DirectiveShouldNotBeNull:
		return !actual.IsNull(), nil
	default:
		return actual.Equal(expected), nil
	}
}

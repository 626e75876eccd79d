// Package matcher compares decoded API responses against expected templates.
//
// A template is plain structured data (usually JSON or YAML) whose string
// leaves may be directives instead of literals:
//
//	skip                 anything matches, the subtree is not inspected
//	should_not_be_null   the value must be present and not null
//	only_digits          the string form must contain a digit sequence
//	only_chars           the string form must contain an ASCII letter
//	match_regex/<re>/    the string form must match <re> (unanchored)
//
// Keys that appear in the response but not in the template are reported as
// warnings and never fail a match. Keys required by the template but missing
// from the response fail it. Matching stops at the first violation, which is
// returned as a *MatchError.
//
// Sequences are compared position by position at any depth. Expected
// positions past the end of the actual sequence are compared against null,
// so only "skip" lets them pass.
//
// Directives other than "skip" are leaf checks. A nested object compared
// against one of them fails with a "have not found" error naming its first
// key, while a nested list is checked as a single value and passes
// should_not_be_null. Use "skip" to accept any object.
//
// Example:
//
//	expected := map[string]interface{}{
//	    "id":   "only_digits",
//	    "name": "should_not_be_null",
//	    "meta": "skip",
//	}
//	if err := matcher.Matches(body, expected); err != nil {
//	    return err
//	}
package matcher

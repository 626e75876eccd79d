package matcher

import (
	"fmt"
	"strconv"
	"sync"

	"apiauto/pkg/logging"
)

// Warning is a non-fatal diagnostic raised for a key present in the actual
// value but not mentioned by the expected template.
type Warning struct {
	Key  string
	Path string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s is not expected", w.Key)
}

// WarnFunc receives unexpected-key warnings.
type WarnFunc func(Warning)

// Option configures a Matcher.
type Option func(*Matcher)

// WithWarnFunc routes unexpected-key warnings to fn instead of the log.
func WithWarnFunc(fn WarnFunc) Option {
	return func(m *Matcher) {
		m.warn = fn
	}
}

// WithWarningCollector records unexpected-key warnings in c.
func WithWarningCollector(c *Collector) Option {
	return WithWarnFunc(c.Add)
}

// Collector accumulates warnings. It is safe for concurrent use.
type Collector struct {
	mu       sync.Mutex
	warnings []Warning
}

// Add records w.
func (c *Collector) Add(w Warning) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warnings = append(c.warnings, w)
}

// Warnings returns a copy of the recorded warnings.
func (c *Collector) Warnings() []Warning {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Warning, len(c.warnings))
	copy(out, c.warnings)
	return out
}

// Matcher compares actual response values against expected templates.
// A Matcher holds no per-call state and may be shared between goroutines
// as long as its WarnFunc is.
type Matcher struct {
	warn WarnFunc
}

// New creates a Matcher. Without options, warnings are logged at WARN level.
func New(opts ...Option) *Matcher {
	m := &Matcher{
		warn: func(w Warning) {
			logging.Warn("Matcher", "%s", w)
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var defaultMatcher = New()

// Matches checks actual against expected with the default Matcher.
func Matches(actual, expected interface{}) error {
	return defaultMatcher.Match(actual, expected)
}

// Match converts actual and expected into Values and compares them. The first
// violation is returned as a *MatchError; malformed directives and
// unconvertible inputs are returned as plain errors.
func (m *Matcher) Match(actual, expected interface{}) error {
	a, err := From(actual)
	if err != nil {
		return fmt.Errorf("actual value: %w", err)
	}
	e, err := From(expected)
	if err != nil {
		return fmt.Errorf("expected value: %w", err)
	}
	return m.MatchValues(a, e)
}

// MatchValues compares two already converted values.
//
// Two sequences are compared position by position in both directions, at
// any depth, so an actual sequence that is longer or shorter than the
// expected one fails unless the unmatched expected positions are "skip".
func (m *Matcher) MatchValues(actual, expected Value) error {
	if actual.Kind() == KindSequence && expected.Kind() == KindSequence {
		return m.sequence(actual, expected, "$")
	}
	return m.node(actual, expected, "", "$")
}

func (m *Matcher) sequence(actual, expected Value, path string) error {
	for i, item := range actual.Items() {
		if err := m.node(item, expected.Index(i), "", indexPath(path, i)); err != nil {
			return err
		}
	}
	for i := actual.Len(); i < expected.Len(); i++ {
		if err := m.node(Null(), expected.Index(i), "", indexPath(path, i)); err != nil {
			return err
		}
	}
	return nil
}

func (m *Matcher) node(actual, expected Value, key, path string) error {
	if actual.IsContainer() {
		return m.container(actual, expected, path)
	}
	return m.scalar(actual, expected, key, path)
}

func (m *Matcher) container(actual, expected Value, path string) error {
	if IsSkip(expected) {
		return nil
	}

	if actual.Kind() == KindSequence {
		if expected.Kind() != KindSequence {
			if expected.IsNull() && actual.Len() == 0 {
				return nil
			}
			return containerNotFound(path, actual, expected)
		}
		return m.sequence(actual, expected, path)
	}

	if expected.Kind() != KindMapping {
		if actual.Len() == 0 {
			if expected.IsNull() {
				return nil
			}
			return containerNotFound(path, actual, expected)
		}
		first := actual.Entries()[0]
		return notFoundIn(first.Key, keyPath(path, first.Key), first.Value, expected)
	}

	for _, entry := range actual.Entries() {
		childPath := keyPath(path, entry.Key)
		exp, ok := expected.Get(entry.Key)

		switch {
		case !ok:
			m.warn(Warning{Key: entry.Key, Path: childPath})
		case entry.Value.Kind() == KindMapping && !IsSkip(exp):
			if err := m.container(entry.Value, exp, childPath); err != nil {
				return err
			}
		case entry.Value.Kind() == KindSequence && exp.Kind() == KindSequence:
			if err := m.sequence(entry.Value, exp, childPath); err != nil {
				return err
			}
		default:
			if err := m.scalar(entry.Value, exp, entry.Key, childPath); err != nil {
				return err
			}
		}
	}

	for _, entry := range expected.Entries() {
		if _, ok := actual.Get(entry.Key); ok || IsSkip(entry.Value) {
			continue
		}
		return missingFromActual(entry.Key, keyPath(path, entry.Key), actual, entry.Value)
	}
	return nil
}

func (m *Matcher) scalar(actual, expected Value, key, path string) error {
	ok, err := compareScalar(actual, expected)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if !ok {
		return mismatch(key, path, actual, expected)
	}
	return nil
}

func keyPath(parent, key string) string {
	return parent + "." + key
}

func indexPath(parent string, i int) string {
	return parent + "[" + strconv.Itoa(i) + "]"
}

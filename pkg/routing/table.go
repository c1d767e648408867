// Package routing implements the route policy table mapping request
// paths to per-route timeouts.
//
// Rules are evaluated in configured order and the first match wins. A
// pattern matches a path exactly, or as a prefix when it ends in the
// "/*" wildcard. The table always carries a trailing catch-all rule
// with the default timeout, so Match is total: every path resolves to
// exactly one rule.
//
// Matching is case-sensitive and free of side effects. The table is
// immutable after construction and safe for concurrent use without
// locking.
package routing

import (
	"fmt"
	"strings"
	"time"
)

// Wildcard is the trailing marker that turns a pattern into a prefix
// match. "/api/*" matches "/api/generate" and "/api/" but not "/apix".
const Wildcard = "/*"

// CatchAllPattern is the pattern of the implicit default rule.
const CatchAllPattern = Wildcard

// Rule is a single route policy entry.
type Rule struct {
	// Pattern is an exact path, or a prefix pattern ending in "/*".
	Pattern string

	// Timeout bounds the entire outbound exchange for matching
	// requests, as a wall-clock deadline.
	Timeout time.Duration
}

// IsPrefix reports whether the rule matches by prefix.
func (r Rule) IsPrefix() bool {
	return strings.HasSuffix(r.Pattern, Wildcard)
}

// prefix returns the literal prefix of a wildcard pattern, including
// the trailing slash. For "/api/*" it returns "/api/"; for the
// catch-all "/*" it returns "/".
func (r Rule) prefix() string {
	return strings.TrimSuffix(r.Pattern, Wildcard) + "/"
}

// Matches reports whether the rule matches the given path.
func (r Rule) Matches(path string) bool {
	if !r.IsPrefix() {
		return path == r.Pattern
	}
	// A wildcard pattern also matches its own base path, so "/api/*"
	// covers "/api" as well as "/api/...".
	return path == strings.TrimSuffix(r.Pattern, Wildcard) || strings.HasPrefix(path, r.prefix())
}

// Table is an ordered route policy table. The zero value is not usable;
// construct with New.
type Table struct {
	rules []Rule
}

// New builds a table from the given rules, appending a catch-all rule
// with defaultTimeout as the final entry. Rules listed after their own
// catch-all would be unreachable, so an explicit catch-all anywhere but
// last is rejected.
func New(rules []Rule, defaultTimeout time.Duration) (*Table, error) {
	if defaultTimeout <= 0 {
		return nil, fmt.Errorf("default timeout must be positive, got %v", defaultTimeout)
	}

	ordered := make([]Rule, 0, len(rules)+1)
	for i, rule := range rules {
		if rule.Pattern == CatchAllPattern && i != len(rules)-1 {
			return nil, fmt.Errorf("catch-all rule at position %d shadows later rules", i)
		}
		if rule.Timeout <= 0 {
			// Routes may omit the timeout to inherit the default.
			rule.Timeout = defaultTimeout
		}
		ordered = append(ordered, rule)
	}

	if len(ordered) == 0 || ordered[len(ordered)-1].Pattern != CatchAllPattern {
		ordered = append(ordered, Rule{Pattern: CatchAllPattern, Timeout: defaultTimeout})
	}

	return &Table{rules: ordered}, nil
}

// Match returns the first rule whose pattern matches path. The trailing
// catch-all guarantees a match for every path.
func (t *Table) Match(path string) Rule {
	for _, rule := range t.rules {
		if rule.Matches(path) {
			return rule
		}
	}
	// Unreachable: the catch-all matches everything.
	return t.rules[len(t.rules)-1]
}

// Rules returns a copy of the table's rules in evaluation order,
// including the catch-all.
func (t *Table) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	copy(out, t.rules)
	return out
}

// Len returns the number of rules including the catch-all.
func (t *Table) Len() int {
	return len(t.rules)
}

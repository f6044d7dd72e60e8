// Package wildcard compiles the layer name patterns used by the drafting
// commands.
//
// A pattern is a regular expression in which `*` stands for any run of
// characters. Alternatives are separated by `|`. Matching is
// case-insensitive and must cover the whole name.
package wildcard

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidPattern indicates a pattern could not be compiled.
var ErrInvalidPattern = errors.New("invalid pattern")

// Pattern is a compiled wildcard pattern. The zero value matches nothing.
type Pattern struct {
	re  *regexp.Regexp
	src string
}

// Compile compiles a wildcard pattern. An empty pattern matches nothing.
func Compile(pattern string) (Pattern, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return Pattern{}, nil
	}

	expr := "(?i)^(?:" + strings.ReplaceAll(pattern, "*", ".*") + ")$"

	re, err := regexp.Compile(expr)
	if err != nil {
		return Pattern{}, fmt.Errorf("%w %q: %w", ErrInvalidPattern, pattern, err)
	}

	return Pattern{re: re, src: pattern}, nil
}

// MustCompile is like [Compile] but panics on error.
func MustCompile(pattern string) Pattern {
	p, err := Compile(pattern)
	if err != nil {
		panic(err)
	}

	return p
}

// Match reports whether name matches the pattern.
func (p Pattern) Match(name string) bool {
	if p.re == nil {
		return false
	}

	return p.re.MatchString(name)
}

// Empty reports whether the pattern matches nothing.
func (p Pattern) Empty() bool {
	return p.re == nil
}

func (p Pattern) String() string {
	return p.src
}

// Rule selects names that match Include but not Exclude.
type Rule struct {
	Include Pattern
	Exclude Pattern
}

// NewRule compiles an include and an exclude pattern.
func NewRule(include, exclude string) (Rule, error) {
	in, err := Compile(include)
	if err != nil {
		return Rule{}, err
	}

	ex, err := Compile(exclude)
	if err != nil {
		return Rule{}, err
	}

	return Rule{Include: in, Exclude: ex}, nil
}

// Match reports whether name is selected by the rule.
func (r Rule) Match(name string) bool {
	return r.Include.Match(name) && !r.Exclude.Match(name)
}

// LastSegment returns the part of an external reference layer name after
// the final `|`, or the name itself.
func LastSegment(name string) string {
	if i := strings.LastIndex(name, "|"); i >= 0 {
		return name[i+1:]
	}

	return name
}

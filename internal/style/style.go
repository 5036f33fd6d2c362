// Package style defines the fixed set of refinement style directives.
package style

import (
	"errors"
	"fmt"
	"strings"
)

// Style selects the tone the refined prompt should be steered toward.
type Style string

const (
	Balanced  Style = "balanced"
	Concise   Style = "concise"
	Detailed  Style = "detailed"
	Technical Style = "technical"
	Creative  Style = "creative"
)

var ErrUnknownStyle = errors.New("unknown style")

var directives = map[Style]string{
	Balanced:  "Keep the refined prompt balanced between brevity and completeness.",
	Concise:   "Make the refined prompt as short as possible without losing intent.",
	Detailed:  "Expand the refined prompt with explicit context, constraints, and expected output format.",
	Technical: "Phrase the refined prompt with precise technical vocabulary and unambiguous requirements.",
	Creative:  "Encourage open-ended, imaginative responses in the refined prompt.",
}

// All returns every style in identifier order.
func All() []Style {
	return []Style{Balanced, Concise, Creative, Detailed, Technical}
}

// Parse canonicalizes an external style string. Empty input selects
// Balanced; anything else unknown is an error, mirroring provider
// canonicalization.
func Parse(value string) (Style, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" {
		return Balanced, nil
	}
	s := Style(trimmed)
	if _, ok := directives[s]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStyle, value)
	}
	return s, nil
}

// Directive returns the instruction text appended to the system prompt.
func (s Style) Directive() string {
	return directives[s]
}

// String returns the style identifier.
func (s Style) String() string { return string(s) }

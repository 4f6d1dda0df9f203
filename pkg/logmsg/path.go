package logmsg

import (
	"encoding/json"
	"fmt"
	"strings"
)

// EntityPath identifies where in the entity hierarchy a message lands, like
// "color/camera/rgb/Detections".
type EntityPath struct {
	parts []string
}

// ParseEntityPath parses a slash-separated path. Leading and trailing
// slashes are tolerated; empty paths and empty segments are not.
func ParseEntityPath(s string) (EntityPath, error) {
	trimmed := strings.Trim(s, "/")
	if trimmed == "" {
		return EntityPath{}, fmt.Errorf("empty entity path %q", s)
	}
	parts := strings.Split(trimmed, "/")
	for _, part := range parts {
		if part == "" {
			return EntityPath{}, fmt.Errorf("entity path %q has an empty segment", s)
		}
	}
	return EntityPath{parts: parts}, nil
}

// MustEntityPath is ParseEntityPath for statically known paths; it panics on
// invalid input.
func MustEntityPath(s string) EntityPath {
	p, err := ParseEntityPath(s)
	if err != nil {
		panic(err)
	}
	return p
}

// NewEntityPath builds a path from individual segments.
func NewEntityPath(parts ...string) (EntityPath, error) {
	if len(parts) == 0 {
		return EntityPath{}, fmt.Errorf("empty entity path")
	}
	for _, part := range parts {
		if part == "" {
			return EntityPath{}, fmt.Errorf("entity path segment is empty")
		}
		if strings.Contains(part, "/") {
			return EntityPath{}, fmt.Errorf("entity path segment %q contains a slash", part)
		}
	}
	p := EntityPath{parts: make([]string, len(parts))}
	copy(p.parts, parts)
	return p, nil
}

// Child returns the path extended by one segment.
func (p EntityPath) Child(part string) (EntityPath, error) {
	return NewEntityPath(append(p.Parts(), part)...)
}

// Parts returns a copy of the path segments.
func (p EntityPath) Parts() []string {
	out := make([]string, len(p.parts))
	copy(out, p.parts)
	return out
}

// IsZero reports whether the path was never set.
func (p EntityPath) IsZero() bool { return len(p.parts) == 0 }

func (p EntityPath) String() string { return strings.Join(p.parts, "/") }

// MarshalJSON encodes the path as its string form.
func (p EntityPath) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON decodes a path from its string form.
func (p *EntityPath) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseEntityPath(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

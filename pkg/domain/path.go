package domain

import "strings"

// PathSeparator joins the keys of a Path in its string form.
const PathSeparator = "/"

// Path is the ordered list of child keys from the tree root down to a node.
// The root itself is addressed by the empty path.
type Path []string

// ParsePath parses the string form produced by Path.String.
// Empty segments are ignored, so "", "/" and "a//b" are all accepted.
func ParsePath(s string) Path {
	parts := strings.Split(s, PathSeparator)
	p := make(Path, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			p = append(p, part)
		}
	}
	return p
}

func (p Path) String() string {
	return strings.Join(p, PathSeparator)
}

// IsRoot reports whether p addresses the tree root.
func (p Path) IsRoot() bool {
	return len(p) == 0
}

// Last returns the final key, or "" for the root path.
func (p Path) Last() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Parent returns the path of the enclosing node. The root's parent is the root.
func (p Path) Parent() Path {
	return p.Up(1)
}

// Up drops n trailing keys, never going above the root.
func (p Path) Up(n int) Path {
	if n >= len(p) {
		return Path{}
	}
	return p[: len(p)-n : len(p)-n]
}

// Child returns a new path extended by key.
func (p Path) Child(key string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, key)
}

// Clone returns an independent copy of p.
func (p Path) Clone() Path {
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// Equal reports whether p and other address the same node.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

package refs

import (
	"regexp"
	"strconv"
	"strings"
)

// PathSegment is a single component of a reference path, e.g. `name` or
// `name[2]`. Index is -1 when no index is present.
type PathSegment struct {
	Name  string
	Index int
}

// HasIndex reports whether the segment carries an explicit index.
func (ps PathSegment) HasIndex() bool {
	return ps.Index != -1
}

// Path is the parsed interior of a bracket reference.
type Path struct {
	Head     string
	Segments []PathSegment
}

var (
	// headRe accepts block identifiers and display names: letters, digits,
	// underscore, hyphen and interior spaces. Leading/trailing whitespace is
	// rejected separately so expression-looking text never parses.
	headRe = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_ -]*$`)

	// segmentRe accepts one path segment with an optional numeric index,
	// e.g. `result` or `items[3]`.
	segmentRe = regexp.MustCompile(`^([A-Za-z0-9_]+)(?:\[([0-9]+)\])?$`)
)

// ParsePath validates and parses the interior of an angle-bracket span.
// The boolean result is false when the text is not a reference; callers
// must then leave the original span as literal text.
func ParsePath(interior string) (Path, bool) {
	if interior == "" {
		return Path{}, false
	}

	parts := strings.Split(interior, ".")
	head := parts[0]
	if head != strings.TrimSpace(head) || !headRe.MatchString(head) {
		return Path{}, false
	}

	p := Path{Head: head}
	for _, part := range parts[1:] {
		matches := segmentRe.FindStringSubmatch(part)
		if matches == nil {
			return Path{}, false
		}
		seg := PathSegment{Name: matches[1], Index: -1}
		if matches[2] != "" {
			idx, err := strconv.Atoi(matches[2])
			if err != nil {
				// Unreachable given the regex, kept for safety.
				return Path{}, false
			}
			seg.Index = idx
		}
		p.Segments = append(p.Segments, seg)
	}
	return p, true
}

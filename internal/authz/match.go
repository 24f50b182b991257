package authz

import (
	"strings"

	"github.com/AdoDeveloper/cpe-system-sub000/internal/db/models"
)

const paramPrefix = ":"

// ValidPattern reports whether a permission route pattern is well formed:
// it starts with "/", has no empty segments, and every parameter segment
// carries a name. Malformed patterns never match any path.
func ValidPattern(pattern string) bool {
	if pattern == "" || !strings.HasPrefix(pattern, "/") {
		return false
	}

	if pattern == "/" {
		return true
	}

	for _, seg := range strings.Split(pattern[1:], "/") {
		if seg == "" {
			return false
		}

		if seg == paramPrefix {
			return false // ":" without a name
		}
	}

	return true
}

// MatchRoute reports whether a request path matches a permission route
// pattern. Segment counts must be equal; literal segments match exactly,
// parameter segments (":id") match any non-empty value. Malformed patterns
// match nothing.
func MatchRoute(pattern, path string) bool {
	if !ValidPattern(pattern) {
		return false
	}

	patternSegs := splitPath(pattern)
	pathSegs := splitPath(path)

	if len(patternSegs) != len(pathSegs) {
		return false
	}

	for i, seg := range patternSegs {
		if strings.HasPrefix(seg, paramPrefix) {
			if pathSegs[i] == "" {
				return false
			}

			continue
		}

		if seg != pathSegs[i] {
			return false
		}
	}

	return true
}

// specificity ranks a pattern for tie-breaking between overlapping
// matches: read left to right, a literal segment outranks a parameter
// segment. The returned value only orders patterns of equal segment count,
// which is all that can match the same path.
func specificity(pattern string) uint64 {
	var rank uint64

	for _, seg := range splitPath(pattern) {
		rank <<= 1
		if !strings.HasPrefix(seg, paramPrefix) {
			rank |= 1
		}
	}

	return rank
}

// BestMatch returns the permission whose pattern matches the given method
// and path, choosing the most specific pattern when several match. The
// second return value reports whether any permission matched.
func BestMatch(perms []models.Permission, method, path string) (*models.Permission, bool) {
	var (
		best     *models.Permission
		bestRank uint64
	)

	for i := range perms {
		p := &perms[i]

		if !strings.EqualFold(p.Method, method) {
			continue
		}

		if !MatchRoute(p.Route, path) {
			continue
		}

		rank := specificity(p.Route)
		if best == nil || rank > bestRank {
			best = p
			bestRank = rank
		}
	}

	return best, best != nil
}

func splitPath(p string) []string {
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return nil
	}

	return strings.Split(p, "/")
}

package messaging

import (
	"fmt"
	"strings"
)

// ValidatePattern accepts dot-separated words where a whole segment may be
// "*" (exactly one word) or "#" (zero or more words).
func ValidatePattern(pattern string) error {
	if pattern == "" {
		return fmt.Errorf("routing pattern is required")
	}
	for _, seg := range strings.Split(pattern, ".") {
		if seg == "" {
			return fmt.Errorf("routing pattern %q has an empty segment", pattern)
		}
		if seg != "*" && seg != "#" && strings.ContainsAny(seg, "*#") {
			return fmt.Errorf("routing pattern %q: wildcard must be a whole segment", pattern)
		}
	}
	return nil
}

// Match reports whether routingKey satisfies pattern using topic-exchange rules.
func Match(pattern, routingKey string) bool {
	return matchSegments(strings.Split(pattern, "."), strings.Split(routingKey, "."))
}

func matchSegments(pattern, key []string) bool {
	for len(pattern) > 0 {
		switch pattern[0] {
		case "#":
			rest := pattern[1:]
			if len(rest) == 0 {
				return true
			}
			for i := 0; i <= len(key); i++ {
				if matchSegments(rest, key[i:]) {
					return true
				}
			}
			return false
		case "*":
			if len(key) == 0 {
				return false
			}
		default:
			if len(key) == 0 || pattern[0] != key[0] {
				return false
			}
		}
		pattern = pattern[1:]
		key = key[1:]
	}
	return len(key) == 0
}

// Package safety provides filtering, confirmation, and audit logging for
// actions sent to the workflow platform.
package safety

import "path"

// Filter controls which action names may be sent, using an allowlist and a
// denylist of glob patterns (as understood by path.Match). Matching is
// case-sensitive because the platform's action names are.
//
// Rules:
//   - If both lists are empty (or nil), every action is allowed.
//   - Denylist always takes priority over the allowlist.
//   - If a non-empty allowlist is present, an action must match at least one
//     allowlist pattern to be permitted (after the denylist check).
type Filter struct {
	allowlist []string
	denylist  []string
}

// NewFilter constructs a Filter from the provided allowlist and denylist
// pattern slices. Either or both may be nil or empty.
func NewFilter(allowlist, denylist []string) *Filter {
	return &Filter{
		allowlist: append([]string(nil), allowlist...),
		denylist:  append([]string(nil), denylist...),
	}
}

// IsAllowed reports whether action is permitted by this filter. A nil
// Filter allows everything.
func (f *Filter) IsAllowed(action string) bool {
	if f == nil {
		return true
	}

	if matchAny(f.denylist, action) {
		return false
	}

	if len(f.allowlist) == 0 {
		return true
	}

	return matchAny(f.allowlist, action)
}

// matchAny reports whether name matches at least one pattern. Malformed
// patterns never match.
func matchAny(patterns []string, name string) bool {
	for _, pattern := range patterns {
		if matched, err := path.Match(pattern, name); err == nil && matched {
			return true
		}
	}
	return false
}

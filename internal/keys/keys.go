package keys

import "strings"

// InternalNameFromDisplay produces the canonical internal key for a
// display name: trimmed, lower-cased, spaces replaced with underscores.
// Building and unit lookups are keyed this way so config files may use
// human-readable names ("First Church" -> "first_church").
func InternalNameFromDisplay(name string) string {
	s := strings.TrimSpace(name)
	if s == "" {
		return ""
	}
	return strings.ToLower(strings.ReplaceAll(s, " ", "_"))
}

package claude

import "strings"

// FilterEnv returns a copy of environ without the variables named in unset.
// environ is never modified.
func FilterEnv(environ []string, unset []string) []string {
	filtered := make([]string, 0, len(environ))
	for _, e := range environ {
		name, _, _ := strings.Cut(e, "=")
		if containsName(unset, name) {
			continue
		}
		filtered = append(filtered, e)
	}
	return filtered
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

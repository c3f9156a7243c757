package bootstrap

import (
	"fmt"
	"os"
	"strings"
)

// The two directives the control channel needs. Stock torrc files ship
// them commented out; we uncomment them in place and append them when the
// file never mentions them.
var controlDirectives = []string{
	"ControlPort 9051",
	"CookieAuthentication 1",
}

// EnsureControlDirectives enables the control-channel directives in the
// daemon configuration file at path. The edit is idempotent: directives
// already enabled are left untouched, commented copies are uncommented
// once, and everything else in the file is preserved byte for byte.
// Returns whether the file was modified.
func EnsureControlDirectives(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read daemon configuration: %w", err)
	}

	updated, changed := ToggleDirectives(string(data), controlDirectives)
	if !changed {
		return false, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	if err := os.WriteFile(path, []byte(updated), info.Mode().Perm()); err != nil {
		return false, fmt.Errorf("write daemon configuration: %w", err)
	}
	return true, nil
}

// ToggleDirectives uncomment-or-appends each directive in content and
// reports whether anything changed. Pure so the edit logic is testable
// without touching a real configuration file.
func ToggleDirectives(content string, directives []string) (string, bool) {
	lines := strings.Split(content, "\n")
	changed := false

	for _, directive := range directives {
		found := false
		for i, line := range lines {
			trimmed := strings.TrimSpace(line)
			if trimmed == directive {
				found = true
				break
			}
			if isCommentedDirective(trimmed, directive) {
				lines[i] = directive
				found = true
				changed = true
				break
			}
		}
		if !found {
			if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
				lines[len(lines)-1] = directive
				lines = append(lines, "")
			} else {
				lines = append(lines, directive)
			}
			changed = true
		}
	}

	return strings.Join(lines, "\n"), changed
}

func isCommentedDirective(trimmed, directive string) bool {
	if !strings.HasPrefix(trimmed, "#") {
		return false
	}
	rest := strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
	return rest == directive
}

package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var handleRegex = regexp.MustCompile(`^[a-z0-9_-]{3,32}$`)

var reservedHandles = map[string]struct{}{
	"admin":         {},
	"api":           {},
	"me":            {},
	"settings":      {},
	"setups":        {},
	"drafts":        {},
	"items":         {},
	"tags":          {},
	"users":         {},
	"notifications": {},
	"bookmarks":     {},
	"reports":       {},
	"ws":            {},
	"swagger":       {},
	"metrics":       {},
	"health":        {},
	"login":         {},
	"signup":        {},
}

// ValidateHandle checks a public user handle for format and reserved names.
func ValidateHandle(handle string) error {
	if !handleRegex.MatchString(handle) {
		return fmt.Errorf("handle must be 3-32 characters of lowercase letters, numbers, '_' or '-'")
	}

	if strings.HasPrefix(handle, "-") || strings.HasSuffix(handle, "-") {
		return fmt.Errorf("handle cannot start or end with a hyphen")
	}

	if _, exists := reservedHandles[handle]; exists {
		return fmt.Errorf("handle is reserved")
	}

	return nil
}

// Package validation holds the token validators shared by the object
// store, the loaders and the shell.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// Object and zone names: letters, digits, dot, dash, underscore; must
// start with a letter or digit.
var namePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// maxNameLength bounds object names so table output stays readable.
const maxNameLength = 63

// ValidateObjectName checks a catalog or pool name.
func ValidateObjectName(name string) error {
	if name == "" {
		return fmt.Errorf("empty object name")
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("object name %q exceeds %d characters", name, maxNameLength)
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("invalid object name %q", name)
	}
	return nil
}

// ValidateZoneName checks a zone token.
func ValidateZoneName(name string) error {
	if name == "" {
		return fmt.Errorf("empty zone name")
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("invalid zone name %q", name)
	}
	return nil
}

// ValidateFQDN checks a fully qualified domain name.
func ValidateFQDN(name string) error {
	name = strings.TrimSuffix(name, ".")
	if name == "" || len(name) > 253 {
		return fmt.Errorf("invalid fqdn %q", name)
	}
	for _, label := range strings.Split(name, ".") {
		if label == "" || len(label) > 63 {
			return fmt.Errorf("invalid fqdn %q", name)
		}
		if !namePattern.MatchString(label) || strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return fmt.Errorf("invalid fqdn %q", name)
		}
	}
	return nil
}

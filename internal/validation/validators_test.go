package validation

import (
	"strings"
	"testing"
)

func TestValidateObjectName(t *testing.T) {
	valid := []string{"web", "web-server", "dmz.net", "a1_b2", "0start"}
	for _, name := range valid {
		if err := ValidateObjectName(name); err != nil {
			t.Errorf("ValidateObjectName(%q) = %v, want nil", name, err)
		}
	}

	invalid := []string{"", "-lead", "has space", "semi;colon", strings.Repeat("x", 64)}
	for _, name := range invalid {
		if err := ValidateObjectName(name); err == nil {
			t.Errorf("ValidateObjectName(%q) = nil, want error", name)
		}
	}
}

func TestValidateFQDN(t *testing.T) {
	valid := []string{"example.com", "crm.example.com.", "a.b.c.d.example"}
	for _, name := range valid {
		if err := ValidateFQDN(name); err != nil {
			t.Errorf("ValidateFQDN(%q) = %v, want nil", name, err)
		}
	}

	invalid := []string{"", ".", "-bad.example.com", "bad-.example.com", "a..b"}
	for _, name := range invalid {
		if err := ValidateFQDN(name); err == nil {
			t.Errorf("ValidateFQDN(%q) = nil, want error", name)
		}
	}
}

package sqlguard

import (
	"strings"
	"testing"
)

func TestValidateTableName_Accepts(t *testing.T) {
	valid := []string{
		"users",
		"order_items",
		"_internal",
		"public.users",
		"analytics.events$raw",
		"T1",
	}
	for _, name := range valid {
		if err := ValidateTableName(name); err != nil {
			t.Errorf("ValidateTableName(%q) = %v, want nil", name, err)
		}
	}
}

func TestValidateTableName_Rejects(t *testing.T) {
	invalid := []string{
		"",
		"users; DROP TABLE users",
		"users--",
		"users' OR '1'='1",
		`users"`,
		"1users",
		"us ers",
		"a.b.c",
		strings.Repeat("x", MaxTableNameLength+1),
	}
	for _, name := range invalid {
		if err := ValidateTableName(name); err == nil {
			t.Errorf("ValidateTableName(%q) = nil, want error", name)
		}
	}
}

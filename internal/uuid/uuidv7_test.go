package uuid

import (
	"testing"

	googleuuid "github.com/google/uuid"
)

func TestNew(t *testing.T) {
	t.Run("generates_version_7", func(t *testing.T) {
		id := New()
		parsed, err := googleuuid.Parse(id)
		if err != nil {
			t.Fatalf("New() produced unparseable id %q: %v", id, err)
		}
		if parsed.Version() != 7 {
			t.Errorf("expected version 7, got %d", parsed.Version())
		}
	})

	t.Run("ids_are_unique", func(t *testing.T) {
		seen := make(map[string]struct{}, 1000)
		for i := 0; i < 1000; i++ {
			id := New()
			if _, ok := seen[id]; ok {
				t.Fatalf("duplicate id %q after %d iterations", id, i)
			}
			seen[id] = struct{}{}
		}
	})
}

func TestParseAndIsValid(t *testing.T) {
	t.Run("canonicalizes_uppercase", func(t *testing.T) {
		got, err := Parse("0190F3E5-6A1B-7C2D-8E3F-4A5B6C7D8E9F")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "0190f3e5-6a1b-7c2d-8e3f-4a5b6c7d8e9f" {
			t.Errorf("unexpected canonical form %q", got)
		}
	})

	t.Run("rejects_section_names", func(t *testing.T) {
		if IsValid("monthly") {
			t.Error("expected plain section name to be invalid")
		}
		if _, err := Parse("monthly"); err == nil {
			t.Error("expected parse error for plain section name")
		}
	})
}

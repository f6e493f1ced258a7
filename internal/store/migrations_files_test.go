package store

import (
	"os"
	"strings"
	"testing"
)

// Every up migration needs a matching down so a botched deploy can roll back.
func TestMigrationFilesPairUpAndDown(t *testing.T) {
	entries, err := os.ReadDir("../../db/migrations")
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, entry := range entries {
		name := entry.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected file %s in migrations dir", name)
		}
	}

	if len(ups) == 0 {
		t.Fatal("no up migrations found")
	}
	for base := range ups {
		if !downs[base] {
			t.Errorf("migration %s has no down file", base)
		}
	}
	for base := range downs {
		if !ups[base] {
			t.Errorf("down file %s has no up migration", base)
		}
	}
}

func TestMigrationVersionsAreUnique(t *testing.T) {
	entries, err := os.ReadDir("../../db/migrations")
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}

	seen := map[string]string{}
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		version, _, ok := strings.Cut(name, "_")
		if !ok {
			t.Errorf("migration %s is missing a numeric version prefix", name)
			continue
		}
		if prev, dup := seen[version]; dup {
			t.Errorf("version %s used by both %s and %s", version, prev, name)
		}
		seen[version] = name
	}
}

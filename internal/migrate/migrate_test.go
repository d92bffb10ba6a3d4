// Tests for the migrate package covering [Registry.Run] sequencing,
// [Registry.NeedsMigration], and duplicate registration panics.

package migrate

import (
	"fmt"
	"testing"
)

// appendMigration returns a Migration that appends marker to the data,
// so tests can verify application order.
func appendMigration(version int, marker string) Migration {
	return Migration{
		Version:     version,
		Description: "append " + marker,
		Upgrade: func(data []byte) ([]byte, error) {
			return append(data, []byte(marker)...), nil
		},
	}
}

func TestRunAppliesInOrder(t *testing.T) {
	r := &Registry{CurrentVersion: 3}
	// Registered out of order; Run must sort by version.
	r.Register(appendMigration(3, "c"))
	r.Register(appendMigration(2, "b"))

	data, version, err := r.Run([]byte("a"), 1)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if version != 3 {
		t.Errorf("version = %d, want 3", version)
	}
	if string(data) != "abc" {
		t.Errorf("data = %q, want %q", data, "abc")
	}
}

func TestRunSkipsApplied(t *testing.T) {
	r := &Registry{CurrentVersion: 3}
	r.Register(appendMigration(2, "b"))
	r.Register(appendMigration(3, "c"))

	data, version, err := r.Run([]byte("x"), 2)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if version != 3 {
		t.Errorf("version = %d, want 3", version)
	}
	if string(data) != "xc" {
		t.Errorf("data = %q, want %q", data, "xc")
	}
}

func TestRunPropagatesError(t *testing.T) {
	r := &Registry{CurrentVersion: 2}
	r.Register(Migration{
		Version:     2,
		Description: "always fails",
		Upgrade: func(data []byte) ([]byte, error) {
			return nil, fmt.Errorf("broken")
		},
	})

	if _, _, err := r.Run([]byte("x"), 1); err == nil {
		t.Fatal("expected error from failing migration")
	}
}

func TestNeedsMigration(t *testing.T) {
	r := &Registry{CurrentVersion: 2}
	r.Register(appendMigration(2, "b"))

	if !r.NeedsMigration(1) {
		t.Error("NeedsMigration(1) = false, want true")
	}
	if r.NeedsMigration(2) {
		t.Error("NeedsMigration(2) = true, want false")
	}
	// Future versions still report true so callers can normalize.
	if !r.NeedsMigration(3) {
		t.Error("NeedsMigration(3) = false, want true")
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate version")
		}
	}()
	r := &Registry{CurrentVersion: 2}
	r.Register(appendMigration(2, "b"))
	r.Register(appendMigration(2, "b2"))
}

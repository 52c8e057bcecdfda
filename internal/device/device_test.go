package device

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func TestIDIsStableAcrossCalls(t *testing.T) {
	dir := t.TempDir()

	first, err := ID(dir)
	if err != nil {
		t.Fatalf("ID failed: %v", err)
	}
	if _, err := uuid.Parse(first); err != nil {
		t.Fatalf("generated id %q is not a UUID: %v", first, err)
	}

	second, err := ID(dir)
	if err != nil {
		t.Fatalf("second ID failed: %v", err)
	}
	if second != first {
		t.Errorf("id changed between calls: %q then %q", first, second)
	}
}

func TestIDReplacesCorruptFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, IDFileName), []byte("not-a-uuid"), 0o600); err != nil {
		t.Fatal(err)
	}

	id, err := ID(dir)
	if err != nil {
		t.Fatalf("ID failed: %v", err)
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("replacement id %q is not a UUID", id)
	}
}

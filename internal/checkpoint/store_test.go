package checkpoint

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStore_Read_MissingKey(t *testing.T) {
	store := NewStore(t.TempDir())

	cursor, err := store.Read("C024BE91L")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if cursor != "" {
		t.Errorf("Expected empty cursor for missing key, got %q", cursor)
	}
}

func TestStore_WriteRead_RoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())

	if err := store.Write("C024BE91L", "1609459200.000200"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	cursor, err := store.Read("C024BE91L")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if cursor != "1609459200.000200" {
		t.Errorf("Expected cursor 1609459200.000200, got %q", cursor)
	}
}

func TestStore_Write_Overwrites(t *testing.T) {
	store := NewStore(t.TempDir())

	if err := store.Write("C024BE91L", "100"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := store.Write("C024BE91L", "200"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	cursor, err := store.Read("C024BE91L")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if cursor != "200" {
		t.Errorf("Expected cursor 200 after overwrite, got %q", cursor)
	}
}

func TestStore_Write_SanitizesProjectKey(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	if err := store.Write("group/project", "7"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "group-project.txt")); err != nil {
		t.Errorf("Expected checkpoint file group-project.txt: %v", err)
	}

	cursor, err := store.Read("group/project")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if cursor != "7" {
		t.Errorf("Expected cursor 7, got %q", cursor)
	}
}

func TestStore_Read_TrimsWhitespace(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	// Hand-edited checkpoint files often carry a trailing newline.
	if err := os.WriteFile(filepath.Join(dir, "C024BE91L.txt"), []byte("1609459200.000200\n"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cursor, err := store.Read("C024BE91L")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if cursor != "1609459200.000200" {
		t.Errorf("Expected trimmed cursor, got %q", cursor)
	}
}

func TestStore_Write_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "checkpoints")
	store := NewStore(dir)

	if err := store.Write("C024BE91L", "1"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("Expected checkpoint directory to be created: %v", err)
	}
}

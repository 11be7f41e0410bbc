package db

import (
	"path/filepath"
	"testing"
)

func TestOpenMemory(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	defer d.Close()

	var count int
	if err := d.QueryRow("SELECT COUNT(*) FROM chunks").Scan(&count); err != nil {
		t.Fatalf("chunks table: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
	if d.Path() != ":memory:" {
		t.Errorf("Path() = %q", d.Path())
	}
}

func TestMigrateIdempotent(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	defer d.Close()

	// Running migrate again should not fail.
	if err := d.migrate(); err != nil {
		t.Fatalf("second migrate() error: %v", err)
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)
	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if _, err := d.Exec(`INSERT INTO chunks (collection, id, content_hash, text, vector) VALUES ('c', 'a', 'h', 't', x'00000000')`); err != nil {
		t.Fatalf("insert: %v", err)
	}
	d.Close()

	d, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer d.Close()
	var count int
	if err := d.QueryRow("SELECT COUNT(*) FROM chunks").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("count after reopen = %d, want 1", count)
	}
}

package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNeedsReindex(t *testing.T) {
	rec := &FileRecord{Path: "/a", Size: 10, MTime: 1700000000.5}
	tests := []struct {
		name string
		sig  Signature
		rec  *FileRecord
		want bool
	}{
		{"no record", Signature{Size: 10, MTime: 1700000000.5}, nil, true},
		{"unchanged", Signature{Size: 10, MTime: 1700000000.5}, rec, false},
		{"sub-microsecond jitter", Signature{Size: 10, MTime: 1700000000.5000004}, rec, false},
		{"size changed", Signature{Size: 11, MTime: 1700000000.5}, rec, true},
		{"mtime changed", Signature{Size: 10, MTime: 1700000001.5}, rec, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NeedsReindex(tt.sig, tt.rec); got != tt.want {
				t.Errorf("NeedsReindex() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatAndHashFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	mtime := time.Unix(1700000000, 250000000)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}

	sig, err := Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if sig.Size != 5 || math.Abs(sig.MTime-1700000000.25) > 1e-6 {
		t.Errorf("Stat() = %+v", sig)
	}

	got, err := HashFile(path)
	if err != nil {
		t.Fatal(err)
	}
	sum := sha256.Sum256([]byte("hello"))
	if want := hex.EncodeToString(sum[:]); got != want {
		t.Errorf("HashFile() = %s, want %s", got, want)
	}

	if _, err := HashFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestManifest_LoadMissing(t *testing.T) {
	m, err := LoadManifest(filepath.Join(t.TempDir(), "nope", "c.manifest.json"))
	if err != nil {
		t.Fatalf("LoadManifest() error: %v", err)
	}
	if m.Version != 1 || len(m.Files) != 0 {
		t.Errorf("got %+v", m)
	}
}

func TestManifest_LoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.manifest.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadManifest(path); err == nil {
		t.Fatal("expected error for corrupt manifest")
	}
}

func TestManifest_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := ManifestPath(dir, "repo")
	if want := filepath.Join(dir, "_state", "repo.manifest.json"); path != want {
		t.Errorf("ManifestPath() = %s, want %s", path, want)
	}

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatal(err)
	}
	m.Record(FileRecord{Path: "/src/a.c", Size: 3, MTime: 1.5, ContentHash: "h1", ChunkCount: 2})
	m.Record(FileRecord{Path: "/src/b.c", Size: 4, MTime: 2.5, ContentHash: "h2", ChunkCount: 5})
	if err := m.Save(); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"version": 1`, `"files"`, `"contentHash": "h1"`, `"chunkCount": 5`, `"mtime": 1.5`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("manifest JSON missing %s:\n%s", key, data)
		}
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("state dir holds %d entries, want only the manifest", len(entries))
	}

	loaded, err := LoadManifest(path)
	if err != nil {
		t.Fatal(err)
	}
	if rec := loaded.Get("/src/b.c"); rec == nil || rec.ContentHash != "h2" || rec.ChunkCount != 5 || rec.MTime != 2.5 {
		t.Errorf("loaded record = %+v", rec)
	}
	if loaded.TotalChunks() != 7 {
		t.Errorf("TotalChunks() = %d, want 7", loaded.TotalChunks())
	}
	if got := loaded.Paths(); len(got) != 2 || got[0] != "/src/a.c" {
		t.Errorf("Paths() = %v", got)
	}
}

func TestManifest_HashInUse(t *testing.T) {
	m, _ := LoadManifest(filepath.Join(t.TempDir(), "m.json"))
	m.Record(FileRecord{Path: "/a", ContentHash: "same"})
	m.Record(FileRecord{Path: "/b", ContentHash: "same"})

	if !m.HashInUse("same", "/a") {
		t.Error("hash shared with /b should be in use")
	}
	m.Remove("/b")
	if m.HashInUse("same", "/a") {
		t.Error("only /a references the hash")
	}
	if !m.HashInUse("same", "") {
		t.Error("/a still references the hash")
	}
	m.Clear()
	if len(m.Files) != 0 {
		t.Error("Clear() left records")
	}
}

func TestAcquireLock(t *testing.T) {
	dir := t.TempDir()

	first, err := AcquireLock(dir, "repo")
	if err != nil {
		t.Fatalf("first AcquireLock() error: %v", err)
	}

	if _, err := AcquireLock(dir, "repo"); !errors.Is(err, ErrLocked) {
		t.Fatalf("second AcquireLock() error = %v, want ErrLocked", err)
	}

	other, err := AcquireLock(dir, "other")
	if err != nil {
		t.Fatalf("lock on another collection: %v", err)
	}
	defer other.Release()

	if err := first.Release(); err != nil {
		t.Fatal(err)
	}
	again, err := AcquireLock(dir, "repo")
	if err != nil {
		t.Fatalf("AcquireLock() after release: %v", err)
	}
	again.Release()
}

func git(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", append([]string{"-C", dir, "-c", "commit.gpgsign=false"}, args...)...)
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com")
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
}

func TestGitChangedFiles(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	root := t.TempDir()
	write := func(rel, content string) {
		p := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	git(t, root, "init", "-q")
	write("keep.c", "int a;")
	write("gone.c", "int b;")
	write("src/mod.c", "int c;")
	git(t, root, "add", ".")
	git(t, root, "commit", "-q", "-m", "one")

	write("src/mod.c", "int c2;")
	if err := os.Remove(filepath.Join(root, "gone.c")); err != nil {
		t.Fatal(err)
	}
	git(t, root, "add", "-A")
	git(t, root, "commit", "-q", "-m", "two")

	changes := GitChangedFiles(context.Background(), root, "HEAD~1..HEAD", nil)
	if len(changes.Existing) != 1 || changes.Existing[0] != filepath.Join(root, "src", "mod.c") {
		t.Errorf("Existing = %v", changes.Existing)
	}
	if len(changes.Deleted) != 1 || changes.Deleted[0] != filepath.Join(root, "gone.c") {
		t.Errorf("Deleted = %v", changes.Deleted)
	}
}

func TestGitChangedFiles_RenameRetiresOldPath(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	root := t.TempDir()
	body := "int shared_value = 1;\nint other_value = 2;\nint third_value = 3;\n"
	if err := os.WriteFile(filepath.Join(root, "old.c"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	git(t, root, "init", "-q")
	git(t, root, "add", ".")
	git(t, root, "commit", "-q", "-m", "one")

	git(t, root, "mv", "old.c", "new.c")
	if err := os.WriteFile(filepath.Join(root, "new.c"), []byte(body+"int fourth_value = 4;\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	git(t, root, "add", "-A")
	git(t, root, "commit", "-q", "-m", "rename")

	changes := GitChangedFiles(context.Background(), root, "HEAD~1..HEAD", nil)
	if len(changes.Existing) != 1 || changes.Existing[0] != filepath.Join(root, "new.c") {
		t.Errorf("Existing = %v", changes.Existing)
	}
	if len(changes.Deleted) != 1 || changes.Deleted[0] != filepath.Join(root, "old.c") {
		t.Errorf("Deleted = %v, want the old path", changes.Deleted)
	}
}

func TestParseNameStatus(t *testing.T) {
	out := []byte("M\x00src/a.go\x00D\x00dir with space/b.md\x00A\x00c.txt\x00")
	got := parseNameStatus(out)
	want := []nameStatus{
		{status: "M", path: "src/a.go"},
		{status: "D", path: "dir with space/b.md"},
		{status: "A", path: "c.txt"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d entries, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if parseNameStatus(nil) != nil {
		t.Error("empty output should yield no entries")
	}
}

func TestGitChangedFiles_FailureIsEmpty(t *testing.T) {
	changes := GitChangedFiles(context.Background(), t.TempDir(), "HEAD~1..HEAD", nil)
	if len(changes.Existing) != 0 || len(changes.Deleted) != 0 {
		t.Errorf("expected no changes outside a repository, got %+v", changes)
	}
}

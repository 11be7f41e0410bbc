package walker

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"
)

// testdataDir returns the absolute path to the testdata/sample_project directory.
func testdataDir(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("unable to determine test file location")
	}
	root := filepath.Join(filepath.Dir(filename), "..", "..", "testdata", "sample_project")
	abs, err := filepath.Abs(root)
	if err != nil {
		t.Fatalf("resolve testdata path: %v", err)
	}
	if _, err := os.Stat(abs); os.IsNotExist(err) {
		t.Fatalf("testdata dir does not exist: %s", abs)
	}
	return abs
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func collect(t *testing.T, cfg Config) []FileInfo {
	t.Helper()
	w, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	var files []FileInfo
	for f := range w.Files() {
		files = append(files, f)
	}
	return files
}

func relPaths(files []FileInfo) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.RelPath
	}
	sort.Strings(out)
	return out
}

func TestWalk_BasicTraversal(t *testing.T) {
	files := collect(t, Config{RootDir: testdataDir(t)})

	expected := map[string]bool{"main.go": false, "auth/middleware.go": false}
	for _, f := range files {
		if _, ok := expected[f.RelPath]; ok {
			expected[f.RelPath] = true
		}
		if !filepath.IsAbs(f.Path) {
			t.Errorf("Path %q is not absolute", f.Path)
		}
		if f.Size <= 0 {
			t.Errorf("Size for %s is %d", f.RelPath, f.Size)
		}
		if f.ModTime.IsZero() {
			t.Errorf("ModTime for %s is zero", f.RelPath)
		}
		if f.Category != CategoryCode {
			t.Errorf("Category for %s = %q, want code", f.RelPath, f.Category)
		}
	}
	for name, found := range expected {
		if !found {
			t.Errorf("expected file %q not found in walk results", name)
		}
	}
}

func TestWalk_IsLazy(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a.c", "b.c", "c.c", "d.c"} {
		writeFile(t, root, name, "int x;")
	}

	w, err := New(Config{RootDir: root})
	if err != nil {
		t.Fatal(err)
	}
	n := 0
	for range w.Files() {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("expected early stop after 2 files, got %d", n)
	}
}

func TestWalk_CategoriesAndUnsupported(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/net.cpp", "void f() {}")
	writeFile(t, root, "CMakeLists.txt", "project(x)")
	writeFile(t, root, "README.md", "# hi")
	writeFile(t, root, "notes.txt", "some notes")
	writeFile(t, root, "doc/index.html", "<p>x</p>")
	writeFile(t, root, "image.png", "not really")
	writeFile(t, root, "data.bin", "bytes")

	got := map[string]Category{}
	for _, f := range collect(t, Config{RootDir: root}) {
		got[f.RelPath] = f.Category
	}
	want := map[string]Category{
		"src/net.cpp":    CategoryCode,
		"CMakeLists.txt": CategoryCode,
		"README.md":      CategoryMarkdown,
		"notes.txt":      CategoryProse,
		"doc/index.html": CategoryMarkup,
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s: category %q, want %q", k, got[k], v)
		}
	}
}

func TestWalk_ExtraExtensions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "api.thrift", "service X {}")
	writeFile(t, root, "main.c", "int main;")

	files := collect(t, Config{RootDir: root, Classifier: NewClassifier([]string{"thrift"})})
	paths := relPaths(files)
	if len(paths) != 2 || paths[0] != "api.thrift" {
		t.Errorf("expected api.thrift to be picked up, got %v", paths)
	}
}

func TestWalk_SkipsBinaryText(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "readme.md", "# Hello")
	writeFile(t, root, "blob.c", "int\x00x;")

	paths := relPaths(collect(t, Config{RootDir: root}))
	if len(paths) != 1 || paths[0] != "readme.md" {
		t.Errorf("expected only readme.md, got %v", paths)
	}
}

func TestWalk_DefaultIgnoredDirs(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"node_modules", ".git", "build", "third_party", "cmake-build-debug", "__pycache__"} {
		writeFile(t, root, dir+"/file.c", "int x;")
	}
	writeFile(t, root, "app.c", "int y;")

	ignore := NewIgnoreMatcher(root, nil)
	paths := relPaths(collect(t, Config{RootDir: root, Ignore: ignore.Func()}))
	if len(paths) != 1 || paths[0] != "app.c" {
		t.Errorf("expected only app.c, got %v", paths)
	}
}

func TestWalk_GitignoreAndExtra(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "*.log.txt\nsecret.txt\ngen/\n!gen/keep.h\n")
	writeFile(t, root, "app.c", "int main;")
	writeFile(t, root, "debug.log.txt", "log data")
	writeFile(t, root, "secret.txt", "password")
	writeFile(t, root, "gen/out.c", "int z;")
	writeFile(t, root, "docs/generated/api.md", "# api")
	writeFile(t, root, "docs/guide.md", "# guide")

	ignore := NewIgnoreMatcher(root, []string{"docs/generated/**"})
	paths := relPaths(collect(t, Config{RootDir: root, Ignore: ignore.Func()}))
	want := []string{"app.c", "docs/guide.md"}
	if len(paths) != len(want) {
		t.Fatalf("got %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %q, want %q", i, paths[i], want[i])
		}
	}
}

func TestIgnoreMatcher_AncestorDirectories(t *testing.T) {
	m := NewPatternMatcher([]string{"build/", "/top.c", "*.o", "!keep.o"})

	tests := []struct {
		path  string
		isDir bool
		want  bool
	}{
		{"build", true, true},
		{"build/x/y.c", false, true},
		{"src/build/y.c", false, true},
		{"build", false, false},
		{"top.c", false, true},
		{"src/top.c", false, false},
		{"a/b.o", false, true},
		{"a/keep.o", false, false},
		{"src/main.c", false, false},
	}
	for _, tt := range tests {
		if got := m.Match(tt.path, tt.isDir); got != tt.want {
			t.Errorf("Match(%q, %v) = %v, want %v", tt.path, tt.isDir, got, tt.want)
		}
	}
}

func TestAccept(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/a.cpp", "int a;")
	writeFile(t, root, "build/b.cpp", "int b;")
	writeFile(t, root, "logo.png", "png")
	writeFile(t, root, "blob.c", "int\x00x;")

	w, err := New(Config{RootDir: root, Ignore: NewIgnoreMatcher(root, nil).Func()})
	if err != nil {
		t.Fatal(err)
	}

	if fi, ok := w.Accept(filepath.Join(w.Root(), "src", "a.cpp")); !ok || fi.RelPath != "src/a.cpp" {
		t.Errorf("expected src/a.cpp accepted, got %v %+v", ok, fi)
	}
	for _, rel := range []string{"build/b.cpp", "logo.png", "blob.c", "missing.c", "../outside.c"} {
		if _, ok := w.Accept(filepath.Join(w.Root(), filepath.FromSlash(rel))); ok {
			t.Errorf("expected %s rejected", rel)
		}
	}
}

func TestDescribe(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "build/gen.cpp", "int g;")
	writeFile(t, root, "NOTES", "plain notes")

	w, err := New(Config{RootDir: root, Ignore: NewIgnoreMatcher(root, nil).Func()})
	if err != nil {
		t.Fatal(err)
	}

	fi, err := w.Describe(filepath.Join(root, "build", "gen.cpp"))
	if err != nil {
		t.Fatalf("Describe ignored file: %v", err)
	}
	if fi.RelPath != "build/gen.cpp" || fi.Category != CategoryCode {
		t.Errorf("got %+v", fi)
	}

	fi, err = w.Describe(filepath.Join(root, "NOTES"))
	if err != nil {
		t.Fatal(err)
	}
	if fi.Category != CategoryProse {
		t.Errorf("unknown file category = %q, want prose", fi.Category)
	}

	if _, err := w.Describe(filepath.Join(root, "missing.c")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := w.Describe(filepath.Join(root, "build")); err == nil {
		t.Error("expected error for directory")
	}
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"main.go", "Go"},
		{"net/socket.cpp", "C++"},
		{"include/foo.hpp", "C++"},
		{"util.h", "C"},
		{"CMakeLists.txt", "CMake"},
		{"rules.mk", "Makefile"},
		{"Makefile", "Makefile"},
		{"README.md", "Markdown"},
		{"manual.pdf", "PDF"},
		{"noextension", "unknown"},
		{"file.xyz", "unknown"},
	}
	for _, tc := range tests {
		if got := DetectLanguage(tc.filename); got != tc.want {
			t.Errorf("DetectLanguage(%q) = %q, want %q", tc.filename, got, tc.want)
		}
	}
}

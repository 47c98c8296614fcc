package archive

import (
	"archive/tar"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/kopi-vm/kopi/internal/kopierr"
	"github.com/kopi-vm/kopi/internal/storage"
)

func writeTarGz(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	for name, content := range entries {
		if err := tw.WriteHeader(&tar.Header{Name: name, Size: int64(len(content)), Mode: 0o644}); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestExtractTarGzRejectsTarSlip(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "evil.tar.gz")
	writeTarGz(t, archivePath, map[string]string{"../escape.txt": "gotcha"})

	dest := filepath.Join(dir, "extracted")
	err := Extract(archivePath, FormatTarGz, dest, nil)
	if kopierr.KindOf(err) != kopierr.KindSecurity {
		t.Fatalf("expected KindSecurity for tar-slip entry, got %v", err)
	}
}

func TestExtractTarGzRejectsAbsolutePath(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "evil.tar.gz")
	writeTarGz(t, archivePath, map[string]string{"/etc/passwd": "gotcha"})

	dest := filepath.Join(dir, "extracted")
	err := Extract(archivePath, FormatTarGz, dest, nil)
	if kopierr.KindOf(err) != kopierr.KindSecurity {
		t.Fatalf("expected KindSecurity for absolute path entry, got %v", err)
	}
}

func TestExtractTarGzHappyPath(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "jdk.tar.gz")
	writeTarGz(t, archivePath, map[string]string{
		"jdk-21/bin/java":    "binary",
		"jdk-21/release":     "JAVA_VERSION=21",
	})

	dest := filepath.Join(dir, "extracted")
	if err := Extract(archivePath, FormatTarGz, dest, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dest, "jdk-21", "bin", "java")); err != nil {
		t.Fatalf("expected extracted file to exist: %v", err)
	}
}

func TestDetectFormatRecognizesExtensions(t *testing.T) {
	cases := map[string]Format{
		"jdk-21.tar.gz": FormatTarGz,
		"jdk-21.tgz":    FormatTarGz,
		"jdk-21.tar.xz": FormatTarXz,
		"jdk-21.zip":    FormatZip,
	}
	for name, want := range cases {
		got, err := DetectFormat(name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if got != want {
			t.Fatalf("%s: expected %v, got %v", name, want, got)
		}
	}
}

func TestDetectFormatRejectsUnknown(t *testing.T) {
	if _, err := DetectFormat("jdk-21.rar"); err == nil {
		t.Fatal("expected an error for unrecognized extension")
	}
}

func TestDetectStructureDirect(t *testing.T) {
	root := t.TempDir()
	mustMkdirAndFile(t, filepath.Join(root, "bin", javaExeName()))

	structureType, suffix, err := DetectStructure(root)
	if err != nil {
		t.Fatal(err)
	}
	if structureType != storage.StructureDirect || suffix != "" {
		t.Fatalf("unexpected result: %v %q", structureType, suffix)
	}
}

func TestDetectStructureBundle(t *testing.T) {
	root := t.TempDir()
	mustMkdirAndFile(t, filepath.Join(root, "Contents", "Home", "bin", javaExeName()))

	structureType, suffix, err := DetectStructure(root)
	if err != nil {
		t.Fatal(err)
	}
	if structureType != storage.StructureBundle || suffix != filepath.Join("Contents", "Home") {
		t.Fatalf("unexpected result: %v %q", structureType, suffix)
	}
}

func TestDetectStructureNestedUnwrapsOneLevel(t *testing.T) {
	root := t.TempDir()
	mustMkdirAndFile(t, filepath.Join(root, "jdk-21.0.5+11", "bin", javaExeName()))

	structureType, suffix, err := DetectStructure(root)
	if err != nil {
		t.Fatal(err)
	}
	if structureType != storage.StructureDirect {
		t.Fatalf("expected direct after unwrap, got %v", structureType)
	}
	if suffix != "jdk-21.0.5+11" {
		t.Fatalf("expected unwrap suffix, got %q", suffix)
	}
}

func TestDetectStructureFailsWhenNothingMatches(t *testing.T) {
	root := t.TempDir()
	if _, _, err := DetectStructure(root); err == nil {
		t.Fatal("expected an error for an empty extraction root")
	}
}

// TestDetectStructureHybridPrefersBundle covers SPEC_FULL.md §9's
// Open Question resolution: when both bin/java and
// Contents/Home/bin/java are present and working, the bundle-relative
// one wins.
func TestDetectStructureHybridPrefersBundle(t *testing.T) {
	root := t.TempDir()
	mustMkdirAndFile(t, filepath.Join(root, "bin", javaExeName()))
	mustMkdirAndFile(t, filepath.Join(root, "Contents", "Home", "bin", javaExeName()))

	structureType, suffix, err := DetectStructure(root)
	if err != nil {
		t.Fatal(err)
	}
	if structureType != storage.StructureHybrid || suffix != filepath.Join("Contents", "Home") {
		t.Fatalf("unexpected result: %v %q", structureType, suffix)
	}
}

// TestDetectStructureHybridFallsBackWhenBundleBroken covers the
// self-check half of the resolution: a bundle-relative java that
// exists but isn't executable (a broken symlink target, say) must not
// win over a working root-relative one.
func TestDetectStructureHybridFallsBackWhenBundleBroken(t *testing.T) {
	root := t.TempDir()
	mustMkdirAndFile(t, filepath.Join(root, "bin", javaExeName()))
	bundleJava := filepath.Join(root, "Contents", "Home", "bin", javaExeName())
	if err := os.MkdirAll(filepath.Dir(bundleJava), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bundleJava, []byte{}, 0o644); err != nil {
		t.Fatal(err)
	}

	structureType, suffix, err := DetectStructure(root)
	if err != nil {
		t.Fatal(err)
	}
	if structureType != storage.StructureHybrid || suffix != "" {
		t.Fatalf("unexpected result: %v %q", structureType, suffix)
	}
}

func mustMkdirAndFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte{}, 0o755); err != nil {
		t.Fatal(err)
	}
}

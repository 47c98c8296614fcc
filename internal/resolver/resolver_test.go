package resolver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kopi-vm/kopi/internal/kopierr"
	"github.com/kopi-vm/kopi/internal/kopihome"
)

func testPaths(t *testing.T, root string) kopihome.Paths {
	t.Helper()
	paths := kopihome.Paths{
		Root:        root,
		VersionFile: filepath.Join(root, "version"),
	}
	return paths
}

func TestResolveEnvVarTakesPrecedence(t *testing.T) {
	t.Setenv(EnvVar, "temurin@21")
	dir := t.TempDir()

	res, err := Resolve(dir, testPaths(t, t.TempDir()))
	if err != nil {
		t.Fatal(err)
	}
	if res.Source != SourceEnv {
		t.Fatalf("expected SourceEnv, got %v", res.Source)
	}
}

func TestResolveKopiVersionDominatesJavaVersionInSameDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".kopi-version"), []byte("temurin@21\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".java-version"), []byte("17\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := Resolve(dir, testPaths(t, t.TempDir()))
	if err != nil {
		t.Fatal(err)
	}
	if res.Source != SourceKopiVersionFile {
		t.Fatalf("expected .kopi-version to dominate, got %v", res.Source)
	}
}

func TestResolveWalksAncestors(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, ".java-version"), []byte("11\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	res, err := Resolve(nested, testPaths(t, t.TempDir()))
	if err != nil {
		t.Fatal(err)
	}
	if res.Source != SourceJavaVersionFile {
		t.Fatalf("expected .java-version found via ancestor walk, got %v", res.Source)
	}
	if res.Request.Pattern.Major() != 11 {
		t.Fatalf("unexpected resolved version: %+v", res.Request)
	}
}

func TestResolveFallsBackToGlobalDefault(t *testing.T) {
	kopiHome := t.TempDir()
	paths := testPaths(t, kopiHome)
	if err := os.WriteFile(paths.VersionFile, []byte("zulu@17\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := Resolve(t.TempDir(), paths)
	if err != nil {
		t.Fatal(err)
	}
	if res.Source != SourceGlobalDefault {
		t.Fatalf("expected SourceGlobalDefault, got %v", res.Source)
	}
}

func TestResolveNoLocalVersionWhenNothingAnswers(t *testing.T) {
	_, err := Resolve(t.TempDir(), testPaths(t, t.TempDir()))
	if kopierr.KindOf(err) != kopierr.KindNoLocalVersion {
		t.Fatalf("expected NoLocalVersion, got %v", err)
	}
}

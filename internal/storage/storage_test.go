package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kopi-vm/kopi/internal/version"
)

func mustParse(t *testing.T, raw string) version.Version {
	t.Helper()
	v, err := version.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return v
}

func mkInstall(t *testing.T, jdksDir, name string) string {
	t.Helper()
	dir := filepath.Join(jdksDir, name, "bin")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "java"), []byte(""), 0o755); err != nil {
		t.Fatal(err)
	}
	return filepath.Join(jdksDir, name)
}

func TestEnumerateInstalledSkipsUnparseableNames(t *testing.T) {
	jdksDir := t.TempDir()
	mkInstall(t, jdksDir, "temurin-21.0.5")
	if err := os.MkdirAll(filepath.Join(jdksDir, "not-a-jdk-dir"), 0o755); err != nil {
		t.Fatal(err)
	}

	installed, err := EnumerateInstalled(jdksDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(installed) != 1 {
		t.Fatalf("expected 1 installed jdk, got %d: %+v", len(installed), installed)
	}
	if installed[0].Distribution.String() != "temurin" {
		t.Fatalf("unexpected distribution: %+v", installed[0])
	}
}

func TestFindMatchingJdksFlexibleBuildMatch(t *testing.T) {
	jdksDir := t.TempDir()
	// The build number is promoted into the directory name as a plain
	// trailing component, per spec.md §3's own example
	// ("jdks/corretto-21.0.5.11.1/"), not literally spelled with "+".
	mkInstall(t, jdksDir, "temurin-21.0.5.11.1")

	req, err := version.ParseRequest("temurin@21.0.5+11")
	if err != nil {
		t.Fatal(err)
	}
	matches, err := FindMatchingJdks(jdksDir, req)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}

	req2, err := version.ParseRequest("temurin@21.0.5+12")
	if err != nil {
		t.Fatal(err)
	}
	matches2, err := FindMatchingJdks(jdksDir, req2)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches2) != 0 {
		t.Fatalf("expected 0 matches for mismatched build, got %d", len(matches2))
	}
}

func TestResolveBinPathDirectStructure(t *testing.T) {
	jdksDir := t.TempDir()
	installPath := mkInstall(t, jdksDir, "temurin-21.0.5")

	jdk := &InstalledJdk{
		Distribution: mustDistribution(t, "temurin"),
		Version:      mustParse(t, "21.0.5"),
		InstallPath:  installPath,
	}
	binPath, err := jdk.ResolveBinPath(jdk.SidecarPath(jdksDir))
	if err != nil {
		t.Fatal(err)
	}
	if binPath != filepath.Join(installPath, "bin") {
		t.Fatalf("unexpected bin path: %s", binPath)
	}
}

func TestResolveBinPathMacOSBundle(t *testing.T) {
	jdksDir := t.TempDir()
	installPath := filepath.Join(jdksDir, "temurin-21.0.5")
	bundleBin := filepath.Join(installPath, "Contents", "Home", "bin")
	if err := os.MkdirAll(bundleBin, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(bundleBin, "java"), []byte(""), 0o755); err != nil {
		t.Fatal(err)
	}

	jdk := &InstalledJdk{
		Distribution: mustDistribution(t, "temurin"),
		Version:      mustParse(t, "21.0.5"),
		InstallPath:  installPath,
	}
	binPath, err := jdk.ResolveBinPath(jdk.SidecarPath(jdksDir))
	if err != nil {
		t.Fatal(err)
	}
	if binPath != bundleBin {
		t.Fatalf("expected bundle bin path %s, got %s", bundleBin, binPath)
	}
}

func TestResolveBinPathPrefersSidecar(t *testing.T) {
	jdksDir := t.TempDir()
	installPath := mkInstall(t, jdksDir, "temurin-21.0.5")

	jdk := &InstalledJdk{
		Distribution: mustDistribution(t, "temurin"),
		Version:      mustParse(t, "21.0.5"),
		InstallPath:  installPath,
	}
	sidecarPath := jdk.SidecarPath(jdksDir)
	err := WriteSidecarAtomic(sidecarPath, Sidecar{
		InstallationMeta: InstallationMeta{
			JavaHomeSuffix:  "",
			StructureType:   StructureDirect,
			MetadataVersion: CurrentMetadataVersion,
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	binPath, err := jdk.ResolveBinPath(sidecarPath)
	if err != nil {
		t.Fatal(err)
	}
	if binPath != filepath.Join(installPath, "bin") {
		t.Fatalf("unexpected bin path: %s", binPath)
	}
}

func mustDistribution(t *testing.T, name string) version.Distribution {
	t.Helper()
	return version.ParseDistribution(name)
}

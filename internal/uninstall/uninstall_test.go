package uninstall

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kopi-vm/kopi/internal/kopierr"
	"github.com/kopi-vm/kopi/internal/kopihome"
	"github.com/kopi-vm/kopi/internal/locking"
	"github.com/kopi-vm/kopi/internal/storage"
	"github.com/kopi-vm/kopi/internal/version"
)

func testPaths(t *testing.T) kopihome.Paths {
	t.Helper()
	root := t.TempDir()
	paths := kopihome.Paths{
		Root:        root,
		VersionFile: filepath.Join(root, "version"),
		ConfigFile:  filepath.Join(root, "config.toml"),
		Jdks:        filepath.Join(root, "jdks"),
		CacheFile:   filepath.Join(root, "cache", "metadata.json"),
		Locks:       filepath.Join(root, "locks"),
		Shims:       filepath.Join(root, "shims"),
		Tmp:         filepath.Join(root, "tmp"),
	}
	if err := paths.EnsureDirs(); err != nil {
		t.Fatal(err)
	}
	return paths
}

func installFixture(t *testing.T, paths kopihome.Paths, distName, ver string) storage.InstalledJdk {
	t.Helper()
	dist := version.ParseDistribution(distName)
	v, err := version.Parse(ver)
	if err != nil {
		t.Fatal(err)
	}
	name := storage.DirName(dist, v)
	installDir := paths.InstallDir(name)
	if err := os.MkdirAll(filepath.Join(installDir, "bin"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(installDir, "bin", "java"), []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	sidecar := storage.Sidecar{
		Package: storage.PackageDescriptor{ID: name, Distribution: distName, Version: ver},
		InstallationMeta: storage.InstallationMeta{
			StructureType:   storage.StructureDirect,
			MetadataVersion: storage.CurrentMetadataVersion,
		},
	}
	if err := storage.WriteSidecarAtomic(paths.SidecarPath(name), sidecar); err != nil {
		t.Fatal(err)
	}
	return storage.InstalledJdk{Distribution: dist, Version: v, InstallPath: installDir}
}

func newUninstaller(paths kopihome.Paths) *Uninstaller {
	controller := locking.NewController(paths.Locks, locking.BackendAuto)
	return New(paths, controller)
}

func TestResolveRequiresAllFlagWhenAmbiguous(t *testing.T) {
	paths := testPaths(t)
	installFixture(t, paths, "temurin", "21.0.5+11")
	installFixture(t, paths, "temurin", "21.0.4+7")

	u := newUninstaller(paths)
	req, err := version.ParseRequest("temurin@21")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := u.Resolve(req, Options{}); kopierr.KindOf(err) != kopierr.KindInvalidArgument {
		t.Fatalf("expected ambiguous-target error, got %v", err)
	}

	matches, err := u.Resolve(req, Options{All: true})
	if err != nil {
		t.Fatalf("Resolve with All: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
}

func TestResolveReportsNotInstalled(t *testing.T) {
	paths := testPaths(t)
	u := newUninstaller(paths)
	req, err := version.ParseRequest("temurin@21")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := u.Resolve(req, Options{}); kopierr.KindOf(err) != kopierr.KindJdkNotInstalled {
		t.Fatalf("expected JdkNotInstalled, got %v", err)
	}
}

func TestUninstallPromptsBeforeRemovingActiveGlobal(t *testing.T) {
	paths := testPaths(t)
	jdk := installFixture(t, paths, "temurin", "21.0.5+11")
	if err := os.WriteFile(paths.VersionFile, []byte("temurin@21.0.5+11"), 0o644); err != nil {
		t.Fatal(err)
	}

	u := newUninstaller(paths)

	asked := false
	declined := Options{LockOptions: locking.Options{Timeout: locking.FiniteTimeout(0)}, Confirm: func(string) (bool, error) {
		asked = true
		return false, nil
	}}
	if err := u.Uninstall([]storage.InstalledJdk{jdk}, declined); kopierr.KindOf(err) != kopierr.KindInvalidArgument {
		t.Fatalf("expected cancelled error, got %v", err)
	}
	if !asked {
		t.Fatal("expected confirmation prompt for active global default")
	}
	if _, err := os.Stat(jdk.InstallPath); err != nil {
		t.Fatalf("install dir should survive a declined confirmation: %v", err)
	}

	accepted := Options{LockOptions: locking.Options{Timeout: locking.FiniteTimeout(0)}, Confirm: func(string) (bool, error) {
		return true, nil
	}}
	if err := u.Uninstall([]storage.InstalledJdk{jdk}, accepted); err != nil {
		t.Fatalf("Uninstall after accepted confirmation: %v", err)
	}
	if _, err := os.Stat(jdk.InstallPath); !os.IsNotExist(err) {
		t.Fatalf("expected install dir removed, got err=%v", err)
	}
	if _, err := os.Stat(paths.SidecarPath(storage.DirName(jdk.Distribution, jdk.Version))); !os.IsNotExist(err) {
		t.Fatalf("expected sidecar removed, got err=%v", err)
	}
}

func TestUninstallForceSkipsPrompt(t *testing.T) {
	paths := testPaths(t)
	jdk := installFixture(t, paths, "corretto", "17.0.9+9")
	if err := os.WriteFile(paths.VersionFile, []byte("corretto@17.0.9+9"), 0o644); err != nil {
		t.Fatal(err)
	}

	u := newUninstaller(paths)
	var notices []string
	opts := Options{
		Force:       true,
		LockOptions: locking.Options{Timeout: locking.FiniteTimeout(0)},
		Confirm: func(string) (bool, error) {
			t.Fatal("Confirm should not be called when Force is set")
			return false, nil
		},
		Notify: func(message string) { notices = append(notices, message) },
	}
	if err := u.Uninstall([]storage.InstalledJdk{jdk}, opts); err != nil {
		t.Fatalf("Uninstall: %v", err)
	}
	if _, err := os.Stat(jdk.InstallPath); !os.IsNotExist(err) {
		t.Fatalf("expected install dir removed, got err=%v", err)
	}
	if len(notices) == 0 {
		t.Fatal("expected a notice that --force removed the active global default")
	}
}

func TestUninstallRejectsWhenConcurrentInstallHeld(t *testing.T) {
	paths := testPaths(t)
	jdk := installFixture(t, paths, "zulu", "11.0.21+9")

	u := newUninstaller(paths)
	name := storage.DirName(jdk.Distribution, jdk.Version)
	guard, err := u.Controller.Acquire(locking.Installation(name), locking.Options{Timeout: locking.FiniteTimeout(0)})
	if err != nil {
		t.Fatal(err)
	}
	defer guard.Release()

	opts := Options{Force: true, LockOptions: locking.Options{Timeout: locking.FiniteTimeout(0)}}
	err = u.Uninstall([]storage.InstalledJdk{jdk}, opts)
	if kopierr.KindOf(err) != kopierr.KindLockBackendUnavailable {
		t.Fatalf("expected LockBackendUnavailable while install lock is held, got %v", err)
	}
}

func TestSweepOrphansFindsSidecarsWithoutInstallDir(t *testing.T) {
	paths := testPaths(t)
	jdk := installFixture(t, paths, "temurin", "21.0.5+11")

	if err := os.RemoveAll(jdk.InstallPath); err != nil {
		t.Fatal(err)
	}

	orphans, err := SweepOrphans(paths.Jdks)
	if err != nil {
		t.Fatalf("SweepOrphans: %v", err)
	}
	if len(orphans) != 1 {
		t.Fatalf("expected 1 orphan, got %d: %v", len(orphans), orphans)
	}

	if err := RemoveOrphans(orphans); err != nil {
		t.Fatalf("RemoveOrphans: %v", err)
	}
	if _, err := os.Stat(orphans[0]); !os.IsNotExist(err) {
		t.Fatalf("expected orphan sidecar removed, got err=%v", err)
	}
}

func TestSweepOrphansIgnoresIntactInstallations(t *testing.T) {
	paths := testPaths(t)
	installFixture(t, paths, "temurin", "21.0.5+11")

	orphans, err := SweepOrphans(paths.Jdks)
	if err != nil {
		t.Fatalf("SweepOrphans: %v", err)
	}
	if len(orphans) != 0 {
		t.Fatalf("expected no orphans, got %v", orphans)
	}
}

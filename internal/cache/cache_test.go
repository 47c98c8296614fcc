package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kopi-vm/kopi/internal/kopierr"
	"github.com/kopi-vm/kopi/internal/locking"
	"github.com/kopi-vm/kopi/internal/platform"
	"github.com/kopi-vm/kopi/internal/version"
)

func TestLoadMissingReturnsCacheNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "metadata.json"))
	if kopierr.KindOf(err) != kopierr.KindCacheNotFound {
		t.Fatalf("expected CacheNotFound, got %v", err)
	}
}

func TestLoadCorruptReturnsCacheCorrupted(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metadata.json")
	if err := os.WriteFile(path, []byte("{ not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if kopierr.KindOf(err) != kopierr.KindCacheCorrupted {
		t.Fatalf("expected CacheCorrupted, got %v", err)
	}
}

// TestRoundTrip checks law L2: write-then-read of any valid
// MetadataCache yields an equal value.
func TestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache", "metadata.json")
	locksDir := filepath.Join(dir, "locks")
	if err := os.MkdirAll(locksDir, 0o755); err != nil {
		t.Fatal(err)
	}
	controller := locking.NewController(locksDir, locking.BackendAuto)

	c := NewEmpty()
	bucket := &DistributionCache{Distribution: "temurin", DisplayName: "Eclipse Temurin"}
	if err := bucket.AddPackage(Package{
		ID: "temurin-21.0.5+11-linux-x64", Distribution: "temurin", Version: "21.0.5+11",
		PackageType: "jdk", OS: "linux", Arch: "x64", URL: "https://example.test/a.tar.gz",
		Checksum: "deadbeef", ChecksumType: "sha256", SizeBytes: 1024,
	}); err != nil {
		t.Fatal(err)
	}
	c.Distributions["temurin"] = bucket

	if err := Save(path, c, controller, locking.Options{Timeout: locking.FiniteTimeout(time.Second)}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Distributions["temurin"].Packages) != 1 {
		t.Fatalf("expected 1 package, got %d", len(loaded.Distributions["temurin"].Packages))
	}
	if loaded.Distributions["temurin"].Packages[0].Checksum != "deadbeef" {
		t.Fatalf("round trip lost data: %+v", loaded.Distributions["temurin"].Packages[0])
	}
}

// TestZeroDistributionsIsValid covers the boundary behavior in spec.md
// §8: a cache with zero distributions is valid and queryable.
func TestZeroDistributionsIsValid(t *testing.T) {
	c := NewEmpty()
	req, err := version.ParseRequest("temurin@21")
	if err != nil {
		t.Fatal(err)
	}
	results, err := Search(c, req, SearchPrefix)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no matches, got %v", results)
	}
}

func TestAddPackageRejectsMismatchedDistribution(t *testing.T) {
	bucket := &DistributionCache{Distribution: "temurin"}
	err := bucket.AddPackage(Package{Distribution: "corretto"})
	if err == nil {
		t.Fatal("expected an error for mismatched distribution")
	}
}

func platformPackage(dist, ver string) Package {
	current := platform.Current()
	return Package{
		ID: dist + "-" + ver, Distribution: dist, Version: ver,
		PackageType: "jdk", OS: current.OS, Arch: current.Arch,
	}
}

func TestSearchRangeMatchesConstraint(t *testing.T) {
	c := NewEmpty()
	bucket := &DistributionCache{Distribution: "temurin"}
	for _, ver := range []string{"17.0.9", "21.0.5", "22.0.1"} {
		if err := bucket.AddPackage(platformPackage("temurin", ver)); err != nil {
			t.Fatal(err)
		}
	}
	c.Distributions["temurin"] = bucket

	matches, err := SearchRange(c, ">=21,<22", nil)
	if err != nil {
		t.Fatalf("SearchRange: %v", err)
	}
	if len(matches) != 1 || matches[0].Version != "21.0.5" {
		t.Fatalf("expected only 21.0.5 to match, got %+v", matches)
	}
}

func TestSearchRangeRejectsInvalidConstraint(t *testing.T) {
	_, err := SearchRange(NewEmpty(), "not a constraint", nil)
	if kopierr.KindOf(err) != kopierr.KindInvalidArgument {
		t.Fatalf("expected KindInvalidArgument, got %v", err)
	}
}

func TestSearchRangeFiltersByDistribution(t *testing.T) {
	c := NewEmpty()
	temurin := &DistributionCache{Distribution: "temurin"}
	_ = temurin.AddPackage(platformPackage("temurin", "21.0.5"))
	corretto := &DistributionCache{Distribution: "corretto"}
	_ = corretto.AddPackage(platformPackage("corretto", "21.0.5"))
	c.Distributions["temurin"] = temurin
	c.Distributions["corretto"] = corretto

	dist := version.ParseDistribution("corretto")
	matches, err := SearchRange(c, ">=21", &dist)
	if err != nil {
		t.Fatalf("SearchRange: %v", err)
	}
	if len(matches) != 1 || matches[0].Distribution != "corretto" {
		t.Fatalf("expected only the corretto package, got %+v", matches)
	}
}

// Package cache implements the on-disk MetadataCache of spec.md §3/§4.8:
// a JSON catalog of available packages, written atomically under a
// CacheWriter lock and read lock-free (readers tolerate a concurrent
// rename because rename is atomic at the filesystem layer).
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/kopi-vm/kopi/internal/kopierr"
	"github.com/kopi-vm/kopi/internal/locking"
	"github.com/kopi-vm/kopi/internal/platform"
	"github.com/kopi-vm/kopi/internal/version"
)

// Package is a single downloadable JDK/JRE artifact's metadata, the
// JdkMetadata of spec.md §6.
type Package struct {
	ID            string `json:"id"`
	Distribution  string `json:"distribution"`
	Version       string `json:"version"`
	PackageType   string `json:"package_type"`
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Libc          string `json:"lib_c,omitempty"`
	URL           string `json:"url"`
	Checksum      string `json:"checksum"`
	ChecksumType  string `json:"checksum_type"`
	SizeBytes     int64  `json:"size_bytes"`
}

// DistributionCache groups every known package for one distribution;
// spec.md §3's invariant that all packages within it share the
// distribution field is enforced by AddPackage below, not by callers.
type DistributionCache struct {
	Distribution string    `json:"distribution"`
	DisplayName  string    `json:"display_name"`
	Packages     []Package `json:"packages"`
}

// AddPackage appends pkg after asserting it belongs to this
// distribution, guarding spec.md §3's invariant at the single place
// packages are ever added.
func (d *DistributionCache) AddPackage(pkg Package) error {
	if pkg.Distribution != d.Distribution {
		return fmt.Errorf("cache: package distribution %q does not match bucket %q", pkg.Distribution, d.Distribution)
	}
	d.Packages = append(d.Packages, pkg)
	return nil
}

// MetadataCache is the full on-disk catalog, spec.md §3/§6's schema.
type MetadataCache struct {
	LastUpdated   time.Time                     `json:"last_updated"`
	Distributions map[string]*DistributionCache `json:"distributions"`
}

func NewEmpty() *MetadataCache {
	return &MetadataCache{Distributions: map[string]*DistributionCache{}}
}

// Load reads and parses the cache file at path. A missing file reports
// CacheNotFound (not a parse error) per spec.md §8's boundary behavior;
// an unparseable file reports CacheCorrupted so callers can recover by
// forcing a refresh.
func Load(path string) (*MetadataCache, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, kopierr.New(kopierr.KindCacheNotFound, "no cached metadata found")
		}
		return nil, kopierr.Wrap(kopierr.KindIO, "reading metadata cache", err)
	}
	var cache MetadataCache
	if err := json.Unmarshal(data, &cache); err != nil {
		return nil, kopierr.Wrap(kopierr.KindCacheCorrupted, "metadata cache is not valid JSON", err)
	}
	if cache.Distributions == nil {
		cache.Distributions = map[string]*DistributionCache{}
	}
	return &cache, nil
}

// Save acquires the CacheWriter scope lock, then performs a
// write-temp-then-rename in the same directory so concurrent readers
// never observe a truncated file (spec.md §4.4/§5, law L2/P5).
func Save(path string, cache *MetadataCache, controller *locking.Controller, opts locking.Options) error {
	guard, err := controller.Acquire(locking.CacheWriter(), opts)
	if err != nil {
		return err
	}
	defer guard.Release()

	cache.LastUpdated = time.Now().UTC()
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return kopierr.Wrap(kopierr.KindIO, "encoding metadata cache", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return kopierr.Wrap(kopierr.KindIO, "creating cache directory", err)
	}
	tmp, err := os.CreateTemp(dir, ".metadata-*.json.tmp")
	if err != nil {
		return kopierr.Wrap(kopierr.KindIO, "creating temp cache file", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return kopierr.Wrap(kopierr.KindIO, "writing temp cache file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return kopierr.Wrap(kopierr.KindIO, "closing temp cache file", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return kopierr.Wrap(kopierr.KindIO, "publishing metadata cache", err)
	}
	return nil
}

// SearchType selects how the request's pattern is applied.
type SearchType int

const (
	SearchExact SearchType = iota
	SearchPrefix
)

// Search is a pure, linear filter over every package in the cache
// (acceptable per spec.md §4.8: a fully populated cache holds ~10^4
// entries and the target response is <100ms), restricted to the
// current platform's triple.
func Search(c *MetadataCache, req version.Request, searchType SearchType) ([]Package, error) {
	current := platform.Current()
	var results []Package
	for _, bucket := range c.Distributions {
		if req.Distribution != nil && req.Distribution.String() != bucket.Distribution {
			continue
		}
		for _, pkg := range bucket.Packages {
			if !current.Matches(pkg.OS, pkg.Arch, platform.Libc(pkg.Libc)) {
				continue
			}
			v, err := version.Parse(pkg.Version)
			if err != nil {
				continue
			}
			switch searchType {
			case SearchExact:
				if !v.Equal(req.Pattern) {
					continue
				}
			default:
				if !req.Pattern.Matches(v) {
					continue
				}
			}
			results = append(results, pkg)
		}
	}
	return results, nil
}

// SearchRange filters the cache by a semver-style constraint string
// such as ">=21,<22" or "^17.0.0", the "constraint-style convenience
// parsing" SPEC_FULL.md's data-model section carves out for
// Masterminds/semver/v3: internal/version's own Version deliberately
// doesn't support ranges (Java's 1-5 component, build-tagged scheme
// doesn't fit semver's strict major.minor.patch), so a package version
// is only range-tested after it has been coerced into a 3-component
// semver.Version, padding or truncating components as needed. An
// optional dist restricts the search to one distribution, matching
// Search's own distribution filter.
func SearchRange(c *MetadataCache, constraintStr string, dist *version.Distribution) ([]Package, error) {
	constraint, err := semver.NewConstraint(constraintStr)
	if err != nil {
		return nil, kopierr.Wrap(kopierr.KindInvalidArgument, "parsing version constraint "+constraintStr, err)
	}
	current := platform.Current()
	var results []Package
	for _, bucket := range c.Distributions {
		if dist != nil && dist.String() != bucket.Distribution {
			continue
		}
		for _, pkg := range bucket.Packages {
			if !current.Matches(pkg.OS, pkg.Arch, platform.Libc(pkg.Libc)) {
				continue
			}
			sv, err := coerceSemver(pkg.Version)
			if err != nil {
				continue
			}
			if constraint.Check(sv) {
				results = append(results, pkg)
			}
		}
	}
	return results, nil
}

// coerceSemver parses a kopi version string (1-5 components, optional
// "+build") into a well-formed 3-component semver.Version, since
// semver.NewVersion rejects Java's variable-arity scheme outright.
// Missing components are zero-filled and components beyond the third
// (the flexible build-promotion slot spec.md §3 describes) are dropped;
// the "+build" tag becomes the semver build metadata string, which
// semver.Constraint comparisons ignore per the semver spec.
func coerceSemver(raw string) (*semver.Version, error) {
	v, err := version.Parse(raw)
	if err != nil {
		return nil, err
	}
	major, minor, patch := 0, 0, 0
	if len(v.Components) > 0 {
		major = v.Components[0]
	}
	if len(v.Components) > 1 {
		minor = v.Components[1]
	}
	if len(v.Components) > 2 {
		patch = v.Components[2]
	}
	s := fmt.Sprintf("%d.%d.%d", major, minor, patch)
	if v.Build != "" {
		s += "+" + v.Build
	}
	return semver.NewVersion(s)
}

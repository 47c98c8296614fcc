// Package metadata implements component D of spec.md §4.4: an ordered
// list of metadata sources, each queried in turn until one answers, and
// the conversion of a source's answer into a MetadataCache (saving it
// is left to the callers, via cache.Save).
//
// Grounded in the teacher's providers/{adoptium,liberica,private}
// packages and internal/providers/{adoptium,azul,liberica}: each of
// those is one hardcoded vendor-specific HTTP fetch with no shared
// interface. This package extracts the shared Source contract spec.md
// requires and turns every teacher provider into one implementation of
// it (internal/metadata/foojaysource, httpsource, privatesource) plus a
// fourth, localsource, for the offline/bundled-distribution case the
// teacher never needed but spec.md's air-gapped Non-goal exception
// calls for.
package metadata

import (
	"time"

	"github.com/kopi-vm/kopi/internal/cache"
)

// Source is the contract every metadata backend implements: Name plus
// five operations.
type Source interface {
	Name() string
	IsAvailable() bool
	FetchAll() ([]cache.Package, error)
	FetchDistribution(name string) ([]cache.Package, error)
	FetchPackageDetails(id string) (cache.Package, error)
	LastUpdated() (time.Time, bool)
}

// Provider holds an ordered list of sources and answers from the first
// one available, per spec.md §4.4.
type Provider struct {
	sources []Source
}

func NewProvider(sources ...Source) *Provider {
	return &Provider{sources: sources}
}

// FirstAvailable returns the first source reporting itself available,
// in configured priority order.
func (p *Provider) FirstAvailable() (Source, bool) {
	for _, s := range p.sources {
		if s.IsAvailable() {
			return s, true
		}
	}
	return nil, false
}

// FetchAll implements spec.md §4.4's aggregation policy exactly:
// "iterate sources in configured order; on success return; on failure
// ... log and continue. If all fail, surface the last error." The
// first available source to answer wins outright — its packages are
// not supplemented by any later source, so a working primary's result
// is never silently altered by a secondary.
func (p *Provider) FetchAll() (*cache.MetadataCache, error) {
	var lastErr error
	for _, s := range p.sources {
		if !s.IsAvailable() {
			continue
		}
		pkgs, err := s.FetchAll()
		if err != nil {
			lastErr = err
			continue
		}
		return toCache(pkgs), nil
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return cache.NewEmpty(), nil
}

// toCache buckets a single source's flat package list into the
// distribution-keyed shape cache.MetadataCache stores.
func toCache(pkgs []cache.Package) *cache.MetadataCache {
	result := cache.NewEmpty()
	for _, pkg := range pkgs {
		bucket, ok := result.Distributions[pkg.Distribution]
		if !ok {
			bucket = &cache.DistributionCache{Distribution: pkg.Distribution, DisplayName: pkg.Distribution}
			result.Distributions[pkg.Distribution] = bucket
		}
		bucket.AddPackage(pkg)
	}
	return result
}

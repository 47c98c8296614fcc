// Package localsource implements the offline metadata source: a
// directory of pre-downloaded "<package>.json" descriptor files,
// each holding one cache.Package, for air-gapped installs that can
// never reach foojay or a private mirror. Has no teacher analogue
// (the teacher always hits a network API); grounded instead in
// storage's own directory-enumeration style and the offline scenario
// original_source's tests/local_command.rs exercises.
package localsource

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kopi-vm/kopi/internal/cache"
	"github.com/kopi-vm/kopi/internal/kopierr"
)

// Source reads package descriptors from a local directory.
type Source struct {
	Dir string
}

func New(dir string) *Source {
	return &Source{Dir: dir}
}

func (s *Source) Name() string { return "local" }

func (s *Source) IsAvailable() bool {
	info, err := os.Stat(s.Dir)
	return err == nil && info.IsDir()
}

func (s *Source) FetchAll() ([]cache.Package, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, kopierr.Wrap(kopierr.KindIO, "reading local metadata directory", err)
	}
	var pkgs []cache.Package
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.Dir, entry.Name()))
		if err != nil {
			continue
		}
		var pkg cache.Package
		if err := json.Unmarshal(data, &pkg); err != nil {
			continue
		}
		pkgs = append(pkgs, pkg)
	}
	return pkgs, nil
}

func (s *Source) FetchDistribution(name string) ([]cache.Package, error) {
	all, err := s.FetchAll()
	if err != nil {
		return nil, err
	}
	var filtered []cache.Package
	for _, p := range all {
		if p.Distribution == name {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

func (s *Source) FetchPackageDetails(id string) (cache.Package, error) {
	all, err := s.FetchAll()
	if err != nil {
		return cache.Package{}, err
	}
	for _, p := range all {
		if p.ID == id {
			return p, nil
		}
	}
	return cache.Package{}, kopierr.New(kopierr.KindVersionNotAvailable, "no local package with id "+id)
}

// LastUpdated reports the directory's modification time as a coarse
// freshness signal.
func (s *Source) LastUpdated() (time.Time, bool) {
	info, err := os.Stat(s.Dir)
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

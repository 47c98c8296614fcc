// Package foojaysource implements the default, always-available
// metadata source: the public foojay.io Disco API, which is the
// metadata backend the original kopi tool's cache/search tests
// (original_source's tests/metadata_e2e.rs, cache_search_integration.rs)
// exercise. It is the network-backed equivalent of the teacher's
// providers/adoptium package, generalized from one hardcoded
// vendor/OS/arch query string to the full distribution list.
package foojaysource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kopi-vm/kopi/internal/cache"
	"github.com/kopi-vm/kopi/internal/kopierr"
)

const defaultBaseURL = "https://api.foojay.io/disco/v3.0"

// discoPackage mirrors the subset of foojay's package response this
// source consumes.
type discoPackage struct {
	ID               string `json:"id"`
	Distribution     string `json:"distribution"`
	JavaVersion      string `json:"java_version"`
	PackageType      string `json:"package_type"`
	OperatingSystem  string `json:"operating_system"`
	Architecture     string `json:"architecture"`
	LibCType         string `json:"lib_c_type"`
	Links            struct {
		PkgDownloadRedirect string `json:"pkg_download_redirect"`
	} `json:"links"`
	Size int64 `json:"size"`
}

type discoResponse struct {
	Result []discoPackage `json:"result"`
}

// Source queries the foojay disco API.
type Source struct {
	BaseURL string
	Client  *http.Client
}

func New() *Source {
	return &Source{BaseURL: defaultBaseURL, Client: &http.Client{Timeout: 30 * time.Second}}
}

func (s *Source) Name() string { return "foojay" }

// IsAvailable always reports true: foojay is the provider of last
// resort spec.md's resolver falls back to when no local/private source
// answers, so it is considered reachable until a request actually
// fails.
func (s *Source) IsAvailable() bool { return true }

func (s *Source) baseURL() string {
	if s.BaseURL != "" {
		return s.BaseURL
	}
	return defaultBaseURL
}

func (s *Source) fetch(url string) (discoResponse, error) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		return discoResponse{}, kopierr.Wrap(kopierr.KindNetwork, "building disco request", err)
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return discoResponse{}, kopierr.Wrap(kopierr.KindNetwork, "querying foojay disco api", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return discoResponse{}, kopierr.New(kopierr.KindNetwork, fmt.Sprintf("foojay disco api returned status %d", resp.StatusCode))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return discoResponse{}, kopierr.Wrap(kopierr.KindNetwork, "reading disco response", err)
	}
	var parsed discoResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return discoResponse{}, kopierr.Wrap(kopierr.KindNetwork, "parsing disco response", err)
	}
	return parsed, nil
}

func toPackage(p discoPackage) cache.Package {
	return cache.Package{
		ID:           p.ID,
		Distribution: p.Distribution,
		Version:      p.JavaVersion,
		PackageType:  p.PackageType,
		OS:           strings.ToLower(p.OperatingSystem),
		Arch:         strings.ToLower(p.Architecture),
		Libc:         strings.ToLower(p.LibCType),
		URL:          p.Links.PkgDownloadRedirect,
		SizeBytes:    p.Size,
	}
}

func (s *Source) FetchAll() ([]cache.Package, error) {
	resp, err := s.fetch(s.baseURL() + "/packages?package_type=jdk")
	if err != nil {
		return nil, err
	}
	pkgs := make([]cache.Package, 0, len(resp.Result))
	for _, p := range resp.Result {
		pkgs = append(pkgs, toPackage(p))
	}
	return pkgs, nil
}

func (s *Source) FetchDistribution(name string) ([]cache.Package, error) {
	resp, err := s.fetch(s.baseURL() + "/packages?distribution=" + name + "&package_type=jdk")
	if err != nil {
		return nil, err
	}
	pkgs := make([]cache.Package, 0, len(resp.Result))
	for _, p := range resp.Result {
		pkgs = append(pkgs, toPackage(p))
	}
	return pkgs, nil
}

// FetchPackageDetails resolves the download URL and checksum for a
// single package id, a second round trip per spec.md §4.4 (disco
// separates listing from per-package checksum lookup).
func (s *Source) FetchPackageDetails(id string) (cache.Package, error) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, s.baseURL()+"/ids/"+id, nil)
	if err != nil {
		return cache.Package{}, kopierr.Wrap(kopierr.KindNetwork, "building package detail request", err)
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return cache.Package{}, kopierr.Wrap(kopierr.KindNetwork, "fetching package details", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return cache.Package{}, kopierr.Wrap(kopierr.KindNetwork, "reading package detail response", err)
	}
	var detail discoResponse
	if err := json.Unmarshal(body, &detail); err != nil || len(detail.Result) == 0 {
		return cache.Package{}, kopierr.New(kopierr.KindVersionNotAvailable, "no package with id "+id)
	}
	pkg := toPackage(detail.Result[0])

	if checksum, checksumType, ok := s.fetchChecksum(id); ok {
		pkg.Checksum = checksum
		pkg.ChecksumType = checksumType
	}
	return pkg, nil
}

// fetchChecksum resolves the checksum sidecar endpoint; disco omits
// the checksum from the package listing itself.
func (s *Source) fetchChecksum(id string) (checksum, checksumType string, ok bool) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, s.baseURL()+"/ids/"+id+"/checksum", nil)
	if err != nil {
		return "", "", false
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return "", "", false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", "", false
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", false
	}
	return strings.TrimSpace(string(body)), "sha256", true
}

func (s *Source) LastUpdated() (time.Time, bool) { return time.Time{}, false }

// Package install implements component F of spec.md §4.5: the full
// Plan → AcquireInstallLock → Download → VerifyChecksum →
// ExtractToTemp → DetectStructure → PublishAtomic → WriteMetadata →
// ReleaseLock state machine.
//
// Has no single teacher analogue (jenvy's providers fetch a ready
// binary URL and never unpack anything); grounded in the state
// sequence spec.md §4.5 itself specifies, with each step built from
// the sibling packages that already implement it (internal/archive,
// internal/cache, internal/locking, internal/storage) the way the
// teacher composes providers + utils into one command handler.
package install

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	units "github.com/docker/go-units"
	"github.com/otiai10/copy"

	"github.com/kopi-vm/kopi/internal/archive"
	"github.com/kopi-vm/kopi/internal/cache"
	"github.com/kopi-vm/kopi/internal/kopierr"
	"github.com/kopi-vm/kopi/internal/kopihome"
	"github.com/kopi-vm/kopi/internal/locking"
	"github.com/kopi-vm/kopi/internal/metadata"
	"github.com/kopi-vm/kopi/internal/progress"
	"github.com/kopi-vm/kopi/internal/storage"
	"github.com/kopi-vm/kopi/internal/version"
)

// SmallFileThreshold is spec.md §4.5's default threshold above which a
// progress bar is mandatory rather than optional.
const SmallFileThreshold = 10 * units.MiB

// Options configures one installation attempt.
type Options struct {
	Force        bool
	LockOptions  locking.Options
	Progress     progress.Sink
	MaxRetries   int
	RetryBackoff *locking.Backoff
}

// Installer composes the sibling packages into the state machine.
type Installer struct {
	Paths      kopihome.Paths
	Provider   *metadata.Provider
	Controller *locking.Controller
	Client     *http.Client
}

func New(paths kopihome.Paths, provider *metadata.Provider, controller *locking.Controller) *Installer {
	return &Installer{Paths: paths, Provider: provider, Controller: controller, Client: &http.Client{Timeout: 0}}
}

// Plan resolves req against the metadata provider to a concrete
// Package, and checks the AlreadyExists precondition.
func (i *Installer) Plan(req version.Request, opts Options) (cache.Package, error) {
	c, err := cache.Load(i.Paths.CacheFile)
	if err != nil {
		fetched, fetchErr := i.Provider.FetchAll()
		if fetchErr != nil {
			return cache.Package{}, kopierr.Wrap(kopierr.KindVersionNotAvailable, "no cached metadata and refresh failed", fetchErr)
		}
		c = fetched
		_ = cache.Save(i.Paths.CacheFile, c, i.Controller, opts.LockOptions)
	}

	matches, err := cache.Search(c, req, cache.SearchPrefix)
	if err != nil {
		return cache.Package{}, err
	}
	if len(matches) == 0 {
		return cache.Package{}, kopierr.New(kopierr.KindVersionNotAvailable, "no package matches "+req.String())
	}
	pkg := matches[0]
	for _, m := range matches[1:] {
		mv, err1 := version.Parse(m.Version)
		pv, err2 := version.Parse(pkg.Version)
		if err1 == nil && err2 == nil && version.Compare(mv, pv) > 0 {
			pkg = m
		}
	}

	dist := version.ParseDistribution(pkg.Distribution)
	pkgVersion, err := version.Parse(pkg.Version)
	if err != nil {
		return cache.Package{}, kopierr.Wrap(kopierr.KindVersionNotAvailable, "package has unparseable version", err)
	}
	installDir := i.Paths.InstallDir(storage.DirName(dist, pkgVersion))
	if _, err := os.Stat(installDir); err == nil && !opts.Force {
		return cache.Package{}, kopierr.New(kopierr.KindAlreadyExists, installDir)
	}
	return pkg, nil
}

// Install runs the full state machine for pkg, returning the finished
// storage.InstalledJdk on success.
func (i *Installer) Install(pkg cache.Package, opts Options) (storage.InstalledJdk, error) {
	guard, err := i.Controller.Acquire(locking.Installation(pkg.ID), opts.LockOptions)
	if err != nil {
		return storage.InstalledJdk{}, err
	}
	defer guard.Release()

	if err := i.Paths.EnsureDirs(); err != nil {
		return storage.InstalledJdk{}, kopierr.Wrap(kopierr.KindIO, "preparing kopi home", err)
	}

	partPath := filepath.Join(i.Paths.Tmp, pkg.ID+".part")
	os.Remove(partPath) // discard any partial file from a prior run; no resume

	if err := i.download(pkg, partPath, opts); err != nil {
		os.Remove(partPath)
		return storage.InstalledJdk{}, err
	}

	if err := verifyChecksum(partPath, pkg); err != nil {
		os.Remove(partPath)
		return storage.InstalledJdk{}, err
	}

	extractDir := filepath.Join(i.Paths.Tmp, pkg.ID+".dir")
	os.RemoveAll(extractDir)
	defer os.RemoveAll(extractDir)

	format, err := archive.DetectFormat(pkg.URL)
	if err != nil {
		os.Remove(partPath)
		return storage.InstalledJdk{}, err
	}
	if err := archive.Extract(partPath, format, extractDir, opts.Progress); err != nil {
		os.Remove(partPath)
		return storage.InstalledJdk{}, err
	}
	os.Remove(partPath)

	structureType, javaHomeSuffix, err := archive.DetectStructure(extractDir)
	if err != nil {
		return storage.InstalledJdk{}, err
	}

	dist := version.ParseDistribution(pkg.Distribution)
	pkgVersion, err := version.Parse(pkg.Version)
	if err != nil {
		return storage.InstalledJdk{}, kopierr.Wrap(kopierr.KindVersionNotAvailable, "package has unparseable version", err)
	}
	installDir := i.Paths.InstallDir(storage.DirName(dist, pkgVersion))

	if err := publishAtomic(extractDir, installDir, opts.Force); err != nil {
		return storage.InstalledJdk{}, err
	}

	sidecarPath := i.Paths.SidecarPath(storage.DirName(dist, pkgVersion))
	sidecar := storage.Sidecar{
		Package: storage.PackageDescriptor{
			ID: pkg.ID, Distribution: pkg.Distribution, Version: pkg.Version,
			URL: pkg.URL, Checksum: pkg.Checksum, ChecksumType: pkg.ChecksumType, SizeBytes: pkg.SizeBytes,
		},
		InstallationMeta: storage.InstallationMeta{
			JavaHomeSuffix:  javaHomeSuffix,
			StructureType:   structureType,
			Platform:        pkg.OS + "/" + pkg.Arch,
			MetadataVersion: storage.CurrentMetadataVersion,
		},
	}
	if err := storage.WriteSidecarAtomic(sidecarPath, sidecar); err != nil {
		os.RemoveAll(installDir)
		return storage.InstalledJdk{}, err
	}

	return storage.InstalledJdk{Distribution: dist, Version: pkgVersion, InstallPath: installDir}, nil
}

func (i *Installer) download(pkg cache.Package, destPath string, opts Options) error {
	backoff := opts.RetryBackoff
	if backoff == nil {
		backoff = locking.NewBackoff()
	}
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 5
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff.Next())
		}
		if err := i.downloadOnce(pkg, destPath, opts); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return kopierr.Wrap(kopierr.KindNetwork, fmt.Sprintf("download failed after %d attempts", maxRetries+1), lastErr)
}

func (i *Installer) downloadOnce(pkg cache.Package, destPath string, opts Options) error {
	resp, err := i.Client.Get(pkg.URL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer out.Close()

	sink := opts.Progress
	if sink == nil {
		sink = progress.Noop()
	}
	total := resp.ContentLength
	if total <= 0 {
		total = pkg.SizeBytes
	}
	sink.Start(fmt.Sprintf("downloading %s (%s)", pkg.ID, units.HumanSize(float64(total))), total)
	defer sink.Finish()

	w := io.MultiWriter(out, progress.NewWriterSink(sink))
	_, err = io.Copy(w, resp.Body)
	return err
}

// newChecksumHash returns the hash.Hash for a package's declared
// checksum_type (spec.md §4.5: "SHA-256 (or declared algorithm)"),
// defaulting to SHA-256 when the field is absent or unrecognized.
func newChecksumHash(checksumType string) hash.Hash {
	switch strings.ToLower(strings.TrimSpace(checksumType)) {
	case "sha512":
		return sha512.New()
	case "sha1":
		return sha1.New()
	case "md5":
		return md5.New()
	default:
		return sha256.New()
	}
}

func verifyChecksum(path string, pkg cache.Package) error {
	if pkg.Checksum == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return kopierr.Wrap(kopierr.KindIO, "opening downloaded file for checksum", err)
	}
	defer f.Close()

	h := newChecksumHash(pkg.ChecksumType)
	if _, err := io.Copy(h, f); err != nil {
		return kopierr.Wrap(kopierr.KindIO, "hashing downloaded file", err)
	}
	sum := hex.EncodeToString(h.Sum(nil))
	if !strings.EqualFold(sum, pkg.Checksum) {
		return kopierr.New(kopierr.KindChecksumMismatch,
			fmt.Sprintf("expected %s, computed %s for %s", pkg.Checksum, sum, pkg.ID))
	}
	return nil
}

// publishAtomic renames extractDir to installDir. When that rename fails
// (e.g. tmp/ and jdks/ on different filesystems) it copies with
// otiai10/copy into a hidden sibling of installDir and renames that
// sibling into place, so installDir never appears half-copied.
func publishAtomic(extractDir, installDir string, force bool) error {
	if _, err := os.Stat(installDir); err == nil {
		if !force {
			return kopierr.New(kopierr.KindAlreadyExists, installDir)
		}
		if err := os.RemoveAll(installDir); err != nil {
			return kopierr.Wrap(kopierr.KindIO, "removing existing installation for --force", err)
		}
	}

	if err := os.Rename(extractDir, installDir); err == nil {
		return nil
	}

	staging := filepath.Join(filepath.Dir(installDir), "."+filepath.Base(installDir)+".publishing")
	os.RemoveAll(staging)
	if err := copy.Copy(extractDir, staging); err != nil {
		os.RemoveAll(staging)
		return kopierr.Wrap(kopierr.KindIO, "publishing installation across filesystems", err)
	}
	if err := os.Rename(staging, installDir); err != nil {
		os.RemoveAll(staging)
		return kopierr.Wrap(kopierr.KindIO, "publishing installation across filesystems", err)
	}
	return nil
}

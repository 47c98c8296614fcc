// Package version implements the Version/VersionRequest data model of
// spec.md §3: an ordered tuple of 1-5 numeric components, an optional
// build tag, and an optional pre-release tag, with the comparison and
// flexible-match rules §3/§4.2 specify.
//
// Parsing is grounded in internal/utils/jdk_utils.go's ParseVersionNumber
// from the teacher repo, generalized from the fixed 3-component
// major/minor/patch tuple to the variable-length component vector plus
// build tag the spec requires (Masterminds/semver/v3 is used only for
// the constraint-query convenience surface in internal/cache, since its
// Version type is too strict about component count for Java's own
// versioning scheme).
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is the parsed version part of a JDK version spec: in
// "temurin@21.0.5+11" the "21.0.5+11" decomposes into
// Components=[21,0,5], Build="11" (the distribution belongs to Request).
type Version struct {
	Components []int
	Build      string
	PreRelease string
}

// Parse decomposes a version string of the form
// "<n>(.<n>){0,4}(-<prerelease>)?(+<build>)?" after normalizing the
// legacy Java 8 spellings ("1.8.0_452-b09", "8u352").
func Parse(raw string) (Version, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Version{}, fmt.Errorf("version: empty string")
	}
	s = normalizeLegacyJava8(s)

	var build, preRelease string
	if idx := strings.IndexByte(s, '+'); idx != -1 {
		build = s[idx+1:]
		s = s[:idx]
	}
	if idx := strings.IndexByte(s, '-'); idx != -1 {
		preRelease = s[idx+1:]
		s = s[:idx]
	}

	parts := strings.Split(s, ".")
	if len(parts) == 0 || len(parts) > 5 {
		return Version{}, fmt.Errorf("version: %q has an unsupported number of components", raw)
	}

	components := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Version{}, fmt.Errorf("version: %q is not numeric in %q", p, raw)
		}
		components = append(components, n)
	}

	return Version{Components: components, Build: build, PreRelease: preRelease}, nil
}

// normalizeLegacyJava8 rewrites "1.8.0_452-b09" and "8u352" style
// strings into the modern "8.0.452" form before the generic parser
// runs, grounded in ParseVersionNumber's special-cased prefixes.
func normalizeLegacyJava8(s string) string {
	if strings.HasPrefix(s, "8u") {
		update := strings.TrimPrefix(s, "8u")
		if idx := strings.IndexAny(update, "-+"); idx != -1 {
			update = update[:idx]
		}
		return "8.0." + update
	}
	if strings.HasPrefix(s, "1.8.0") {
		rest := strings.TrimPrefix(s, "1.8.0")
		if strings.HasPrefix(rest, "_") {
			rest = rest[1:]
			if idx := strings.IndexAny(rest, "-+"); idx != -1 {
				rest = rest[:idx]
			}
			if rest == "" {
				return "8.0.0"
			}
			return "8.0." + rest
		}
		return "8.0.0"
	}
	return s
}

// String re-serializes the version to canonical form: components
// joined by '.', then "-prerelease" and "+build" if present. This is
// the counterpart half of round-trip law L1: Parse(v.String()) is
// logically equal to v even though the literal input spelling may
// have differed (e.g. "1.8.0_452" formats back as "8.0.452").
func (v Version) String() string {
	parts := make([]string, len(v.Components))
	for i, c := range v.Components {
		parts[i] = strconv.Itoa(c)
	}
	s := strings.Join(parts, ".")
	if v.PreRelease != "" {
		s += "-" + v.PreRelease
	}
	if v.Build != "" {
		s += "+" + v.Build
	}
	return s
}

// Equal reports logical equality: same components, build, and
// pre-release, independent of literal spelling.
func (v Version) Equal(other Version) bool {
	return Compare(v, other) == 0 &&
		v.Build == other.Build && v.PreRelease == other.PreRelease
}

// Compare orders two versions component-wise, numerically, treating a
// shorter component vector as a prefix match (equal) against a longer
// one up to the shorter's length, then falling back to length as the
// final tiebreaker (shorter = less specific = "less").
func Compare(a, b Version) int {
	if c := compareComponents(a.Components, b.Components); c != 0 {
		return c
	}
	return len(a.Components) - len(b.Components)
}

func compareComponents(a, b []int) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[i] - b[i]
		}
	}
	return 0
}

// IsPrefixOf reports whether v's component vector is a prefix of
// other's — the core of the flexible-match rule in spec.md §4.2: a
// request of "21" matches any installed "21.x.y.z".
func (v Version) IsPrefixOf(other Version) bool {
	if len(v.Components) > len(other.Components) {
		return false
	}
	for i, c := range v.Components {
		if other.Components[i] != c {
			return false
		}
	}
	return true
}

// MatchesBuild reports whether v's build tag is promoted into the
// installed version's component vector at the position immediately
// following v's own components (the build-number-promoted-into-
// component-4 rule spec.md §3 describes: a request "21.0.5+11"
// matches an installed "21.0.5.11.1" because 11 sits at
// other.Components[len(v.Components)], i.e. index 3). The match is
// positional, not "appears anywhere": "21.0.5+1" against
// "21.0.5.11.1" fails even though 1 occurs at index 4, and
// "21.0.5+12" fails because index 3 holds 11 (spec.md §8 scenario 4).
func (v Version) MatchesBuild(other Version) bool {
	if v.Build == "" {
		return false
	}
	n, err := strconv.Atoi(v.Build)
	if err != nil {
		return false
	}
	idx := len(v.Components)
	if idx >= len(other.Components) {
		return false
	}
	return other.Components[idx] == n
}

// Matches implements spec.md §4.2's combined rule used by
// storage.FindMatchingJdks: a request with no build tag matches by
// plain prefix; a request with a build tag must also satisfy a build
// check, since the build tag exists specifically to disambiguate
// installs that already share the same numeric prefix (spec.md §8
// scenario 4: "21.0.5+12" does not match "21.0.5.11.1" even though
// [21,0,5] is a prefix of it). The build check has two forms depending
// on how the installed version spells its own build: if the installed
// version carries a literal build tag of its own (e.g. an install
// directory literally named "temurin-21.0.5+11"), the two tags must be
// equal outright; otherwise the request's build is checked positionally
// against the installed version's promoted trailing component (e.g.
// corretto's "21.0.5.11.1" naming).
func (v Version) Matches(installed Version) bool {
	if !v.IsPrefixOf(installed) {
		return false
	}
	if v.Build == "" {
		return true
	}
	if installed.Build != "" {
		return installed.Build == v.Build
	}
	return v.MatchesBuild(installed)
}

// IsLTS reports whether the version's major component is a known Java
// LTS line, with a textual "lts" marker fallback — grounded in
// IsLTSVersion from the teacher repo.
func (v Version) IsLTS() bool {
	if len(v.Components) == 0 {
		return false
	}
	major := v.Components[0]
	for _, lts := range []int{8, 11, 17, 21, 25} {
		if major == lts {
			return true
		}
	}
	return strings.Contains(strings.ToLower(v.PreRelease), "lts")
}

// Major returns the first component, or 0 if Components is empty.
func (v Version) Major() int {
	if len(v.Components) == 0 {
		return 0
	}
	return v.Components[0]
}

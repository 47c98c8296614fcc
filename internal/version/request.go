package version

import (
	"fmt"
	"strings"
)

// PackageType distinguishes a full JDK from a JRE-only package.
type PackageType int

const (
	PackageTypeAny PackageType = iota
	PackageTypeJDK
	PackageTypeJRE
)

func (p PackageType) String() string {
	switch p {
	case PackageTypeJDK:
		return "jdk"
	case PackageTypeJRE:
		return "jre"
	default:
		return "any"
	}
}

// Distribution is the recognized-vendor enum of spec.md §3. Other holds
// any vendor name kopi doesn't have a built-in case for.
type Distribution struct {
	name string
}

var knownDistributions = []struct {
	name, display, prefix string
}{
	{"temurin", "Eclipse Temurin", "temurin"},
	{"corretto", "Amazon Corretto", "corretto"},
	{"zulu", "Azul Zulu", "zulu"},
	{"liberica", "BellSoft Liberica", "liberica"},
	{"graalvm-ce", "GraalVM CE", "graalvm-ce"},
	{"sapmachine", "SAP Machine", "sapmachine"},
	{"dragonwell", "Alibaba Dragonwell", "dragonwell"},
	{"semeru", "IBM Semeru", "semeru"},
	{"kona", "Tencent Kona", "kona"},
	{"openjdk", "OpenJDK", "openjdk"},
}

// ParseDistribution resolves a distribution name to its canonical enum
// value, falling back to an Other(name) case for unrecognized vendors
// (spec.md §3's open variant).
func ParseDistribution(name string) Distribution {
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, d := range knownDistributions {
		if d.name == lower {
			return Distribution{name: d.name}
		}
	}
	return Distribution{name: lower}
}

func (d Distribution) String() string { return d.name }

func (d Distribution) DisplayName() string {
	for _, known := range knownDistributions {
		if known.name == d.name {
			return known.display
		}
	}
	return d.name
}

func (d Distribution) IsKnown() bool {
	for _, known := range knownDistributions {
		if known.name == d.name {
			return true
		}
	}
	return false
}

// MatchDistributionPrefix finds the longest known distribution prefix
// at the start of dirName, used by storage to split "<dist>-<version>"
// directory names (spec.md §4.2: "prefix match, longest first, to
// handle graalvm-ce-21.0.1").
func MatchDistributionPrefix(dirName string) (dist Distribution, rest string, ok bool) {
	best := -1
	for _, d := range knownDistributions {
		prefix := d.prefix + "-"
		if strings.HasPrefix(dirName, prefix) && len(prefix) > best {
			best = len(prefix)
			dist = Distribution{name: d.name}
			rest = dirName[len(prefix):]
			ok = true
		}
	}
	if ok {
		return dist, rest, true
	}
	// Unknown vendor: split on the first hyphen, as spec.md §4.2 directs.
	idx := strings.IndexByte(dirName, '-')
	if idx == -1 {
		return Distribution{}, "", false
	}
	return Distribution{name: dirName[:idx]}, dirName[idx+1:], true
}

// Request is the value object produced by the version resolver (E) and
// consumed by storage, the installer, and the shim: spec.md §3's
// VersionRequest. It has no mutable field — every method returns a new
// value.
type Request struct {
	Distribution *Distribution
	Pattern      Version
	PackageType  PackageType
}

// ParseRequest parses "[<dist>@]<version>" strings as accepted from
// KOPI_JAVA_VERSION, .kopi-version, the global default file, and CLI
// arguments.
func ParseRequest(raw string) (Request, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Request{}, fmt.Errorf("version request: empty string")
	}
	var distPart, versionPart string
	if idx := strings.IndexByte(s, '@'); idx != -1 {
		distPart = s[:idx]
		versionPart = s[idx+1:]
	} else {
		versionPart = s
	}
	v, err := Parse(versionPart)
	if err != nil {
		return Request{}, err
	}
	req := Request{Pattern: v}
	if distPart != "" {
		d := ParseDistribution(distPart)
		req.Distribution = &d
	}
	return req, nil
}

func (r Request) String() string {
	if r.Distribution != nil {
		return fmt.Sprintf("%s@%s", r.Distribution.String(), r.Pattern.String())
	}
	return r.Pattern.String()
}

// MatchesDistribution reports whether r's optional distribution filter
// accepts d (an unset filter accepts anything).
func (r Request) MatchesDistribution(d Distribution) bool {
	return r.Distribution == nil || r.Distribution.String() == d.String()
}

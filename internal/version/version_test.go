package version

import "testing"

func TestParseVersionNumber(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []int
	}{
		{"major only", "17", []int{17}},
		{"major.minor", "17.0", []int{17, 0}},
		{"full", "21.0.2", []int{21, 0, 2}},
		{"java8 legacy", "1.8.0_452-b09", []int{8, 0, 452}},
		{"java8 legacy no update", "1.8.0", []int{8, 0, 0}},
		{"java8 modern", "8.0.392", []int{8, 0, 392}},
		{"liberica java8", "8u352", []int{8, 0, 352}},
		{"build suffix stripped", "21.0.2+13", []int{21, 0, 2}},
		{"prerelease stripped", "22.0.0-ea", []int{22, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.input, err)
			}
			if len(v.Components) != len(tt.want) {
				t.Fatalf("Parse(%q) = %v, want %v", tt.input, v.Components, tt.want)
			}
			for i := range tt.want {
				if v.Components[i] != tt.want[i] {
					t.Fatalf("Parse(%q) = %v, want %v", tt.input, v.Components, tt.want)
				}
			}
		})
	}
}

func TestParseBuildTag(t *testing.T) {
	v, err := Parse("21.0.5+11")
	if err != nil {
		t.Fatal(err)
	}
	if v.Build != "11" {
		t.Fatalf("Build = %q, want %q", v.Build, "11")
	}
}

func TestParseInvalid(t *testing.T) {
	for _, s := range []string{"", "abc", "1.2.3.4.5.6"} {
		if _, err := Parse(s); err == nil {
			t.Fatalf("Parse(%q) expected error", s)
		}
	}
}

// TestRoundTrip checks law L1: Parse(v.String()) is logically equal to
// v for every valid version, even when the canonical spelling differs
// from the input (legacy Java 8 forms).
func TestRoundTrip(t *testing.T) {
	inputs := []string{"17", "17.0.5", "21.0.5+11", "8.0.392", "22.0.0-ea"}
	for _, in := range inputs {
		v, err := Parse(in)
		if err != nil {
			t.Fatal(err)
		}
		again, err := Parse(v.String())
		if err != nil {
			t.Fatalf("re-parse of %q failed: %v", v.String(), err)
		}
		if !v.Equal(again) {
			t.Fatalf("round trip mismatch: %v != %v (via %q)", v, again, v.String())
		}
	}
}

// TestFlexibleBuildMatch mirrors end-to-end scenario 4 of spec.md §8.
func TestFlexibleBuildMatch(t *testing.T) {
	installed, err := Parse("21.0.5.11.1")
	if err != nil {
		t.Fatal(err)
	}

	matches11, err := ParseRequest("corretto@21.0.5+11")
	if err != nil {
		t.Fatal(err)
	}
	if !matches11.Pattern.Matches(installed) {
		t.Fatalf("expected 21.0.5+11 to match 21.0.5.11.1")
	}

	matches12, err := ParseRequest("corretto@21.0.5+12")
	if err != nil {
		t.Fatal(err)
	}
	if matches12.Pattern.Matches(installed) {
		t.Fatalf("expected 21.0.5+12 to NOT match 21.0.5.11.1")
	}

	prefixOnly, err := ParseRequest("corretto@21")
	if err != nil {
		t.Fatal(err)
	}
	if !prefixOnly.Pattern.Matches(installed) {
		t.Fatalf("expected bare 21 to match 21.0.5.11.1 as a prefix")
	}
}

func TestMatchDistributionPrefixLongestWins(t *testing.T) {
	dist, rest, ok := MatchDistributionPrefix("graalvm-ce-21.0.1")
	if !ok {
		t.Fatal("expected a match")
	}
	if dist.String() != "graalvm-ce" || rest != "21.0.1" {
		t.Fatalf("got dist=%q rest=%q", dist.String(), rest)
	}
}

func TestIsLTS(t *testing.T) {
	tests := []struct {
		v    string
		want bool
	}{
		{"17.0.5", true},
		{"21", true},
		{"19.0.2", false},
		{"8.0.392", true},
	}
	for _, tt := range tests {
		v, err := Parse(tt.v)
		if err != nil {
			t.Fatal(err)
		}
		if got := v.IsLTS(); got != tt.want {
			t.Fatalf("IsLTS(%q) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

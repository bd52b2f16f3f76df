package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a major.minor API version.
type Version struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
}

// ParseVersion parses "major.minor". A bare major ("2") is accepted as "2.0".
func ParseVersion(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Version{}, fmt.Errorf("empty version")
	}
	major, minor, found := strings.Cut(s, ".")
	v := Version{}
	var err error
	if v.Major, err = versionPart(major); err != nil {
		return Version{}, fmt.Errorf("invalid version %q", s)
	}
	if found {
		if v.Minor, err = versionPart(minor); err != nil {
			return Version{}, fmt.Errorf("invalid version %q", s)
		}
	}
	return v, nil
}

// versionPart parses a run of ASCII digits. Atoi alone would accept a sign.
func versionPart(s string) (int, error) {
	if s == "" {
		return 0, strconv.ErrSyntax
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.Atoi(s)
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Compare returns -1, 0 or 1.
func (v Version) Compare(o Version) int {
	switch {
	case v.Major != o.Major:
		if v.Major < o.Major {
			return -1
		}
		return 1
	case v.Minor < o.Minor:
		return -1
	case v.Minor > o.Minor:
		return 1
	}
	return 0
}

// Less reports whether v sorts before o.
func (v Version) Less(o Version) bool {
	return v.Compare(o) < 0
}

// APIVersion is one requested API at one version.
type APIVersion struct {
	API     string  `json:"api"`
	Version Version `json:"version"`
}

func (a APIVersion) String() string {
	return a.API + "=" + a.Version.String()
}

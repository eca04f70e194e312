package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// VersionDigits is the zero padded width of a version directory name.
const VersionDigits = 4

// MaxVersion is the highest version number an asset can hold.
const MaxVersion VersionID = 9999

// AssetScope is the VersionID used by ledger operations that target the
// asset as a whole instead of one version.
const AssetScope VersionID = 0

var versionDirPattern = regexp.MustCompile(`^v[0-9]{4}$`)

// VersionID identifies a version of an asset, 1 through MaxVersion.
type VersionID int

// String renders the version as its directory name, e.g. "v0007".
func (v VersionID) String() string {
	return fmt.Sprintf("v%0*d", VersionDigits, int(v))
}

// Valid reports whether v is a usable version number.
func (v VersionID) Valid() bool {
	return v >= 1 && v <= MaxVersion
}

// IsVersionDirName reports whether name is formatted like a version directory.
func IsVersionDirName(name string) bool {
	return versionDirPattern.MatchString(name)
}

// ParseVersion accepts either a directory name ("v0007") or a bare number ("7").
func ParseVersion(s string) (VersionID, error) {
	s = strings.TrimSpace(s)
	var n int
	var err error
	switch {
	case IsVersionDirName(s):
		n, err = strconv.Atoi(s[1:])
	case s != "" && strings.Trim(s, "0123456789") == "":
		n, err = strconv.Atoi(s)
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}
	v := VersionID(n)
	if !v.Valid() {
		return 0, fmt.Errorf("%w: %q is outside 1-%d", ErrInvalidVersion, s, MaxVersion)
	}
	return v, nil
}

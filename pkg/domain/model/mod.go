package model

import (
	"strconv"
	"strings"
)

// ModID identifies a mod within one catalog and game domain. It is not unique
// across catalogs.
type ModID int64

// FileID identifies one downloadable artifact of a mod
type FileID int64

// GameDomain is the namespace of a target game within a catalog, such as
// "skyrimspecialedition". Every pipeline operation is scoped to one domain.
type GameDomain string

func (x ModID) String() string {
	return strconv.FormatInt(int64(x), 10)
}

func (x FileID) String() string {
	return strconv.FormatInt(int64(x), 10)
}

func (x GameDomain) String() string {
	return string(x)
}

// ParseModID parses a raw mod identifier such as a folder name. Only decimal
// non-negative integers are accepted.
func ParseModID(s string) (ModID, bool) {
	if s == "" || strings.TrimSpace(s) != s {
		return 0, false
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return ModID(v), true
}

// Subscription is a mod subscribed by a GameBanana member
type Subscription struct {
	ModID      ModID
	Name       string
	ProfileURL string
}

// nameReplacer maps characters that are illegal in file names on common
// filesystems to a placeholder.
var nameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
)

// SanitizeName converts a display name into a single safe path element.
// Control characters are replaced as well. The result may be empty or a dot
// name; callers must reject those.
func SanitizeName(name string) string {
	replaced := nameReplacer.Replace(name)
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return '_'
		}
		return r
	}, replaced)
}

// IsUsableName returns true if a sanitized name can be used as a folder name
func IsUsableName(name string) bool {
	trimmed := strings.TrimSpace(name)
	return trimmed != "" && trimmed != "." && trimmed != ".."
}

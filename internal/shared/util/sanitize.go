package util

import (
	"path"
	"strings"
	"unicode"
)

const maxFileNameRunes = 128

// SanitizeFileName reduces a client-supplied upload name to a bare base name
// that is safe to log and to use as a scratch file name. Directory parts and
// control characters are dropped. The second return is false when nothing
// usable remains, in which case "upload" is returned.
func SanitizeFileName(name string) (string, bool) {
	name = strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	name = path.Base(name)
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." || name == "/" {
		return "upload", false
	}
	if runes := []rune(name); len(runes) > maxFileNameRunes {
		name = string(runes[:maxFileNameRunes])
	}
	return name, true
}

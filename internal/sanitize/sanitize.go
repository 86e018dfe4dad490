// Package sanitize strips filenames down to ASCII letters, digits,
// underscore and hyphen.
package sanitize

import (
	"regexp"
	"strings"
)

// Disallowed matches every character a clean filename may not contain.
var Disallowed = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// Clean deletes every disallowed character from s.
func Clean(s string) string {
	return Disallowed.ReplaceAllString(s, "")
}

// Extension returns the extension component of name without its dot.
// A name has no extension when it contains no dot or when its only dot
// leads the name, as in ".pdf". "report." has an empty extension.
func Extension(name string) (string, bool) {
	idx := strings.LastIndexByte(name, '.')
	if idx <= 0 {
		return "", false
	}
	return name[idx+1:], true
}

// Filename cleans the stem and the extension separately and rejoins them
// with the original dot. The dot is kept only between a non-empty stem and
// a non-empty extension, otherwise "$.pdf" would turn into the dotfile
// ".pdf" and stop having an extension on the next pass.
func Filename(name string) string {
	ext, ok := Extension(name)
	if !ok {
		return Clean(name)
	}
	stem := Clean(name[:len(name)-len(ext)-1])
	ext = Clean(ext)
	if stem == "" || ext == "" {
		return stem + ext
	}
	return stem + "." + ext
}

// WholeName applies the character class to the entire filename, so the
// extension dot is removed along with everything else: "a b.pdf" becomes
// "abpdf".
func WholeName(name string) string {
	return Clean(name)
}

// Func maps a filename to its sanitized form.
type Func func(name string) string

// For returns WholeName when whole is set and Filename otherwise.
func For(whole bool) Func {
	if whole {
		return WholeName
	}
	return Filename
}

// IsClean reports whether fn leaves name unchanged.
func IsClean(fn Func, name string) bool {
	return fn(name) == name
}

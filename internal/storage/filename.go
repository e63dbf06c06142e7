package storage

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const replacementChar = '_'

// Characters rejected by at least one major filesystem.
const invalidFilenameChars = `<>:"/\|?*`

//nolint:gochecknoglobals // static lookup table
var reservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

var errEmptyFilename = errors.New("filename is empty after sanitization")

// SanitizeFilename turns a page title into a portable file base name of at
// most maxLength bytes. Non-ASCII letters pass through unchanged.
func SanitizeFilename(title string, maxLength int) (string, error) {
	title = strings.TrimSpace(strings.ReplaceAll(title, "_", " "))

	var b strings.Builder
	lastReplaced := false
	for _, r := range title {
		if r < 32 || r == 127 || strings.ContainsRune(invalidFilenameChars, r) || r == utf8.RuneError {
			if !lastReplaced {
				b.WriteRune(replacementChar)
			}
			lastReplaced = true
			continue
		}
		b.WriteRune(r)
		lastReplaced = false
	}

	name := strings.Trim(b.String(), ". ")
	if reservedNames[strings.ToUpper(name)] {
		name = name + string(replacementChar) + "file"
	}

	name = truncateBytes(name, maxLength)
	name = strings.TrimRight(name, ". ")
	if name == "" || strings.Trim(name, string(replacementChar)) == "" {
		return "", errEmptyFilename
	}
	return name, nil
}

// truncateBytes cuts s to at most n bytes without splitting a rune.
func truncateBytes(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

package logger

import (
	"strings"
	"unicode"
)

// Length caps, in bytes, for values copied from requests into log fields.
const (
	MaxPathLength          = 500
	MaxSubjectLength       = 256
	MaxErrorMessageLength  = 1000
	MaxGeneralStringLength = 2000
)

const truncatedSuffix = "..."

// SanitizePath prepares a URL path for a log field.
func SanitizePath(path string) string {
	return SanitizeString(path, MaxPathLength)
}

// SanitizeSubject prepares a token's sub claim for a log field.
func SanitizeSubject(sub string) string {
	return SanitizeString(sub, MaxSubjectLength)
}

// SanitizeError prepares err's message for a log field. A nil error yields "".
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error(), MaxErrorMessageLength)
}

// SanitizeString drops invalid UTF-8 and every non-printable rune except
// space and tab, then cuts the result to maxLength bytes. A non-positive
// maxLength means MaxGeneralStringLength.
func SanitizeString(s string, maxLength int) string {
	if s == "" {
		return ""
	}
	if maxLength <= 0 {
		maxLength = MaxGeneralStringLength
	}

	// Newlines go too, so one request cannot forge extra log lines.
	s = strings.Map(keepPrintable, strings.ToValidUTF8(s, ""))
	if len(s) <= maxLength {
		return s
	}
	return strings.ToValidUTF8(s[:maxLength], "") + truncatedSuffix
}

func keepPrintable(r rune) rune {
	if r == ' ' || r == '\t' || unicode.IsPrint(r) {
		return r
	}
	return -1
}

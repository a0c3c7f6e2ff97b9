package handlers

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validation limits for admin inputs.
const (
	maxNameLen    = 200
	maxCaptionLen = 5_000
)

// colorPattern matches a CSS hex color like #1a2b3c.
var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// validateName checks a client or calendar display name and returns the
// first error found.
func validateName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Name is required."
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return "Name is too long (max 200 characters)."
	}
	return ""
}

// validateColor checks a calendar color value.
func validateColor(color string) string {
	if !colorPattern.MatchString(color) {
		return "Color must be a hex value like #336699."
	}
	return ""
}

// validateCaption checks a post caption.
func validateCaption(caption string) string {
	if strings.TrimSpace(caption) == "" {
		return "Caption is required."
	}
	if utf8.RuneCountInString(caption) > maxCaptionLen {
		return "Caption is too long (max 5,000 characters)."
	}
	return ""
}

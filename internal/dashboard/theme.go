package dashboard

import (
	"regexp"
	"strings"
)

const (
	DefaultBackground = "#ffffff"
	DefaultForeground = "#000000"
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Theme holds the page colors picked by the user.
type Theme struct {
	Background string
	Foreground string
}

// NewTheme validates the picked colors. Anything that is not a six digit
// hex color falls back to the default, so the values are always safe to
// inject into a style block.
func NewTheme(bg, fg string) Theme {
	return Theme{
		Background: color(bg, DefaultBackground),
		Foreground: color(fg, DefaultForeground),
	}
}

// DefaultTheme is black text on white.
func DefaultTheme() Theme {
	return Theme{Background: DefaultBackground, Foreground: DefaultForeground}
}

// IsDefault reports whether t uses the default colors.
func (t Theme) IsDefault() bool {
	return t == DefaultTheme()
}

func color(v, fallback string) string {
	v = strings.TrimSpace(v)
	if !hexColor.MatchString(v) {
		return fallback
	}
	return strings.ToLower(v)
}

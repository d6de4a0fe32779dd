package enums

import (
	"slices"
	"strings"
)

// ThemeMode is the display-mode preference of a client. System defers to
// the client's OS setting.
type ThemeMode string

const (
	ThemeModeLight  ThemeMode = "light"
	ThemeModeDark   ThemeMode = "dark"
	ThemeModeSystem ThemeMode = "system"
)

var themeModes = []ThemeMode{ThemeModeLight, ThemeModeDark, ThemeModeSystem}

func (m ThemeMode) String() string { return string(m) }

func (m ThemeMode) IsValid() bool { return slices.Contains(themeModes, m) }

func ParseThemeMode(value string) (ThemeMode, error) {
	return parse("theme mode", value, themeModes, strings.ToLower)
}

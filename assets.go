package mailify

import "github.com/2bitbit/mailify-md/internal/assets"

// DefaultTheme is the preset used when no theme is selected.
const DefaultTheme = assets.DefaultTheme

// ThemeNames lists the embedded theme presets.
func ThemeNames() []string {
	return assets.ThemeNames()
}

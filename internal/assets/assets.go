package assets

// defaultLoader serves the package-level helpers.
var defaultLoader = NewEmbeddedLoader()

// ThemeNames lists the embedded theme presets.
func ThemeNames() []string {
	return defaultLoader.ThemeNames()
}

package render

import "github.com/go-rod/rod/lib/launcher"

// Environment variables read when launching the browser.
const (
	EnvBrowserBin = "ROD_BROWSER_BIN" // path to a pre-installed Chrome/Chromium
	EnvNoSandbox  = "ROD_NO_SANDBOX"  // "1" or "true" disables the sandbox
	EnvCI         = "CI"
)

// launchSettings is what the launcher needs from the environment.
type launchSettings struct {
	bin       string
	noSandbox bool
}

// settingsFromEnv derives launch settings. NoSandbox is required in CI and
// in containers, where a pre-installed browser is the norm.
func settingsFromEnv(getenv func(string) string) launchSettings {
	bin := getenv(EnvBrowserBin)
	ns := getenv(EnvNoSandbox)
	return launchSettings{
		bin:       bin,
		noSandbox: getenv(EnvCI) == "true" || bin != "" || ns == "1" || ns == "true",
	}
}

// newLauncher configures a headless launcher. Rod downloads Chromium on
// first run when no binary is configured or found.
func newLauncher(s launchSettings) *launcher.Launcher {
	l := launcher.New().Headless(true)
	if s.bin != "" {
		l = l.Bin(s.bin)
	}
	if s.noSandbox {
		l = l.NoSandbox(true)
	}
	return l
}

package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// renderFlags holds browser rendering flags.
type renderFlags struct {
	timeout     string
	deviceScale float64
	stealth     bool
	katexURL    string
}

// trimFlags holds formula screenshot trimming flags. -1 means unset.
type trimFlags struct {
	stride int
	margin int
}

// convertFlags holds all flags for the convert command.
type convertFlags struct {
	common    commonFlags
	output    string
	workers   int
	theme     string
	assetPath string
	noLinkify bool
	render    renderFlags
	trim      trimFlags
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs and timing")
}

// addRenderFlags adds browser rendering flags to a FlagSet.
func addRenderFlags(fs *flag.FlagSet, f *renderFlags) {
	fs.StringVarP(&f.timeout, "timeout", "t", "", "render timeout per document (e.g., 30s, 2m)")
	fs.Float64Var(&f.deviceScale, "device-scale", 0, "screenshot pixel density (0 = default 3)")
	fs.BoolVar(&f.stealth, "stealth", false, "use a stealth page for remote images")
	fs.StringVar(&f.katexURL, "katex-url", "", "base URL of the KaTeX assets")
}

// addTrimFlags adds trimming flags to a FlagSet.
func addTrimFlags(fs *flag.FlagSet, f *trimFlags) {
	fs.IntVar(&f.stride, "trim-stride", -1, "pixel sampling stride when trimming formulas")
	fs.IntVar(&f.margin, "trim-margin", -1, "pixels kept around trimmed formulas")
}

// parseConvertFlags parses convert command flags and returns positional args.
func parseConvertFlags(args []string, usage io.Writer) (*convertFlags, []string, error) {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.SetOutput(usage)
	f := &convertFlags{}

	fs.StringVarP(&f.output, "output", "o", "", "output file or directory")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	fs.StringVar(&f.theme, "theme", "", "theme preset name or CSS file path")
	fs.StringVar(&f.assetPath, "asset-path", "", "custom asset directory")
	fs.BoolVar(&f.noLinkify, "no-linkify", false, "do not turn bare URLs into links")

	addCommonFlags(fs, &f.common)
	addRenderFlags(fs, &f.render)
	addTrimFlags(fs, &f.trim)

	fs.Usage = func() { printConvertUsage(usage) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

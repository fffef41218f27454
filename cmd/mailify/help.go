package main

import (
	"fmt"
	"io"
	"strings"

	mailify "github.com/2bitbit/mailify-md"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mailify <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  convert    Convert markdown files to email-ready HTML")
	fmt.Fprintln(w, "  doctor     Check the browser and environment")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "A markdown file or directory may be passed directly: mailify notes.md")
	fmt.Fprintln(w, "Run 'mailify help <command>' for details on a specific command.")
}

// printConvertUsage prints usage for the convert command.
func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mailify convert <input> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert markdown to HTML with inlined styles and embedded images and formulas.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    Markdown file or directory (optional if config has input.defaultDir)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output .html file or directory")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel workers (0 = auto)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Styling:")
	fmt.Fprintf(w, "      --theme <s>           Theme preset (%s) or CSS file path\n", strings.Join(mailify.ThemeNames(), ", "))
	fmt.Fprintln(w, "      --asset-path <dir>    Custom asset directory (themes/, templates/)")
	fmt.Fprintln(w, "      --no-linkify          Keep bare URLs as plain text")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Rendering:")
	fmt.Fprintln(w, "  -t, --timeout <d>         Render timeout per document (e.g., 30s, 2m)")
	fmt.Fprintln(w, "      --device-scale <f>    Screenshot pixel density (default 3)")
	fmt.Fprintln(w, "      --stealth             Use a stealth page for remote images")
	fmt.Fprintln(w, "      --katex-url <url>     Base URL of the KaTeX assets")
	fmt.Fprintln(w, "      --trim-stride <n>     Pixel sampling stride when trimming formulas")
	fmt.Fprintln(w, "      --trim-margin <n>     Pixels kept around trimmed formulas")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug logs and timing")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  MAILIFY_CONFIG, MAILIFY_THEME, MAILIFY_TIMEOUT, MAILIFY_WORKERS")
	fmt.Fprintln(w, "  ROD_BROWSER_BIN, ROD_NO_SANDBOX")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "convert":
		printConvertUsage(env.Stdout)
	case "doctor":
		fmt.Fprintln(env.Stdout, "Usage: mailify doctor [--json]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Check Chrome, sandbox, container/CI detection and the temp directory.")
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: mailify version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: mailify help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}

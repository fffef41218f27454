package main

import (
	"fmt"
	"os"
	"runtime"
	"slices"
)

// Version is set at build time via ldflags.
var Version = "dev"

// commands lists the subcommand names.
var commands = []string{"convert", "doctor", "version", "help"}

func main() {
	os.Exit(runMain(os.Args, DefaultEnv()))
}

// runMain dispatches args (including the program name) and returns the
// process exit code.
func runMain(args []string, env *Environment) int {
	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	cmd, rest := args[1], args[2:]
	// "mailify notes.md" is shorthand for "mailify convert notes.md".
	if !isCommand(cmd) && looksLikeInput(cmd) {
		cmd, rest = "convert", args[1:]
	}

	switch cmd {
	case "convert":
		return runConvertCmd(rest, env)
	case "doctor":
		return runDoctorCmd(rest, env)
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "mailify %s (%s, %s/%s)\n", Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		return ExitSuccess
	case "help", "-h", "--help":
		return runHelp(rest, env)
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", cmd)
		printUsage(env.Stderr)
		return ExitUsage
	}
}

// isCommand reports whether name is a subcommand.
func isCommand(name string) bool {
	return slices.Contains(commands, name)
}

// looksLikeInput reports whether arg names a markdown file or an existing
// directory rather than a command.
func looksLikeInput(arg string) bool {
	if isMarkdown(arg) {
		return true
	}
	info, err := os.Stat(arg)
	return err == nil && info.IsDir()
}

package assets

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/2bitbit/mailify-md/internal/fileutil"
)

// Built-in names and defaults.
const (
	// DefaultTheme is the preset used when no theme is selected.
	DefaultTheme = "light"

	// DefaultCodeStyle applies when a theme carries no CODE_STYLE directive.
	DefaultCodeStyle = "github-dark"

	// SkeletonTemplate names the document skeleton template.
	SkeletonTemplate = "skeleton"

	// ContainerClass is the class of the element wrapping the rendered content.
	// Its computed background color is the reference color for formula trimming.
	ContainerClass = "container"

	// ContentPlaceholder marks where the rendered fragment goes in the skeleton.
	ContentPlaceholder = "<!-- mailify:content -->"

	// TypesetFlag is the window property set once math typesetting finished.
	TypesetFlag = "__mailifyTypeset"
)

var codeStyleDirective = regexp.MustCompile(`CODE_STYLE:\s*([A-Za-z0-9_.\-]+)\s*\*/`)

// Theme is a resolved theme: its CSS and the code highlight style it names.
type Theme struct {
	Name      string // preset name or file path as given
	CSS       string
	CodeStyle string
	// DefaultedCodeStyle is true when the CSS had no CODE_STYLE directive.
	DefaultedCodeStyle bool
}

// ResolveTheme resolves a preset name or a CSS file path into a Theme.
// Names containing a path separator or ending in .css are read from disk;
// anything else is looked up through loader.
func ResolveTheme(loader AssetLoader, nameOrPath string) (*Theme, error) {
	if nameOrPath == "" {
		nameOrPath = DefaultTheme
	}

	var css string
	if fileutil.IsFilePath(nameOrPath) || strings.HasSuffix(strings.ToLower(nameOrPath), ".css") {
		content, err := os.ReadFile(nameOrPath) // #nosec G304 -- user-selected theme file
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrThemeNotFound, nameOrPath, err)
		}
		css = string(content)
	} else {
		content, err := loader.LoadTheme(nameOrPath)
		if err != nil {
			return nil, err
		}
		css = content
	}

	css = strings.TrimSpace(css)
	style, ok := ParseCodeStyle(css)
	if !ok {
		style = DefaultCodeStyle
	}

	return &Theme{
		Name:               nameOrPath,
		CSS:                css,
		CodeStyle:          style,
		DefaultedCodeStyle: !ok,
	}, nil
}

// ParseCodeStyle extracts the style name from a CODE_STYLE directive.
func ParseCodeStyle(css string) (string, bool) {
	m := codeStyleDirective.FindStringSubmatch(css)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// BuiltinCSS returns the CSS rules every document carries before the theme.
func BuiltinCSS() string {
	return builtinCSS
}

// BuiltinJS returns the typesetting bootstrap script.
func BuiltinJS() string {
	return builtinJS
}

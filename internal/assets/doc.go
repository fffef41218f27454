// Package assets provides the themes, the document skeleton and the built-in
// CSS/JS blobs used to render Markdown into an email body.
//
// # Loader Architecture
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - loads from go:embed filesystem (light, dark)
//	    ├── FilesystemLoader  - loads from custom directory on disk
//	    └── AssetResolver     - combines both with custom-first fallback
//
// # Directory Structure
//
// A custom asset directory mirrors the embedded layout:
//
//	{basePath}/
//	├── themes/
//	│   └── {name}.css           # theme CSS with an optional CODE_STYLE directive
//	└── templates/
//	    └── skeleton.html        # document skeleton with the content placeholder
//
// # Themes
//
// A theme is selected by preset name or by CSS file path (see ResolveTheme).
// The code highlight style is named inside the CSS with a comment directive:
//
//	/* CODE_STYLE: github-dark */
//
// When the directive is missing, DefaultCodeStyle applies.
package assets

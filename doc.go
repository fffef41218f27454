// Package mailify converts Markdown documents into self-contained HTML
// email bodies.
//
// # Quick Start
//
//	conv, err := mailify.NewConverter()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conv.Close()
//
//	result, err := conv.Convert(ctx, mailify.Input{
//	    Markdown:  content,
//	    SourceDir: "/path/to/markdown", // for relative image paths
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("message.html", []byte(result.HTML), 0o644)
//
// The output carries every style rule inline on the elements it applies to,
// embeds every image as a data: URI and contains no scripts.
//
// # Conversion Pipeline
//
// Each Convert call is one cold job:
//
//  1. Front matter split and theme resolution
//  2. Markdown to HTML via Goldmark (GFM, chroma highlighting, math passthrough)
//  3. Binding into the document skeleton (theme CSS, KaTeX auto-render)
//  4. Rendering in headless Chrome (go-rod) until the network is idle and
//     typesetting has finished
//  5. Formula embedding: each typeset formula becomes a trimmed PNG
//  6. Image embedding: remote images from the render's network cache, local
//     images from disk
//  7. Script removal and CSS inlining
//
// Failures of individual images are not fatal; they are returned in
// Result.Warnings and the image is left as it was.
//
// # Configuration
//
//	conv, err := mailify.NewConverter(
//	    mailify.WithTheme("dark"),
//	    mailify.WithTimeout(time.Minute),
//	    mailify.WithLogger(slog.Default()),
//	)
//
// A theme is a preset name (see ThemeNames) or the path of a CSS file. A
// /* CODE_STYLE: <name> */ comment in the theme selects the chroma style of
// code blocks. Front matter keys title and theme override the converter
// settings for one document; lang sets the language of the HTML root.
//
// # Parallel Processing
//
// For batch conversion, use ConverterPool:
//
//	pool, err := mailify.NewConverterPool(mailify.ResolvePoolSize(0))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pool.Close()
//
//	conv, err := pool.Acquire(ctx)
//	if err != nil {
//	    return err
//	}
//	defer pool.Release(conv)
//	result, err := conv.Convert(ctx, input)
//
// # Browser Requirements
//
// Rendering requires Chrome/Chromium. go-rod downloads a managed Chromium on
// first run (~/.cache/rod/browser/). Set ROD_BROWSER_BIN to use an installed
// browser; CI=true or ROD_NO_SANDBOX=1 disables the Chrome sandbox.
package mailify

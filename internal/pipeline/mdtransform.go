package pipeline

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/2bitbit/mailify-md/internal/yamlutil"
)

// Precompiled regex patterns for performance.
var (
	// Line ending normalization
	crlfOrCR = regexp.MustCompile(`\r\n?`)

	// Literal web links anywhere in the source
	webLinkPattern = regexp.MustCompile(`https?://`)

	// ATX level-one heading, closing hashes optional
	h1Pattern = regexp.MustCompile(`(?m)^#[ \t]+(.+?)[ \t]*#*[ \t]*$`)

	// Fenced code blocks, removed before heading detection
	fencePattern = regexp.MustCompile("(?ms)^(```|~~~).*?^(```|~~~)[ \t]*$")
)

const frontMatterDelim = "---"

// FrontMatter holds the recognised keys of a leading YAML block.
type FrontMatter struct {
	Title string `yaml:"title"`
	Theme string `yaml:"theme"`
	Lang  string `yaml:"lang"`
}

// NormalizeMarkdown converts \r\n and \r to \n.
func NormalizeMarkdown(content string) string {
	return crlfOrCR.ReplaceAllString(content, "\n")
}

// SplitFrontMatter separates a leading "---" delimited YAML block from the
// Markdown body. Content without front matter is returned unchanged with a
// zero FrontMatter. Unknown keys are ignored.
func SplitFrontMatter(content string) (FrontMatter, string, error) {
	content = NormalizeMarkdown(content)
	if !strings.HasPrefix(content, frontMatterDelim+"\n") {
		return FrontMatter{}, content, nil
	}

	rest := content[len(frontMatterDelim)+1:]
	end, next := closingDelim(rest)
	if end < 0 {
		return FrontMatter{}, content, nil
	}

	block := rest[:end]
	body := rest[next:]

	var fm FrontMatter
	if strings.TrimSpace(block) == "" {
		return fm, body, nil
	}
	if err := yamlutil.Decode([]byte(block), &fm, yamlutil.Lenient); err != nil {
		return FrontMatter{}, "", fmt.Errorf("%w: %v", ErrFrontMatter, err)
	}
	fm.Title = strings.TrimSpace(fm.Title)
	fm.Theme = strings.TrimSpace(fm.Theme)
	fm.Lang = strings.TrimSpace(fm.Lang)
	return fm, body, nil
}

// closingDelim returns the offset of the line holding only "---" and the
// offset of the line after it. Both are -1 when there is no such line.
func closingDelim(s string) (int, int) {
	offset := 0
	for {
		line, after, found := strings.Cut(s[offset:], "\n")
		next := len(s) - len(after)
		if !found {
			next = len(s)
		}
		if strings.TrimRight(line, " \t") == frontMatterDelim {
			return offset, next
		}
		if !found {
			return -1, -1
		}
		offset = next
	}
}

// HasWebLinks reports whether the Markdown source contains a literal
// http:// or https:// link.
func HasWebLinks(content string) bool {
	return webLinkPattern.MatchString(content)
}

// FirstHeading returns the text of the first level-one ATX heading outside
// fenced code, or "".
func FirstHeading(content string) string {
	content = fencePattern.ReplaceAllString(NormalizeMarkdown(content), "")
	m := h1Pattern.FindStringSubmatch(content)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// expandDisplayMath rewrites a line holding only "$$tex$$" into the three
// line block form the math block parser needs. The block parser treats a
// leading "$$" as an opener and would otherwise read the rest of the
// document as TeX. Fenced code is left untouched.
func expandDisplayMath(content string) string {
	if !strings.Contains(content, "$$") {
		return content
	}

	lines := strings.Split(content, "\n")
	out := make([]string, 0, len(lines))
	fence := ""
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if marker := fenceMarker(trimmed); marker != "" {
			switch {
			case fence == "":
				fence = marker
			case strings.HasPrefix(trimmed, fence) && strings.TrimLeft(trimmed, fence[:1]) == "":
				fence = ""
			}
			out = append(out, line)
			continue
		}
		if fence != "" {
			out = append(out, line)
			continue
		}

		indent := line[:len(line)-len(strings.TrimLeft(line, " "))]
		tex, ok := oneLineDisplayMath(trimmed)
		if !ok || len(indent) > 3 {
			out = append(out, line)
			continue
		}
		out = append(out, indent+"$$", indent+tex, indent+"$$")
	}
	return strings.Join(out, "\n")
}

// fenceMarker returns the run of backticks or tildes opening a code fence.
func fenceMarker(trimmed string) string {
	for _, c := range []string{"`", "~"} {
		n := len(trimmed) - len(strings.TrimLeft(trimmed, c))
		if n >= 3 {
			return trimmed[:n]
		}
	}
	return ""
}

// oneLineDisplayMath returns the TeX of "$$tex$$". A body holding "$$"
// itself is rejected.
func oneLineDisplayMath(trimmed string) (string, bool) {
	if len(trimmed) <= 4 || !strings.HasPrefix(trimmed, "$$") || !strings.HasSuffix(trimmed, "$$") {
		return "", false
	}
	tex := strings.TrimSpace(trimmed[2 : len(trimmed)-2])
	if tex == "" || strings.Contains(tex, "$$") || strings.Trim(tex, "$") != tex {
		return "", false
	}
	return tex, true
}

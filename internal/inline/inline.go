// Package inline moves the rules of a document's <style> blocks onto the
// style attributes of the elements they match, the way email clients need.
//
// Each element gets the cascaded result of every matching rule: !important
// first, then specificity, then source order. Declarations already present in
// a style attribute win over stylesheet rules unless the rule is !important.
// Rules that cannot be resolved statically (@media, @font-face, :hover,
// ::before, selectors the matcher does not support) are kept in a single
// <style> block in <head>.
package inline

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/2bitbit/mailify-md/internal/dom"
)

// Sentinel errors for inlining.
var (
	ErrParseCSS  = errors.New("inline: cannot parse stylesheet")
	ErrParseHTML = errors.New("inline: cannot parse document")
)

// dynamicPseudo matches pseudo-classes that depend on user interaction.
var dynamicPseudo = regexp.MustCompile(`:(hover|active|focus|focus-within|focus-visible|visited|target)\b`)

// inlineSpecificity ranks style attribute declarations above any selector.
var inlineSpecificity = cascadia.Specificity{1 << 12, 0, 0}

type propState struct {
	val       string
	spec      cascadia.Specificity
	order     int
	important bool
}

type rule struct {
	sel          cascadia.Sel
	spec         cascadia.Specificity
	declarations []*css.Declaration
	order        int
}

// Inliner inlines document CSS. Safe for concurrent use.
type Inliner struct {
	keepClasses   bool
	keepStyleTags bool
	logger        *slog.Logger
}

// Option configures an Inliner.
type Option func(*Inliner)

// withKeepClasses controls whether class attributes survive inlining.
func withKeepClasses(keep bool) Option {
	return func(i *Inliner) {
		i.keepClasses = keep
	}
}

// withKeepStyleTags keeps the original <style> blocks next to the inlined styles.
func withKeepStyleTags(keep bool) Option {
	return func(i *Inliner) {
		i.keepStyleTags = keep
	}
}

// WithLogger sets the logger for skipped selectors.
func WithLogger(l *slog.Logger) Option {
	return func(i *Inliner) {
		if l != nil {
			i.logger = l
		}
	}
}

// New creates an Inliner that keeps class attributes and drops style blocks.
func New(opts ...Option) *Inliner {
	i := &Inliner{
		keepClasses: true,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Inline returns htmlDoc with its stylesheet rules inlined per element.
func (i *Inliner) Inline(htmlDoc string) (string, error) {
	tree, err := dom.Parse(htmlDoc)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrParseHTML, err)
	}

	styleNodes, err := tree.QueryAll("style")
	if err != nil {
		return "", err
	}

	var rules []rule
	var leftover []*css.Rule
	order := 0
	for _, n := range styleNodes {
		if !appliesToScreen(n) {
			continue
		}
		text := dom.Text(n)
		if strings.TrimSpace(text) == "" {
			continue
		}
		sheet, err := parser.Parse(text)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrParseCSS, err)
		}
		var rs []rule
		var keep []*css.Rule
		rs, keep, order = i.collect(sheet.Rules, order)
		rules = append(rules, rs...)
		leftover = append(leftover, keep...)
	}

	i.apply(tree.Root(), rules)

	if !i.keepStyleTags {
		if _, err := tree.RemoveAll("style"); err != nil {
			return "", err
		}
		if len(leftover) > 0 {
			appendLeftover(tree, leftover)
		}
	}

	if !i.keepClasses {
		removeClasses(tree.Root())
	}

	return tree.Render()
}

// collect splits CSS rules into statically matchable rules and leftovers.
func (i *Inliner) collect(list []*css.Rule, order int) ([]rule, []*css.Rule, int) {
	var rules []rule
	var leftover []*css.Rule

	for _, r := range list {
		if r == nil {
			continue
		}
		if r.Kind == css.AtRule {
			leftover = append(leftover, r)
			continue
		}
		if len(r.Declarations) == 0 {
			continue
		}

		var dynamic []string
		for _, s := range r.Selectors {
			sel, err := cascadia.Parse(s)
			if err != nil || sel.PseudoElement() != "" || dynamicPseudo.MatchString(s) {
				i.logger.Debug("keeping selector in style block", "selector", s)
				dynamic = append(dynamic, s)
				continue
			}
			rules = append(rules, rule{
				sel:          sel,
				spec:         sel.Specificity(),
				declarations: r.Declarations,
				order:        order,
			})
			order++
		}
		if len(dynamic) > 0 {
			leftover = append(leftover, &css.Rule{
				Kind:         css.QualifiedRule,
				Prelude:      strings.Join(dynamic, ", "),
				Selectors:    dynamic,
				Declarations: r.Declarations,
			})
		}
	}
	return rules, leftover, order
}

// apply writes the cascaded style attribute of every element under root.
func (i *Inliner) apply(root *html.Node, rules []rule) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Head, atom.Script, atom.Style:
				return
			}
			if style := computeStyle(n, rules); style != "" {
				dom.SetAttr(n, "style", style)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
}

// computeStyle returns the serialized declarations that apply to n, or "".
func computeStyle(n *html.Node, rules []rule) string {
	props := map[string]propState{}

	for _, r := range rules {
		if !r.sel.Match(n) {
			continue
		}
		for _, d := range r.declarations {
			applyDeclaration(props, d, r.spec, r.order)
		}
	}
	if len(props) == 0 {
		return ""
	}

	if existing, ok := dom.Attr(n, "style"); ok && strings.TrimSpace(existing) != "" {
		existing = strings.TrimSpace(existing)
		if !strings.HasSuffix(existing, ";") {
			existing += ";"
		}
		decls, err := parser.ParseDeclarations(existing)
		if err != nil {
			// Unparseable attribute: leave it as the author wrote it.
			return ""
		}
		for idx, d := range decls {
			applyDeclaration(props, d, inlineSpecificity, (1<<30)+idx)
		}
	}

	return serialize(props)
}

func applyDeclaration(store map[string]propState, decl *css.Declaration, spec cascadia.Specificity, order int) {
	if decl == nil {
		return
	}
	prop := strings.ToLower(strings.TrimSpace(decl.Property))
	value := strings.TrimSpace(decl.Value)
	if prop == "" || value == "" {
		return
	}

	entry := propState{val: value, spec: spec, order: order, important: decl.Important}
	prev, ok := store[prop]
	if !ok {
		store[prop] = entry
		return
	}
	if prev.important != decl.Important {
		if decl.Important {
			store[prop] = entry
		}
		return
	}
	if prev.spec.Less(spec) {
		store[prop] = entry
		return
	}
	if spec.Less(prev.spec) {
		return
	}
	if order >= prev.order {
		store[prop] = entry
	}
}

// serialize writes declarations in the order their winning rule appeared.
func serialize(props map[string]propState) string {
	names := make([]string, 0, len(props))
	for k := range props {
		names = append(names, k)
	}
	sort.Slice(names, func(a, b int) bool {
		pa, pb := props[names[a]], props[names[b]]
		if pa.order != pb.order {
			return pa.order < pb.order
		}
		return names[a] < names[b]
	})

	parts := make([]string, 0, len(names))
	for _, name := range names {
		d := css.Declaration{Property: name, Value: props[name].val, Important: props[name].important}
		parts = append(parts, d.StringWithImportant(true))
	}
	return strings.Join(parts, " ")
}

// appliesToScreen reports whether a <style> element's media attribute
// targets screens.
func appliesToScreen(n *html.Node) bool {
	media, ok := dom.Attr(n, "media")
	if !ok {
		return true
	}
	for _, q := range strings.Split(media, ",") {
		q = strings.ToLower(strings.TrimSpace(q))
		if q == "" || strings.HasPrefix(q, "all") || strings.HasPrefix(q, "screen") {
			return true
		}
	}
	return false
}

// appendLeftover adds one <style> element holding rules that were not inlined.
func appendLeftover(tree *dom.Tree, leftover []*css.Rule) {
	parent, _ := tree.Query("head")
	if parent == nil {
		parent, _ = tree.Query("body")
	}
	if parent == nil {
		parent = tree.Root()
	}

	texts := make([]string, 0, len(leftover))
	for _, r := range leftover {
		texts = append(texts, r.String())
	}

	style := dom.NewElement("style")
	style.AppendChild(&html.Node{Type: html.TextNode, Data: strings.Join(texts, "\n")})
	parent.AppendChild(style)
}

func removeClasses(n *html.Node) {
	if n.Type == html.ElementNode {
		attrs := n.Attr[:0]
		for _, a := range n.Attr {
			if a.Namespace == "" && a.Key == "class" {
				continue
			}
			attrs = append(attrs, a)
		}
		n.Attr = attrs
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		removeClasses(c)
	}
}

package mailify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/2bitbit/mailify-md/internal/assets"
	"github.com/2bitbit/mailify-md/internal/dom"
	"github.com/2bitbit/mailify-md/internal/embed"
	"github.com/2bitbit/mailify-md/internal/inline"
	"github.com/2bitbit/mailify-md/internal/pipeline"
	"github.com/2bitbit/mailify-md/internal/render"
	"github.com/2bitbit/mailify-md/internal/trim"
)

// renderSession is the browser side of one job.
type renderSession interface {
	embed.LiveDOM
	Launch(ctx context.Context) error
	LoadContent(ctx context.Context, htmlDoc string) error
	WaitSettled(ctx context.Context) error
	Snapshot(ctx context.Context) (string, error)
	Images() *render.NetworkImageCache
	Close() error
}

// Compile-time interface implementation checks.
var (
	_ renderSession         = (*render.Session)(nil)
	_ pipeline.HTMLRenderer = (*pipeline.Renderer)(nil)
	_ pipeline.Inliner      = (*inline.Inliner)(nil)
)

func newRenderSession(opts ...render.Option) renderSession {
	return render.NewSession(opts...)
}

// Converter runs Markdown-to-email conversions. Each Convert call starts
// its own browser and closes it before returning; a Converter is safe for
// concurrent use.
type Converter struct {
	cfg        converterConfig
	loader     assets.AssetLoader
	skeleton   string
	theme      *assets.Theme
	inliner    pipeline.Inliner
	newSession func(opts ...render.Option) renderSession

	mu     sync.Mutex
	active map[renderSession]struct{}
	closed bool
}

// jobConfig is the immutable configuration of one conversion.
type jobConfig struct {
	markdown  string
	theme     *assets.Theme
	title     string
	lang      string
	sourceDir string
}

// NewConverter creates a Converter.
// Returns ErrInvalidAssetPath if WithAssetPath names an unusable directory
// and ErrThemeNotFound if the configured theme does not resolve.
func NewConverter(opts ...Option) (*Converter, error) {
	c := &Converter{
		cfg:        defaultConfig(),
		newSession: newRenderSession,
		active:     make(map[renderSession]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	resolver, err := assets.NewAssetResolver(c.cfg.assetPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAssetPath, err)
	}
	c.loader = resolver

	c.skeleton, err = c.loader.LoadTemplate(assets.SkeletonTemplate)
	if err != nil {
		return nil, fmt.Errorf("loading skeleton: %w", err)
	}

	c.theme, err = assets.ResolveTheme(c.loader, c.cfg.theme)
	if err != nil {
		return nil, err
	}

	if c.inliner == nil {
		c.inliner = inline.New(inline.WithLogger(c.cfg.logger))
	}
	return c, nil
}

// Convert runs one conversion job.
// Configuration problems are reported before the browser starts. Assets that
// cannot be embedded are listed in Result.Warnings; everything else that
// fails aborts the job. Recovers from internal panics to prevent crashes from
// propagating to callers.
func (c *Converter) Convert(ctx context.Context, input Input) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	if c.isClosed() {
		return nil, ErrConverterClosed
	}
	if strings.TrimSpace(input.Markdown) == "" {
		return nil, ErrEmptyMarkdown
	}

	start := time.Now()
	log := c.cfg.logger

	job, err := c.prepare(input)
	if err != nil {
		return nil, err
	}

	webLinks := pipeline.HasWebLinks(job.markdown)
	if webLinks {
		log.Warn("document contains web links; some email providers degrade messages referencing external hosts")
	}

	fragment, err := c.renderMarkdown(ctx, job)
	if err != nil {
		return nil, err
	}
	log.Debug("markdown rendered", "stage", "markdown", "bytes", len(fragment))

	doc, err := pipeline.Bind(fragment, pipeline.BindData{
		Skeleton:     c.skeleton,
		Title:        job.title,
		Lang:         job.lang,
		ThemeCSS:     job.theme.CSS,
		KaTeXBaseURL: c.cfg.katexBaseURL,
	})
	if err != nil {
		return nil, err
	}

	tree, report, err := c.renderAndEmbed(ctx, doc, job.sourceDir)
	if err != nil {
		return nil, err
	}

	out, err := pipeline.Finalize(ctx, tree, c.inliner)
	if err != nil {
		return nil, err
	}

	warnings := make([]Warning, 0, len(report.Warnings))
	for _, w := range report.Warnings {
		log.Warn("asset not embedded", "kind", w.Kind, "src", w.Src, "reason", w.Reason)
		warnings = append(warnings, Warning{Kind: string(w.Kind), Src: w.Src, Reason: w.Reason})
	}
	log.Debug("conversion finished", "stage", "finalize", "embedded", report.Embedded,
		"warnings", len(warnings), "duration", time.Since(start))

	return &Result{HTML: out, Warnings: warnings, HasWebLinks: webLinks}, nil
}

// prepare splits front matter and resolves the theme and title of a job.
func (c *Converter) prepare(input Input) (jobConfig, error) {
	fm, body, err := pipeline.SplitFrontMatter(input.Markdown)
	if err != nil {
		return jobConfig{}, err
	}

	theme := c.theme
	if name := firstNonEmpty(fm.Theme, input.Theme); name != "" {
		theme, err = assets.ResolveTheme(c.loader, name)
		if err != nil {
			return jobConfig{}, err
		}
	}
	if theme.DefaultedCodeStyle {
		c.cfg.logger.Info("theme has no CODE_STYLE directive, using default",
			"theme", theme.Name, "style", theme.CodeStyle)
	}

	return jobConfig{
		markdown:  body,
		theme:     theme,
		title:     firstNonEmpty(fm.Title, pipeline.FirstHeading(body), input.Title),
		lang:      fm.Lang,
		sourceDir: input.SourceDir,
	}, nil
}

func (c *Converter) renderMarkdown(ctx context.Context, job jobConfig) (string, error) {
	opts := []pipeline.RendererOption{
		pipeline.WithCodeStyle(job.theme.CodeStyle),
		pipeline.WithLinkify(c.cfg.linkify),
		pipeline.WithRendererLogger(c.cfg.logger),
	}
	if c.cfg.highlighter != nil {
		opts = append(opts, pipeline.WithHighlighter(pipeline.HighlightFunc(c.cfg.highlighter)))
	}
	return pipeline.NewRenderer(opts...).Render(ctx, job.markdown)
}

// renderAndEmbed renders doc in a fresh browser session, snapshots it and
// embeds formulas and images into the snapshot. The session is closed
// before returning, whatever the outcome.
func (c *Converter) renderAndEmbed(ctx context.Context, doc, sourceDir string) (*dom.Tree, embed.Report, error) {
	log := c.cfg.logger

	sess := c.newSession(
		render.WithDeviceScale(c.cfg.deviceScale),
		render.WithViewport(c.cfg.viewportWidth, render.DefaultViewportHeight),
		render.WithTimeout(c.cfg.timeout),
		render.WithStealth(c.cfg.stealth),
		render.WithReadyFlag(assets.TypesetFlag),
		render.WithLogger(log),
	)
	if !c.track(sess) {
		_ = sess.Close()
		return nil, embed.Report{}, ErrConverterClosed
	}
	defer c.release(sess)

	if err := sess.Launch(ctx); err != nil {
		return nil, embed.Report{}, err
	}
	if err := sess.LoadContent(ctx, doc); err != nil {
		return nil, embed.Report{}, err
	}
	if err := sess.WaitSettled(ctx); err != nil {
		return nil, embed.Report{}, err
	}
	log.Debug("page settled", "stage", "render", "images", sess.Images().URLs())

	snapshot, err := sess.Snapshot(ctx)
	if err != nil {
		return nil, embed.Report{}, err
	}
	tree, err := dom.Parse(snapshot)
	if err != nil {
		return nil, embed.Report{}, err
	}

	report, err := embed.Formulas(ctx, sess, tree, embed.FormulaConfig{
		ContainerSelector: "." + assets.ContainerClass,
		TrimOptions:       []trim.Option{trim.WithStride(c.cfg.trimStride), trim.WithMargin(c.cfg.trimMargin)},
	})
	if err != nil {
		return nil, embed.Report{}, err
	}
	log.Debug("formulas embedded", "stage", "formulas", "formulas", report.Embedded)

	remote := embed.RemoteImages(ctx, sess, tree, sess.Images())
	local := embed.LocalImages(tree, sourceDir)
	log.Debug("images embedded", "stage", "images", "remote", remote.Embedded, "local", local.Embedded)

	report.Merge(remote)
	report.Merge(local)
	return tree, report, nil
}

// track registers a running session so Close can stop it.
func (c *Converter) track(s renderSession) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.active[s] = struct{}{}
	return true
}

func (c *Converter) release(s renderSession) {
	c.mu.Lock()
	delete(c.active, s)
	c.mu.Unlock()

	if err := s.Close(); err != nil {
		c.cfg.logger.Debug("closing render session", "error", err)
	}
}

func (c *Converter) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close stops the browsers of conversions still running and rejects new
// ones. It is safe to call more than once.
func (c *Converter) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	sessions := make([]renderSession, 0, len(c.active))
	for s := range c.active {
		sessions = append(sessions, s)
	}
	c.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

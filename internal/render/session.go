// Package render drives a headless browser through one conversion job.
//
// A Session is single-use and single-owner. It moves through
// Idle → Launched → ContentLoaded → Settled → Closed; every operation checks
// the current state and nothing runs after Close. Image responses observed
// while the page settles are recorded in the session's NetworkImageCache,
// which is sealed once the page is settled.
package render

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/2bitbit/mailify-md/internal/process"
)

// Defaults for a render session.
const (
	DefaultDeviceScale    = 3.0
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
	DefaultTimeout        = 30 * time.Second
	DefaultIdleTime       = 500 * time.Millisecond
	DefaultReadyFlag      = "__mailifyTypeset"
)

// settleExcludedTypes are ignored by the network-idle wait. Images and fonts
// are waited for: formulas and remote images must be fully loaded.
var settleExcludedTypes = []proto.NetworkResourceType{
	proto.NetworkResourceTypeWebSocket,
	proto.NetworkResourceTypeEventSource,
	proto.NetworkResourceTypeMedia,
}

type config struct {
	deviceScale float64
	width       int
	height      int
	timeout     time.Duration
	idleTime    time.Duration
	stealth     bool
	readyFlag   string
	logger      *slog.Logger
	getenv      func(string) string
}

// Option configures a Session.
type Option func(*config)

// WithDeviceScale sets the device-scale factor of the page. Screenshot
// widths are divided by it to get CSS pixels.
func WithDeviceScale(f float64) Option {
	return func(c *config) {
		if f > 0 {
			c.deviceScale = f
		}
	}
}

// WithViewport sets the page viewport in CSS pixels.
func WithViewport(width, height int) Option {
	return func(c *config) {
		if width > 0 && height > 0 {
			c.width, c.height = width, height
		}
	}
}

// WithTimeout bounds the settle wait.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// withIdleTime sets how long the network must stay quiet to count as idle.
func withIdleTime(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.idleTime = d
		}
	}
}

// WithStealth opens the page with go-rod/stealth evasions, for image hosts
// that refuse headless user agents.
func WithStealth(on bool) Option {
	return func(c *config) {
		c.stealth = on
	}
}

// WithReadyFlag names the window property the page sets to true once its
// typesetting script finished.
func WithReadyFlag(name string) Option {
	return func(c *config) {
		if name != "" {
			c.readyFlag = name
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// withGetenv replaces os.Getenv for launch settings.
func withGetenv(fn func(string) string) Option {
	return func(c *config) {
		c.getenv = fn
	}
}

// Session is one browser context bound to one job.
type Session struct {
	// life is cancelled by Close before it takes mu, so a blocked
	// operation releases the lock promptly.
	life context.Context
	kill context.CancelFunc

	mu     sync.Mutex
	cfg    config
	state  State
	images *NetworkImageCache

	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page

	stopObserve func()
	idleWait    func()
	stopIdle    func()

	snapshotTaken bool
}

// NewSession creates an Idle session. No browser is started until Launch.
func NewSession(opts ...Option) *Session {
	cfg := config{
		deviceScale: DefaultDeviceScale,
		width:       DefaultViewportWidth,
		height:      DefaultViewportHeight,
		timeout:     DefaultTimeout,
		idleTime:    DefaultIdleTime,
		readyFlag:   DefaultReadyFlag,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		getenv:      os.Getenv,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	life, kill := context.WithCancel(context.Background())
	return &Session{life: life, kill: kill, cfg: cfg, images: NewNetworkImageCache()}
}

// bind derives an operation context that also ends when the session is
// closed.
func (s *Session) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	opCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.life, cancel)
	return opCtx, func() {
		stop()
		cancel()
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// DeviceScale returns the device-scale factor pages are rendered with.
func (s *Session) DeviceScale() float64 {
	return s.cfg.deviceScale
}

// Images returns the cache of image responses seen during the render.
func (s *Session) Images() *NetworkImageCache {
	return s.images
}

// Launch starts and connects to a headless browser.
func (s *Session) Launch(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := expect(s.state, Idle); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	l := newLauncher(settingsFromEnv(s.cfg.getenv))
	u, err := l.Launch()
	if err != nil {
		l.Kill()
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	s.launcher = l

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	s.browser = b
	s.state = Launched
	s.cfg.logger.Debug("browser launched", "pid", l.PID())
	return nil
}

// LoadContent opens a page with the session's device-scale factor, starts
// recording image responses and sets htmlDoc as the page content.
func (s *Session) LoadContent(ctx context.Context, htmlDoc string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := expect(s.state, Launched); err != nil {
		return err
	}
	ctx, done := s.bind(ctx)
	defer done()

	page, err := s.newPage()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	s.page = page

	if err := page.Context(ctx).SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             s.cfg.width,
		Height:            s.cfg.height,
		DeviceScaleFactor: s.cfg.deviceScale,
	}); err != nil {
		return fmt.Errorf("%w: viewport: %v", ErrPageCreate, err)
	}
	if err := (proto.NetworkEnable{}).Call(page); err != nil {
		return fmt.Errorf("%w: network domain: %v", ErrPageCreate, err)
	}

	s.observeImages(page)

	idlePage, stopIdle := page.WithCancel()
	s.idleWait = idlePage.WaitRequestIdle(s.cfg.idleTime, nil, nil, settleExcludedTypes)
	s.stopIdle = stopIdle

	if err := page.Context(ctx).SetDocumentContent(htmlDoc); err != nil {
		return fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	s.state = ContentLoaded
	return nil
}

func (s *Session) newPage() (*rod.Page, error) {
	if s.cfg.stealth {
		return stealth.Page(s.browser)
	}
	return s.browser.Page(proto.TargetCreateTarget{})
}

// observeImages records successful image responses into the cache until
// s.stopObserve is called.
func (s *Session) observeImages(page *rod.Page) {
	obs, cancel := page.WithCancel()

	// Only touched from the event loop goroutine.
	requested := map[proto.NetworkRequestID]string{}
	mimeTypes := map[proto.NetworkRequestID]string{}

	wait := obs.EachEvent(
		func(e *proto.NetworkRequestWillBeSent) {
			if e.Request == nil || !strings.HasPrefix(e.Request.URL, "http") {
				return
			}
			// Redirects reuse the request ID; keep the URL the page asked for.
			if _, ok := requested[e.RequestID]; !ok {
				requested[e.RequestID] = e.Request.URL
			}
		},
		func(e *proto.NetworkResponseReceived) {
			if e.Type != proto.NetworkResourceTypeImage || e.Response == nil ||
				e.Response.Status < 200 || e.Response.Status > 299 {
				delete(requested, e.RequestID)
				return
			}
			mimeTypes[e.RequestID] = e.Response.MIMEType
		},
		func(e *proto.NetworkLoadingFinished) {
			url, ok := requested[e.RequestID]
			mime, isImage := mimeTypes[e.RequestID]
			delete(requested, e.RequestID)
			delete(mimeTypes, e.RequestID)
			if !ok || !isImage {
				return
			}
			body, err := responseBody(obs, e.RequestID)
			if err != nil {
				s.cfg.logger.Debug("image body unavailable", "url", url, "error", err)
				return
			}
			s.images.Put(url, CachedImage{Body: body, ContentType: mime})
		},
		func(e *proto.NetworkLoadingFailed) {
			delete(requested, e.RequestID)
			delete(mimeTypes, e.RequestID)
		},
	)

	done := make(chan struct{})
	go func() {
		wait()
		close(done)
	}()

	s.stopObserve = func() {
		cancel()
		<-done
		s.images.Seal()
	}
}

func responseBody(page *rod.Page, id proto.NetworkRequestID) ([]byte, error) {
	res, err := proto.NetworkGetResponseBody{RequestID: id}.Call(page)
	if err != nil {
		return nil, err
	}
	if !res.Base64Encoded {
		return []byte(res.Body), nil
	}
	return base64.StdEncoding.DecodeString(res.Body)
}

// WaitSettled blocks until the network is idle and the typesetting script
// has set the ready flag. The image observer is stopped before returning.
func (s *Session) WaitSettled(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := expect(s.state, ContentLoaded); err != nil {
		return err
	}

	opCtx, done := s.bind(ctx)
	defer done()
	settleCtx, cancel := context.WithTimeout(opCtx, s.cfg.timeout)
	defer cancel()

	idle := make(chan struct{})
	go func() {
		s.idleWait()
		close(idle)
	}()

	select {
	case <-idle:
		s.stopIdle()
	case <-settleCtx.Done():
		s.stopIdle()
		<-idle
		return s.settleErr(ctx, "network idle")
	}

	ready := fmt.Sprintf("() => window[%q] === true", s.cfg.readyFlag)
	if err := s.page.Context(settleCtx).Wait(rod.Eval(ready)); err != nil {
		if settleCtx.Err() != nil {
			return s.settleErr(ctx, "typesetting")
		}
		return fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	s.stopObserve()
	s.stopObserve = nil
	s.state = Settled
	s.cfg.logger.Debug("page settled", "images", s.images.Len())
	return nil
}

func (s *Session) settleErr(ctx context.Context, stage string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.life.Err() != nil {
		return ErrSessionClosed
	}
	return fmt.Errorf("%w: waiting for %s after %s", ErrSettleTimeout, stage, s.cfg.timeout)
}

// Snapshot serializes the settled document. It may be taken only once.
func (s *Session) Snapshot(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := expect(s.state, Settled); err != nil {
		return "", err
	}
	if s.snapshotTaken {
		return "", ErrSnapshotTaken
	}
	ctx, done := s.bind(ctx)
	defer done()

	doc, err := s.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("%w: snapshot: %v", ErrQuery, err)
	}
	s.snapshotTaken = true
	return "<!DOCTYPE html>\n" + doc, nil
}

// QueryAll returns the live nodes matching sel in document order.
func (s *Session) QueryAll(ctx context.Context, sel string) ([]Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := expect(s.state, Settled); err != nil {
		return nil, err
	}
	ctx, done := s.bind(ctx)
	defer done()

	els, err := s.page.Context(ctx).Elements(sel)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrQuery, sel, err)
	}
	return s.wrap(els), nil
}

// Query returns the first live node matching sel.
func (s *Session) Query(ctx context.Context, sel string) (Node, error) {
	nodes, err := s.QueryAll(ctx, sel)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNodeNotFound, sel)
	}
	return nodes[0], nil
}

func (s *Session) wrap(els rod.Elements) []Node {
	nodes := make([]Node, len(els))
	for i, el := range els {
		nodes[i] = &liveNode{s: s, el: el}
	}
	return nodes
}

// Close releases the page, the browser and its process group. It is safe to
// call in any state and more than once. An operation blocked in another
// goroutine is cancelled first and returns ErrSessionClosed.
func (s *Session) Close() error {
	s.kill()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Closed {
		return nil
	}
	s.state = Closed

	if s.stopIdle != nil {
		s.stopIdle()
	}
	if s.stopObserve != nil {
		s.stopObserve()
		s.stopObserve = nil
	}
	s.images.Seal()

	var errs []error
	if s.page != nil {
		_ = s.page.Close()
		s.page = nil
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, err)
		}
		s.browser = nil
	}
	if s.launcher != nil {
		if pid := s.launcher.PID(); pid > 0 {
			_ = process.KillTree(pid)
		}
		s.launcher.Kill()
		s.launcher.Cleanup()
		s.launcher = nil
	}
	return errors.Join(errs...)
}

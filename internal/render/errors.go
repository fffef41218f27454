package render

import "errors"

// Sentinel errors for render sessions.
var (
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page content")
	ErrSettleTimeout  = errors.New("page did not settle before timeout")
	ErrSessionClosed  = errors.New("render session is closed")
	ErrInvalidState   = errors.New("operation not allowed in current session state")
	ErrSnapshotTaken  = errors.New("document snapshot already taken")
	ErrQuery          = errors.New("live DOM query failed")
	ErrNodeNotFound   = errors.New("no live node matches selector")
	ErrScreenshot     = errors.New("node screenshot failed")
	ErrEval           = errors.New("node script evaluation failed")
)

// Package process tears down browser subprocess trees left behind by a
// render session.
package process

import "errors"

// ErrInvalidPID is returned for pids that would address the caller's own
// process group or every process.
var ErrInvalidPID = errors.New("process: pid must be positive")

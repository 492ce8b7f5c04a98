package report

import "errors"

// Sentinel kinds for report errors.
var (
	ErrRender = errors.New("report render failed")
	ErrWrite  = errors.New("report write failed")
)

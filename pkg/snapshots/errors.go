package snapshots

import "errors"

// ErrNoHistory is returned by Summarize when there are no points to
// summarize.
var ErrNoHistory = errors.New("no snapshot history")

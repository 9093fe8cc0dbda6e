package canvassync

import "errors"

var (
	ErrMalformedChangeSet = errors.New("malformed-change-set")
	ErrStopped            = errors.New("sync-stopped")
	ErrCommandFailed      = errors.New("sync-command-failed")
)

package svn

import (
	"errors"
)

var (
	// ErrExecFailure indicates an svn subprocess exited non-zero.
	ErrExecFailure = errors.New("svn execution failure")

	// ErrProtocol indicates svn produced output we don't understand.
	ErrProtocol = errors.New("unexpected svn output")

	// ErrStore indicates the database rejected a read or write.
	ErrStore = errors.New("store failure")
)

package domain

import "errors"

// ErrUnknownEventKind is returned by the dispatcher for kinds it has no handler for
var ErrUnknownEventKind = errors.New("unknown event kind")

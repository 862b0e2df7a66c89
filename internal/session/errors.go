package session

import "errors"

// ErrSessionClosed is returned by any [Session] operation after [Session.Close].
var ErrSessionClosed = errors.New("session: already closed")

package session

import "errors"

// Sentinel errors callers discriminate with errors.Is. Everything here
// is non-fatal to the process: the worst outcome of any of them is a
// failed user action plus a log line.
var (
	ErrNoConnectionSelected = errors.New("no connection selected")
	ErrUnknownConnection    = errors.New("unknown connection")
	ErrConnectFailed        = errors.New("connect failed")
	ErrNotConnected         = errors.New("not connected")
	ErrBrowseFailed         = errors.New("browse failed")
	ErrAlreadySubscribed    = errors.New("already subscribed")
	ErrUnsupportedNodeClass = errors.New("unsupported node class")
	ErrSubscribeFailed      = errors.New("subscribe failed")
	ErrAttributeRead        = errors.New("attribute read failed")
)

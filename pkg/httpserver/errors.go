package httpserver

import "errors"

var (
	ErrAlreadyRunning = errors.New("httpserver: Run called on a running server")
	ErrListen         = errors.New("httpserver: cannot bind admin listener")
	ErrServe          = errors.New("httpserver: admin listener stopped unexpectedly")
	ErrShutdown       = errors.New("httpserver: in-flight requests did not drain before the shutdown timeout")
)

package errors

import "fmt"

var (
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrNotConnected       = fmt.Errorf("transport is not connected")
	ErrAgentExhausted     = fmt.Errorf("reconnect attempts exhausted")
	ErrMirrorDisabled     = fmt.Errorf("local message mirror is disabled")
	ErrUnknownFrame       = fmt.Errorf("unknown frame type")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
)

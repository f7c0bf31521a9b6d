package agent

import "errors"

var (
	ErrFunctionNotFound = errors.New("function not found")
	ErrBindingMissing   = errors.New("execution binding does not resolve")
	ErrNoEndpoints      = errors.New("no enabled endpoints")
)

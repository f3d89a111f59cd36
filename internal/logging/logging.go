// Package logging provides constructors for the *zap.Logger that ratelimit,
// rest, and gateway accept through their logger options; those packages do
// not import it. It wraps zap so call sites log structured fields instead of
// formatting strings by hand.
package logging

import "go.uber.org/zap"

// New builds a production-style JSON logger. Callers that want console
// output during development should use NewDevelopment instead.
func New() *zap.Logger {
	l, err := zap.NewProduction()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// NewDevelopment builds a human-readable console logger suitable for local
// debugging of gateway/ratelimit behavior.
func NewDevelopment() *zap.Logger {
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// Nop returns a logger that discards everything, the same kind of logger
// (zap.NewNop) that ratelimit, rest, and gateway use when a caller does not
// supply one.
func Nop() *zap.Logger {
	return zap.NewNop()
}

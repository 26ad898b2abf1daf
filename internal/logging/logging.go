// Package logging wraps github.com/hashicorp/go-hclog behind a small
// interface, in the spirit of the teacher's dKVLogger factory (it wraps
// dragonboat's logger.ILogger there; there is no raft dependency here, so
// this wrapper is built by cmd/redcored and passed to internal/server and
// internal/command, which accept it through their own small logger
// interfaces, instead of being registered with a third-party logging
// facade).
package logging

import (
	"os"

	"github.com/hashicorp/go-hclog"
)

// Logger is the surface cmd/redcored uses; it also satisfies the smaller
// logger interfaces of internal/server and internal/command. It is
// implemented by the wrapper New returns, which embeds an hclog.Logger and
// adds a SetLevel that takes a level name.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	SetLevel(level string)
}

type wrapper struct {
	hclog.Logger
}

func (w *wrapper) SetLevel(level string) {
	w.Logger.SetLevel(parseLevel(level))
}

// New returns a Logger named "redcored" at the given spec §6 loglevel
// (debug/info/warn/error), writing to stderr, matching the teacher's
// log.New(os.Stdout, ...) factory shape but via hclog's leveled writer.
func New(level string) Logger {
	return &wrapper{hclog.New(&hclog.LoggerOptions{
		Name:   "redcored",
		Level:  parseLevel(level),
		Output: os.Stderr,
	})}
}

func parseLevel(level string) hclog.Level {
	switch level {
	case "debug":
		return hclog.Debug
	case "info":
		return hclog.Info
	case "warn":
		return hclog.Warn
	case "error":
		return hclog.Error
	default:
		return hclog.Info
	}
}

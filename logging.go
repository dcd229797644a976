package dataflow

import (
	"github.com/joeycumines/logiface"
)

// noopEvent is a logiface.Event that discards every field; it backs the
// package's default logger so that Graphs built without WithLogger incur
// no logging overhead (a logger value is always present; whether it does
// anything is configuration, not a nil check scattered through the
// operator code).
type noopEvent struct {
	logiface.UnimplementedEvent
}

func (noopEvent) Level() logiface.Level { return logiface.LevelDisabled }
func (noopEvent) AddField(string, any)  {}

type noopEventFactory struct{}

func (noopEventFactory) NewEvent(logiface.Level) *noopEvent { return &noopEvent{} }

type noopWriter struct{}

func (noopWriter) Write(*noopEvent) error { return nil }

var noopLogger = logiface.New[*noopEvent](
	logiface.WithEventFactory[*noopEvent](noopEventFactory{}),
	logiface.WithWriter[*noopEvent](noopWriter{}),
).Logger()

// defaultLogger returns the package's zero-overhead no-op logger, used by a
// Graph that was not configured with WithLogger.
func defaultLogger() *logiface.Logger[logiface.Event] {
	return noopLogger
}

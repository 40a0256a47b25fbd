package fitstream

import (
	"io"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// loggerPtr stores the active logger. Accessed atomically so SetLogger can be
// called while another goroutine runs a pump.
var loggerPtr atomic.Pointer[logrus.Logger]

func init() {
	loggerPtr.Store(newSilentLogger())
}

// newSilentLogger creates a logger that discards all output.
func newSilentLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l
}

// SetLogger configures the logger used by fitstream. By default nothing is
// logged. Pass nil to restore the silent default.
//
// Levels used:
//   - Debug: resource allocation and disposal, activation, feed switches
//   - Warn: non-fatal problems such as a snapshot that could not be written
//     or a feed that failed to start
//
// Example:
//
//	l := logrus.New()
//	l.SetLevel(logrus.DebugLevel)
//	fitstream.SetLogger(l)
func SetLogger(l *logrus.Logger) {
	if l == nil {
		l = newSilentLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the active logger.
func Logger() *logrus.Logger {
	return loggerPtr.Load()
}

func log() *logrus.Logger {
	return loggerPtr.Load()
}

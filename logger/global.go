package logger

import (
	"sync"
	"sync/atomic"
)

//nolint:gochecknoglobals // Global variables are required for the global logger singleton pattern
var (
	global   atomic.Value
	initOnce sync.Once
)

// SetGlobal replaces the global logger. Intended for application startup.
func SetGlobal(l Logger) {
	initOnce.Do(func() {})
	global.Store(&holder{l})
}

// Global returns the global logger, lazily creating a console logger at debug level.
func Global() Logger {
	initOnce.Do(func() {
		l, err := New(Config{Level: levelDebug, Encoding: EncodingConsole})
		if err != nil {
			panic("[logger]: failed to initialize default logger: " + err.Error())
		}
		global.Store(&holder{l})
	})

	h, ok := global.Load().(*holder)
	if !ok {
		panic("[logger]: global contains invalid type")
	}
	return h.Logger
}

// Named returns a named child of the global logger.
func Named(name string) Logger {
	return Global().Named(name)
}

// holder keeps atomic.Value happy when implementations of Logger differ.
type holder struct {
	Logger
}

package log

// Logger receives bring-up events. Log is called from link event handlers
// and must neither block nor retain the event's pointers past the call.
type Logger interface {
	Log(event Event)
}

// NoopLogger drops every event. The zero value is ready to use.
type NoopLogger struct{}

func (NoopLogger) Log(Event) {}

// MultiLogger fans an event out to several loggers in order, typically the
// console (SlogAdapter) and the device's event file (FileLogger).
type MultiLogger []Logger

// NewMultiLogger skips nil loggers, so optional sinks can be passed as is.
func NewMultiLogger(loggers ...Logger) MultiLogger {
	m := make(MultiLogger, 0, len(loggers))
	for _, l := range loggers {
		if l != nil {
			m = append(m, l)
		}
	}
	return m
}

func (m MultiLogger) Log(event Event) {
	for _, l := range m {
		l.Log(event)
	}
}

var (
	_ Logger = NoopLogger{}
	_ Logger = MultiLogger(nil)
)

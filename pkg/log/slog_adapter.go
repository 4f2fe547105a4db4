package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes events to an slog.Logger.
// Useful for development when you want to see bring-up events in the console.
type SlogAdapter struct {
	logger *slog.Logger
	level  slog.Level
}

// NewSlogAdapter creates a SlogAdapter that writes to the given logger at
// Info level. Info is the default because the event log is the device's
// only progress surface.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger, level: slog.LevelInfo}
}

// WithLevel returns a copy of the adapter that logs at level.
func (a *SlogAdapter) WithLevel(level slog.Level) *SlogAdapter {
	return &SlogAdapter{logger: a.logger, level: level}
}

// Log writes the event to the slog logger.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}
	if event.Device != "" {
		attrs = append(attrs, slog.String("device", event.Device))
	}

	level := a.level
	switch {
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Retry != nil:
		attrs = append(attrs,
			slog.String("reason", event.Retry.Reason),
			slog.String("ssid", event.Retry.SSID),
			slog.Int("remaining", event.Retry.Remaining),
		)
		if event.Retry.Exhausted {
			attrs = append(attrs, slog.Bool("exhausted", true))
		}
	case event.Credential != nil:
		attrs = append(attrs, slog.String("ssid", event.Credential.SSID))
		if event.Credential.Source != "" {
			attrs = append(attrs, slog.String("source", event.Credential.Source))
		}
		if event.Credential.Duplicate {
			attrs = append(attrs, slog.Bool("duplicate", true))
		}
		if event.Credential.Rejected {
			attrs = append(attrs, slog.Bool("rejected", true))
		}
	case event.Address != nil:
		attrs = append(attrs, slog.String("ip", event.Address.IP))
		if event.Address.Gateway != "" {
			attrs = append(attrs, slog.String("gateway", event.Address.Gateway))
		}
	case event.TimeSync != nil:
		attrs = append(attrs,
			slog.String("server", event.TimeSync.Server),
			slog.Duration("offset", event.TimeSync.Offset),
			slog.Duration("rtt", event.TimeSync.RTT),
		)
	case event.Error != nil:
		level = slog.LevelError
		attrs = append(attrs,
			slog.String("error_layer", event.Error.Layer.String()),
			slog.String("error_msg", event.Error.Message),
		)
		if event.Error.Context != "" {
			attrs = append(attrs, slog.String("error_context", event.Error.Context))
		}
		if event.Error.Fatal {
			attrs = append(attrs, slog.Bool("fatal", true))
		}
	}

	a.logger.LogAttrs(context.Background(), level, "wifiprov", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)

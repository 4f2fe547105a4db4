package timesync

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// DefaultReportInterval is how often the Reporter prints the time.
const DefaultReportInterval = time.Second

// Reporter periodically prints the corrected UTC time.
type Reporter struct {
	clock    *Clock
	interval time.Duration
	out      io.Writer
	logger   *slog.Logger
}

// NewReporter creates a reporter. out receives one ISO8601 line per tick;
// logger, if set, gets the same value at debug level.
func NewReporter(clock *Clock, interval time.Duration, out io.Writer, logger *slog.Logger) *Reporter {
	if interval <= 0 {
		interval = DefaultReportInterval
	}
	return &Reporter{clock: clock, interval: interval, out: out, logger: logger}
}

// Run reports until ctx is done.
func (r *Reporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.report()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.report()
		}
	}
}

func (r *Reporter) report() {
	now := r.clock.Format()
	if r.out != nil {
		fmt.Fprintln(r.out, now)
	}
	if r.logger != nil {
		r.logger.Debug("time", "utc", now)
	}
}

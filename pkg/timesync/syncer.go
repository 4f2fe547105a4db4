package timesync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/wifiprov/wifiprov-go/pkg/backoff"
	"github.com/wifiprov/wifiprov-go/pkg/link"
	wlog "github.com/wifiprov/wifiprov-go/pkg/log"
)

// ErrAttemptsExhausted is returned when MaxAttempts queries failed.
var ErrAttemptsExhausted = errors.New("timesync: attempts exhausted")

// Config configures a Syncer.
type Config struct {
	// Server is the time server. Empty means DefaultServer.
	Server string

	// Client performs queries. Nil means an NTPClient with default timeout.
	Client Client

	// Backoff shapes the delay between failed queries.
	Backoff backoff.Config

	// MaxAttempts bounds the number of queries. Zero retries until ctx is done.
	MaxAttempts int

	// Logger is the operational logger. Nil disables logging.
	Logger *slog.Logger

	// EventLogger receives time-sync events. Nil disables event logging.
	EventLogger wlog.Logger
}

// Syncer measures the clock offset once the network is up.
type Syncer struct {
	server      string
	client      Client
	backoff     *backoff.Backoff
	maxAttempts int
	clock       *Clock

	logger   *slog.Logger
	eventLog wlog.Logger
}

// NewSyncer creates a syncer writing into clock.
func NewSyncer(clock *Clock, cfg Config) *Syncer {
	if cfg.Server == "" {
		cfg.Server = DefaultServer
	}
	if cfg.Client == nil {
		cfg.Client = NewNTPClient(0)
	}
	return &Syncer{
		server:      cfg.Server,
		client:      cfg.Client,
		backoff:     backoff.NewWithConfig(cfg.Backoff),
		maxAttempts: cfg.MaxAttempts,
		clock:       clock,
		logger:      cfg.Logger,
		eventLog:    cfg.EventLogger,
	}
}

// Clock returns the clock the syncer writes into.
func (s *Syncer) Clock() *Clock {
	return s.clock
}

// Sync queries the server until one query succeeds, then records the offset.
// addr is the address the network was brought up with.
func (s *Syncer) Sync(ctx context.Context, addr link.Address) (Sample, error) {
	s.backoff.Reset()
	s.infoLog("starting time sync", "server", s.server, "ip", addr.IP)

	for attempt := 1; ; attempt++ {
		sample, err := s.client.Query(ctx, s.server)
		if err == nil {
			s.clock.Set(sample.Offset)
			s.infoLog("time synchronized", "server", s.server,
				"offset", sample.Offset, "rtt", sample.RTT, "attempt", attempt)
			s.logSample(sample, attempt)
			return sample, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Sample{}, ctxErr
		}

		s.warnLog("time query failed", "server", s.server, "attempt", attempt, "error", err)
		s.logError(err, attempt)

		if s.maxAttempts > 0 && attempt >= s.maxAttempts {
			return Sample{}, fmt.Errorf("%w: %d queries to %s: %w", ErrAttemptsExhausted, attempt, s.server, err)
		}
		if err := s.backoff.Wait(ctx); err != nil {
			return Sample{}, err
		}
	}
}

func (s *Syncer) logSample(sample Sample, attempt int) {
	if s.eventLog == nil {
		return
	}
	s.eventLog.Log(wlog.Event{
		Layer:    wlog.LayerTimeSync,
		Category: wlog.CategoryState,
		TimeSync: &wlog.TimeSyncEvent{
			Server:  sample.Server,
			Offset:  sample.Offset,
			RTT:     sample.RTT,
			Attempt: attempt,
		},
	})
}

func (s *Syncer) logError(err error, attempt int) {
	if s.eventLog == nil {
		return
	}
	s.eventLog.Log(wlog.Event{
		Layer:    wlog.LayerTimeSync,
		Category: wlog.CategoryError,
		Error: &wlog.ErrorEventData{
			Layer:   wlog.LayerTimeSync,
			Message: err.Error(),
			Context: fmt.Sprintf("query %s attempt %d", s.server, attempt),
		},
	})
}

func (s *Syncer) infoLog(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *Syncer) warnLog(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

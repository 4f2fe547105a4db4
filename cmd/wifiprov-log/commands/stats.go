package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/wifiprov/wifiprov-go/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents      int
	EventsByLayer    map[log.Layer]int
	EventsByCategory map[log.Category]int
	Boots            map[string]*BootStats
	RetriesByReason  map[string]int
	Errors           int
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// BootStats holds statistics for a single process run.
type BootStats struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Events    int
	Device    string

	Retries       int
	Exhaustions   int
	Credentials   int
	Address       string
	ReadyAfter    time.Duration
	Synced        bool
	FatalMessages []string
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByLayer:    make(map[log.Layer]int),
		EventsByCategory: make(map[log.Category]int),
		Boots:            make(map[string]*BootStats),
		RetriesByReason:  make(map[string]int),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		stats.add(event)
	}

	printStats(w, stats)
	return nil
}

func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	s.EventsByLayer[event.Layer]++
	s.EventsByCategory[event.Category]++

	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}

	boot, ok := s.Boots[event.BootID]
	if !ok {
		boot = &BootStats{FirstSeen: event.Timestamp, LastSeen: event.Timestamp}
		s.Boots[event.BootID] = boot
	}
	boot.Events++
	if event.Timestamp.After(boot.LastSeen) {
		boot.LastSeen = event.Timestamp
	}
	if event.Device != "" && boot.Device == "" {
		boot.Device = event.Device
	}

	switch {
	case event.Retry != nil:
		boot.Retries++
		s.RetriesByReason[event.Retry.Reason]++
		if event.Retry.Exhausted {
			boot.Exhaustions++
		}
	case event.Credential != nil:
		if !event.Credential.Rejected {
			boot.Credentials++
		}
	case event.Address != nil:
		if boot.Address == "" {
			boot.Address = event.Address.IP
			boot.ReadyAfter = event.Timestamp.Sub(boot.FirstSeen)
		}
	case event.TimeSync != nil:
		boot.Synced = true
	case event.Error != nil:
		s.Errors++
		if event.Error.Fatal {
			boot.FatalMessages = append(boot.FatalMessages, event.Error.Message)
		}
	}
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Wi-Fi Bring-up Log Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Layer:")
	for l := log.LayerLink; l <= log.LayerTimeSync; l++ {
		if count := stats.EventsByLayer[l]; count > 0 {
			fmt.Fprintf(w, "  %-14s %d\n", l.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for c := log.CategoryState; c <= log.CategoryError; c++ {
		if count := stats.EventsByCategory[c]; count > 0 {
			fmt.Fprintf(w, "  %-14s %d\n", c.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	if len(stats.RetriesByReason) > 0 {
		reasons := make([]string, 0, len(stats.RetriesByReason))
		for r := range stats.RetriesByReason {
			reasons = append(reasons, r)
		}
		sort.Strings(reasons)
		fmt.Fprintln(w, "Failed Attempts by Reason:")
		for _, r := range reasons {
			fmt.Fprintf(w, "  %-20s %d\n", r+":", stats.RetriesByReason[r])
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Boots: %d\n", len(stats.Boots))
	if len(stats.Boots) > 0 {
		type bootInfo struct {
			id    string
			stats *BootStats
		}
		boots := make([]bootInfo, 0, len(stats.Boots))
		for id, bs := range stats.Boots {
			boots = append(boots, bootInfo{id, bs})
		}
		sort.Slice(boots, func(i, j int) bool {
			return boots[i].stats.FirstSeen.Before(boots[j].stats.FirstSeen)
		})

		fmt.Fprintln(w)
		for _, b := range boots {
			duration := b.stats.LastSeen.Sub(b.stats.FirstSeen).Round(time.Millisecond)
			fmt.Fprintf(w, "  [%s] %d events, duration %s\n", shortenID(b.id), b.stats.Events, duration)
			if b.stats.Device != "" {
				fmt.Fprintf(w, "           Device: %s\n", b.stats.Device)
			}
			fmt.Fprintf(w, "           Failed attempts: %d, provisioning entered: %d, credentials: %d\n",
				b.stats.Retries, b.stats.Exhaustions, b.stats.Credentials)
			if b.stats.Address != "" {
				fmt.Fprintf(w, "           Ready: %s after %s\n", b.stats.Address, b.stats.ReadyAfter.Round(time.Millisecond))
			} else {
				fmt.Fprintln(w, "           Ready: never")
			}
			if b.stats.Synced {
				fmt.Fprintln(w, "           Time synced")
			}
			for _, msg := range b.stats.FatalMessages {
				fmt.Fprintf(w, "           Fatal: %s\n", msg)
			}
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}

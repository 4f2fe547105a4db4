// Package commands implements the wifiprov-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/wifiprov/wifiprov-go/pkg/log"
)

const timestampFormat = "2006-01-02T15:04:05.000000Z"

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	Layer    *log.Layer
	Category *log.Category
	BootID   string
	SSID     string
}

func (f ViewFilter) logFilter() log.Filter {
	return log.Filter{
		Layer:    f.Layer,
		Category: f.Category,
		BootID:   f.BootID,
		SSID:     f.SSID,
	}
}

// eventType returns a short label for the event payload.
func eventType(event log.Event) string {
	switch {
	case event.StateChange != nil:
		return "State"
	case event.Retry != nil:
		return "Retry"
	case event.Credential != nil:
		return "Credential"
	case event.Address != nil:
		return "Address"
	case event.TimeSync != nil:
		return "TimeSync"
	case event.Error != nil:
		return "Error"
	default:
		return "Unknown"
	}
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	ts := event.Timestamp.UTC().Format(timestampFormat)
	fmt.Fprintf(w, "%s [boot:%s] %s %s\n", ts, shortenID(event.BootID), event.Layer, eventType(event))

	switch {
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Retry != nil:
		formatRetryDetails(w, event.Retry)
	case event.Credential != nil:
		formatCredentialDetails(w, event.Credential)
	case event.Address != nil:
		formatAddressDetails(w, event.Address)
	case event.TimeSync != nil:
		formatTimeSyncDetails(w, event.TimeSync)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w)
}

// shortenID returns the first 8 characters of a boot ID.
func shortenID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatRetryDetails(w io.Writer, r *log.RetryEvent) {
	fmt.Fprintf(w, "  Reason: %s (%d)\n", r.Reason, r.ReasonCode)
	if r.SSID != "" {
		fmt.Fprintf(w, "  SSID: %q\n", r.SSID)
	}
	fmt.Fprintf(w, "  Remaining: %d\n", r.Remaining)
	if r.Exhausted {
		fmt.Fprintln(w, "  Budget exhausted, provisioning")
	}
}

func formatCredentialDetails(w io.Writer, c *log.CredentialEvent) {
	fmt.Fprintf(w, "  SSID: %q\n", c.SSID)
	if c.Source != "" {
		fmt.Fprintf(w, "  Source: %s\n", c.Source)
	}
	switch {
	case c.Rejected:
		fmt.Fprintln(w, "  Rejected")
	case c.Duplicate:
		fmt.Fprintln(w, "  Duplicate")
	}
}

func formatAddressDetails(w io.Writer, a *log.AddressEvent) {
	if a.PrefixLen > 0 {
		fmt.Fprintf(w, "  IP: %s/%d\n", a.IP, a.PrefixLen)
	} else {
		fmt.Fprintf(w, "  IP: %s\n", a.IP)
	}
	if a.Gateway != "" {
		fmt.Fprintf(w, "  Gateway: %s\n", a.Gateway)
	}
}

func formatTimeSyncDetails(w io.Writer, ts *log.TimeSyncEvent) {
	fmt.Fprintf(w, "  Server: %s\n", ts.Server)
	fmt.Fprintf(w, "  Offset: %s\n", formatDuration(ts.Offset))
	if ts.RTT > 0 {
		fmt.Fprintf(w, "  RTT: %s\n", formatDuration(ts.RTT))
	}
	if ts.Attempt > 1 {
		fmt.Fprintf(w, "  Attempt: %d\n", ts.Attempt)
	}
}

func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Layer: %s\n", err.Layer)
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Fatal {
		fmt.Fprintln(w, "  Fatal")
	}
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

// formatDuration formats a duration for display. Negative offsets keep
// their sign.
func formatDuration(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%s%.3fus", sign, float64(d.Nanoseconds())/1000)
	case d < time.Second:
		return fmt.Sprintf("%s%.3fms", sign, float64(d.Microseconds())/1000)
	default:
		return fmt.Sprintf("%s%.3fs", sign, d.Seconds())
	}
}

// ParseLayerFlag parses a layer name (case-insensitive).
func ParseLayerFlag(s string) (log.Layer, error) {
	if l, ok := log.ParseLayer(strings.ToUpper(s)); ok {
		return l, nil
	}
	return 0, fmt.Errorf("invalid layer: %s (must be link, association, provisioning, readiness, or timesync)", s)
}

// ParseCategoryFlag parses a category name (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	if c, ok := log.ParseCategory(strings.ToUpper(s)); ok {
		return c, nil
	}
	return 0, fmt.Errorf("invalid category: %s (must be state, retry, credential, or error)", s)
}

// RunView executes the view command.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter.logFilter())
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}
	return nil
}

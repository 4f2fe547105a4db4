package timesync

import (
	"context"
	"fmt"
	"time"

	"github.com/beevik/ntp"
)

// DefaultServer is queried when no server is configured.
const DefaultServer = "pool.ntp.org"

// DefaultQueryTimeout bounds a single SNTP exchange.
const DefaultQueryTimeout = 5 * time.Second

// Sample is the result of one successful query.
type Sample struct {
	Server  string
	Offset  time.Duration
	RTT     time.Duration
	Stratum uint8
}

// Client queries a time server.
type Client interface {
	Query(ctx context.Context, server string) (Sample, error)
}

// NTPClient is a Client speaking SNTP.
type NTPClient struct {
	// Timeout bounds each query. Zero means DefaultQueryTimeout.
	Timeout time.Duration

	query func(host string, opt ntp.QueryOptions) (*ntp.Response, error)
}

// NewNTPClient creates an SNTP client.
func NewNTPClient(timeout time.Duration) *NTPClient {
	return &NTPClient{Timeout: timeout, query: ntp.QueryWithOptions}
}

// Query performs one SNTP exchange. The response is rejected if the server
// is unsynchronized or sent a kiss-of-death packet.
func (c *NTPClient) Query(ctx context.Context, server string) (Sample, error) {
	if err := ctx.Err(); err != nil {
		return Sample{}, err
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}

	query := c.query
	if query == nil {
		query = ntp.QueryWithOptions
	}
	resp, err := query(server, ntp.QueryOptions{Timeout: timeout})
	if err != nil {
		return Sample{}, fmt.Errorf("timesync: query %s: %w", server, err)
	}
	if resp.IsKissOfDeath() {
		return Sample{}, fmt.Errorf("timesync: %s sent kiss code %q", server, resp.KissCode)
	}
	if err := resp.Validate(); err != nil {
		return Sample{}, fmt.Errorf("timesync: %s: %w", server, err)
	}

	return Sample{
		Server:  server,
		Offset:  resp.ClockOffset,
		RTT:     resp.RTT,
		Stratum: resp.Stratum,
	}, nil
}

var _ Client = (*NTPClient)(nil)

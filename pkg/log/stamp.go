package log

import (
	"time"

	"github.com/google/uuid"
)

// Stamper fills Timestamp, BootID and Device on events before passing them on.
type Stamper struct {
	next   Logger
	bootID string
	device string
	now    func() time.Time
}

// NewStamper wraps next. A fresh boot ID is generated for the process run.
func NewStamper(next Logger, device string) *Stamper {
	return &Stamper{
		next:   next,
		bootID: uuid.NewString(),
		device: device,
		now:    time.Now,
	}
}

// BootID returns the boot ID stamped on events.
func (s *Stamper) BootID() string {
	return s.bootID
}

// Log stamps the event and forwards it. Fields already set are kept.
func (s *Stamper) Log(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	if event.BootID == "" {
		event.BootID = s.bootID
	}
	if event.Device == "" {
		event.Device = s.device
	}
	s.next.Log(event)
}

// Compile-time interface satisfaction check.
var _ Logger = (*Stamper)(nil)

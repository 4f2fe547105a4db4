package association

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/wifiprov/wifiprov-go/pkg/link"
	wlog "github.com/wifiprov/wifiprov-go/pkg/log"
)

// DefaultRetryBudget is the number of association attempts allowed before
// falling back to provisioning.
const DefaultRetryBudget = 3

// ErrInvalidConfig is returned for an invalid configuration.
var ErrInvalidConfig = errors.New("association: invalid config")

// Config configures a Controller.
type Config struct {
	// RetryBudget is the initial and re-armed budget. Zero selects
	// DefaultRetryBudget.
	RetryBudget int

	// StableResetAfter re-arms the budget once the link has been held up
	// this long. Zero disables the policy.
	StableResetAfter time.Duration

	// Provisioning is passed to Driver.EnterProvisioningMode.
	Provisioning link.ProvisioningConfig

	// Logger is the operational logger. Nil disables logging.
	Logger *slog.Logger

	// EventLogger receives association events. Nil disables event logging.
	EventLogger wlog.Logger
}

// DefaultConfig returns the default controller configuration.
func DefaultConfig() Config {
	return Config{
		RetryBudget:  DefaultRetryBudget,
		Provisioning: link.ProvisioningConfig{Scheme: "mdns"},
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.RetryBudget < 0 {
		return fmt.Errorf("%w: retry budget must not be negative", ErrInvalidConfig)
	}
	if c.StableResetAfter < 0 {
		return fmt.Errorf("%w: stable reset duration must not be negative", ErrInvalidConfig)
	}
	return nil
}

func (c Config) budget() int {
	if c.RetryBudget == 0 {
		return DefaultRetryBudget
	}
	return c.RetryBudget
}

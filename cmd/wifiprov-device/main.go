// Command wifiprov-device brings a device onto a Wi-Fi network.
//
// It joins the configured network, falls back to provisioning after the
// retry budget is spent, waits until it has an address, synchronizes the
// clock and then prints the UTC time once a second.
//
// Usage:
//
//	wifiprov-device [flags]
//
// Flags:
//
//	-config string         YAML configuration file
//	-env string            .env file with WIFIPROV_* variables (default ".env")
//	-driver string         Radio driver: sim, exec (default "sim")
//	-ssid string           Network to join
//	-secret string         Network passphrase
//	-budget int            Retry budget (default 3)
//	-provisioning string   Provisioning scheme: mdns, serial, none (default "mdns")
//	-state string          State file for credentials and onboarding identity
//	-ntp string            Time server, "off" to disable (default "pool.ntp.org")
//	-event-log string      Write a .wlog event log
//	-interactive           Start the interactive console
//
// Examples:
//
//	# Simulated radio that knows one network, with a stale credential
//	wifiprov-device -ssid OldNet -secret oldpass1 -interactive
//
//	# NetworkManager host, credentials from .env, events to a file
//	wifiprov-device -driver exec -iface wlan0 -event-log boot.wlog
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/wifiprov/wifiprov-go/cmd/wifiprov-device/interactive"
	"github.com/wifiprov/wifiprov-go/pkg/association"
	"github.com/wifiprov/wifiprov-go/pkg/bringup"
	"github.com/wifiprov/wifiprov-go/pkg/credential"
	"github.com/wifiprov/wifiprov-go/pkg/link"
	linkexec "github.com/wifiprov/wifiprov-go/pkg/link/exec"
	"github.com/wifiprov/wifiprov-go/pkg/link/sim"
	wlog "github.com/wifiprov/wifiprov-go/pkg/log"
	"github.com/wifiprov/wifiprov-go/pkg/persistence"
	"github.com/wifiprov/wifiprov-go/pkg/provisioning"
	"github.com/wifiprov/wifiprov-go/pkg/provisioning/mdns"
	"github.com/wifiprov/wifiprov-go/pkg/provisioning/serial"
	"github.com/wifiprov/wifiprov-go/pkg/timesync"
)

var (
	configFile string
	envFile    string
	flags      = defaultConfig()
)

func init() {
	flag.StringVar(&configFile, "config", "", "YAML configuration file")
	flag.StringVar(&envFile, "env", ".env", ".env file with WIFIPROV_* variables")
	flag.StringVar(&flags.Driver, "driver", flags.Driver, "Radio driver: sim, exec")
	flag.StringVar(&flags.Hostname, "hostname", flags.Hostname, "Hostname announced via DHCP")
	flag.StringVar(&flags.Interface, "iface", "", "Network interface (exec driver)")
	flag.StringVar(&flags.SSID, "ssid", "", "Network to join")
	flag.StringVar(&flags.Secret, "secret", "", "Network passphrase")
	flag.IntVar(&flags.RetryBudget, "budget", flags.RetryBudget, "Retry budget")
	flag.DurationVar(&flags.StableReset, "stable-reset", 0, "Re-arm the budget after the link is up this long (0 = never)")
	flag.DurationVar(&flags.ReadyTimeout, "ready-timeout", 0, "Give up waiting for an address after this long (0 = never)")
	flag.StringVar(&flags.Provisioning, "provisioning", flags.Provisioning, "Provisioning scheme: mdns, serial, none")
	flag.IntVar(&flags.Discriminator, "discriminator", flags.Discriminator, "Onboarding discriminator (0-4095, -1 = stored or random)")
	flag.StringVar(&flags.PoP, "pop", "", "8-digit proof-of-possession code (empty = stored or random)")
	flag.StringVar(&flags.StateFile, "state", "", "State file for credentials and onboarding identity")
	flag.StringVar(&flags.NTPServer, "ntp", timesync.DefaultServer, `Time server, "off" to disable`)
	flag.StringVar(&flags.EventLog, "event-log", "", "Write a .wlog event log")
	flag.StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "Log level: debug, info, warn, error")
	flag.BoolVar(&flags.Interactive, "interactive", false, "Start the interactive console")
}

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cancel, cfg); err != nil {
		log.Fatalf("%v", err)
	}
	log.Println("Goodbye!")
}

// loadConfig layers defaults, the config file, the environment and the
// flags given on the command line, in that order.
func loadConfig() (Config, error) {
	cfg := defaultConfig()
	if configFile != "" {
		if err := loadFile(configFile, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := loadEnvFile(envFile); err != nil {
		return cfg, err
	}
	applyEnv(&cfg, os.Getenv)

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "driver":
			cfg.Driver = flags.Driver
		case "hostname":
			cfg.Hostname = flags.Hostname
		case "iface":
			cfg.Interface = flags.Interface
		case "ssid":
			cfg.SSID = flags.SSID
		case "secret":
			cfg.Secret = flags.Secret
		case "budget":
			cfg.RetryBudget = flags.RetryBudget
		case "stable-reset":
			cfg.StableReset = flags.StableReset
		case "ready-timeout":
			cfg.ReadyTimeout = flags.ReadyTimeout
		case "provisioning":
			cfg.Provisioning = flags.Provisioning
		case "discriminator":
			cfg.Discriminator = flags.Discriminator
		case "pop":
			cfg.PoP = flags.PoP
		case "state":
			cfg.StateFile = flags.StateFile
		case "ntp":
			cfg.NTPServer = flags.NTPServer
		case "event-log":
			cfg.EventLog = flags.EventLog
		case "log-level":
			cfg.LogLevel = flags.LogLevel
		case "interactive":
			cfg.Interactive = flags.Interactive
		}
	})
	if cfg.NTPServer == "" {
		cfg.NTPServer = timesync.DefaultServer
	}
	return cfg, cfg.validate()
}

func run(ctx context.Context, cancel context.CancelFunc, cfg Config) error {
	// Output is routed through the console when it is active.
	var out io.Writer = os.Stdout
	var console *interactive.Console
	if cfg.Interactive {
		var err error
		if console, err = interactive.New(); err != nil {
			return err
		}
		out = console.Stdout()
	}

	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)
	log.SetOutput(out)
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	var state *persistence.StateStore
	if cfg.StateFile != "" {
		state = persistence.NewStateStore(cfg.StateFile)
	}

	driver, radio, err := createDriver(cfg, logger)
	if err != nil {
		return err
	}

	eventLog, closeEvents, err := createEventLogger(cfg, logger)
	if err != nil {
		return err
	}
	defer closeEvents()

	transport, err := createTransport(cfg, state, logger, out)
	if err != nil {
		return err
	}

	var syncer *timesync.Syncer
	if cfg.NTPServer != "off" {
		syncer = timesync.NewSyncer(timesync.NewClock(), timesync.Config{
			Server:      cfg.NTPServer,
			Logger:      logger,
			EventLogger: eventLog,
		})
	}

	assoc := association.DefaultConfig()
	assoc.RetryBudget = cfg.RetryBudget
	assoc.StableResetAfter = cfg.StableReset
	assoc.Provisioning = link.ProvisioningConfig{Scheme: cfg.Provisioning}

	seq, err := bringup.New(driver, bringup.Config{
		Link: link.Config{
			Hostname:  cfg.Hostname,
			Interface: cfg.Interface,
		},
		Credential:   credential.Credential{SSID: cfg.SSID, Secret: cfg.Secret},
		Association:  assoc,
		Transport:    transport,
		State:        state,
		ReadyTimeout: cfg.ReadyTimeout,
		TimeSync:     syncer,
		Logger:       logger,
		EventLogger:  eventLog,
	})
	if err != nil {
		return err
	}
	defer seq.Close()

	if console != nil {
		console.Attach(seq, radio)
		go console.Run(ctx, cancel)
	}

	log.Printf("Bringing up network (driver %s, budget %d, provisioning %s)", cfg.Driver, assoc.RetryBudget, cfg.Provisioning)
	addr, err := seq.Run(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("bring-up failed: %w", err)
	}
	log.Printf("Network ready: %s", addr)

	// Association errors after readiness end the process.
	fatal := seq.Fatal()

	if syncer == nil {
		select {
		case err := <-fatal:
			return fmt.Errorf("association failed: %w", err)
		case <-ctx.Done():
			return nil
		}
	}
	select {
	case <-seq.Synced():
	case err := <-fatal:
		return fmt.Errorf("association failed: %w", err)
	case <-ctx.Done():
		return nil
	}
	if err := seq.SyncErr(); err != nil {
		log.Printf("Warning: time sync failed: %v", err)
	}

	reportCtx, stopReport := context.WithCancel(ctx)
	defer stopReport()
	reported := make(chan error, 1)
	reporter := timesync.NewReporter(syncer.Clock(), timesync.DefaultReportInterval, out, logger)
	go func() { reported <- reporter.Run(reportCtx) }()

	select {
	case err := <-fatal:
		return fmt.Errorf("association failed: %w", err)
	case err := <-reported:
		if err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	}
}

func createDriver(cfg Config, logger *slog.Logger) (link.Driver, *sim.Driver, error) {
	switch cfg.Driver {
	case "exec":
		d, err := linkexec.New(linkexec.Config{
			Connect:    orDefault(cfg.Exec.Connect, linkexec.DefaultConnect),
			Disconnect: orDefault(cfg.Exec.Disconnect, linkexec.DefaultDisconnect),
			Provision:  cfg.Exec.Provision,
			Logger:     logger,
		})
		return d, nil, err

	default:
		opts := make([]sim.Option, 0, len(cfg.Sim.AccessPoints)+1)
		for _, ap := range cfg.Sim.AccessPoints {
			opts = append(opts, sim.WithAccessPoint(sim.AccessPoint{SSID: ap.SSID, Secret: ap.Secret}))
		}
		if len(cfg.Sim.AccessPoints) == 0 && cfg.SSID != "" {
			// Without an explicit table the configured network exists.
			opts = append(opts, sim.WithAccessPoint(sim.AccessPoint{SSID: cfg.SSID, Secret: cfg.Secret}))
		}
		var failures []link.Reason
		for _, s := range cfg.Sim.Failures {
			r, err := link.ParseReason(s)
			if err != nil {
				return nil, nil, err
			}
			failures = append(failures, r)
		}
		opts = append(opts, sim.WithFailures(failures...))
		d := sim.New(opts...)
		return d, d, nil
	}
}

func createTransport(cfg Config, state *persistence.StateStore, logger *slog.Logger, out io.Writer) (provisioning.Transport, error) {
	switch cfg.Provisioning {
	case "mdns":
		code, err := onboardingCode(cfg, state)
		if err != nil {
			return nil, err
		}
		printOnboardingInfo(out, code)
		return mdns.NewBrowser(mdns.BrowserConfig{
			Discriminator: code.Discriminator,
			PoP:           code.PoP,
			Interface:     cfg.Interface,
			Logger:        logger,
		})
	case "serial":
		if cfg.Interactive {
			// The console reads stdin; credentials go through its wifi command.
			return nil, nil
		}
		return serial.New(os.Stdin, out, logger), nil
	default:
		return nil, nil
	}
}

// onboardingCode resolves the device identity from flags, the state file
// or fresh random values, in that order.
func onboardingCode(cfg Config, state *persistence.StateStore) (*mdns.OnboardingCode, error) {
	generate := func() (persistence.OnboardingRecord, error) {
		rec := persistence.OnboardingRecord{PoP: cfg.PoP}
		if cfg.Discriminator >= 0 {
			rec.Discriminator = uint16(cfg.Discriminator)
		} else {
			d, err := mdns.GenerateDiscriminator()
			if err != nil {
				return rec, err
			}
			rec.Discriminator = d
		}
		if rec.PoP == "" {
			pop, err := mdns.GeneratePoP()
			if err != nil {
				return rec, err
			}
			rec.PoP = pop
		}
		return rec, nil
	}

	var rec persistence.OnboardingRecord
	var err error
	if state != nil && cfg.Discriminator < 0 && cfg.PoP == "" {
		rec, err = state.LoadOrCreateOnboarding(generate)
	} else {
		rec, err = generate()
	}
	if err != nil {
		return nil, err
	}
	return mdns.NewOnboardingCode(rec.Discriminator, rec.PoP)
}

func createEventLogger(cfg Config, logger *slog.Logger) (wlog.Logger, func(), error) {
	loggers := []wlog.Logger{wlog.NewSlogAdapter(logger).WithLevel(slog.LevelDebug)}
	closeFn := func() {}

	if cfg.EventLog != "" {
		fl, err := wlog.NewFileLogger(cfg.EventLog)
		if err != nil {
			return nil, nil, fmt.Errorf("event log: %w", err)
		}
		loggers = append(loggers, fl)
		closeFn = func() {
			if n := fl.Dropped(); n > 0 {
				log.Printf("Warning: %d event(s) could not be written", n)
			}
			fl.Close()
		}
	}
	return wlog.NewStamper(wlog.NewMultiLogger(loggers...), cfg.Hostname), closeFn, nil
}

func printOnboardingInfo(w io.Writer, code *mdns.OnboardingCode) {
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "============================================")
	fmt.Fprintln(w, "         ONBOARDING INFORMATION             ")
	fmt.Fprintln(w, "============================================")
	fmt.Fprintf(w, "QR Code String: %s\n", code)
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "  Discriminator: %d\n", code.Discriminator)
	fmt.Fprintf(w, "  PoP:           %s\n", code.PoP)
	fmt.Fprintln(w, "============================================")
	fmt.Fprintln(w, "")
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

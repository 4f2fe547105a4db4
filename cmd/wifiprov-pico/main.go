//go:build tinygo && (rp2040 || rp2350)

// Command wifiprov-pico brings a Raspberry Pi Pico W or Pico 2 W onto a
// Wi-Fi network.
//
// The initial credential is compiled in. When it fails the retry budget
// times, the device accepts "wifi <ssid> <secret>" lines on the USB serial
// console. Build with:
//
//	tinygo flash -target pico2-w -ldflags "-X main.SSID=HomeNet -X main.Secret=secret123" ./cmd/wifiprov-pico
package main

import (
	"context"
	"log/slog"
	"machine"
	"net/netip"
	"time"

	"github.com/wifiprov/wifiprov-go/pkg/association"
	"github.com/wifiprov/wifiprov-go/pkg/bringup"
	"github.com/wifiprov/wifiprov-go/pkg/credential"
	"github.com/wifiprov/wifiprov-go/pkg/link"
	"github.com/wifiprov/wifiprov-go/pkg/link/cyw43"
	"github.com/wifiprov/wifiprov-go/pkg/provisioning/serial"
	"github.com/wifiprov/wifiprov-go/pkg/timesync"
)

// Build-time settings.
var (
	SSID   string
	Secret string
	Host   = "wifiprov-pico"
	IP     string
)

// serialReader blocks until the UART has data; machine.Serial returns
// (0, nil) when its buffer is empty.
type serialReader struct{}

func (serialReader) Read(p []byte) (int, error) {
	for {
		n, err := machine.Serial.Read(p)
		if n > 0 || err != nil {
			return n, err
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func main() {
	// Give the USB console time to attach.
	time.Sleep(2 * time.Second)

	logger := slog.New(slog.NewTextHandler(machine.Serial, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg := link.Config{Hostname: Host}
	if IP != "" {
		if addr, err := netip.ParseAddr(IP); err == nil {
			cfg.RequestedIP = addr
		} else {
			logger.Warn("ignoring invalid IP", slog.String("ip", IP))
		}
	}

	assoc := association.DefaultConfig()
	assoc.Provisioning = link.ProvisioningConfig{Scheme: serial.Source}

	seq, err := bringup.New(cyw43.New(logger), bringup.Config{
		Link:        cfg,
		Credential:  credential.Credential{SSID: SSID, Secret: Secret},
		Association: assoc,
		Transport:   serial.New(serialReader{}, machine.Serial, logger),
		Logger:      logger,
	})
	if err != nil {
		fatal(logger, err)
	}

	addr, err := seq.Run(context.Background())
	if err != nil {
		fatal(logger, err)
	}
	logger.Info("network ready", slog.String("addr", addr.String()))

	// No time server is reachable without a UDP socket layer, so the clock
	// reports the local time since boot.
	ctx, stop := context.WithCancel(context.Background())
	reporter := timesync.NewReporter(timesync.NewClock(), timesync.DefaultReportInterval, machine.Serial, logger)
	go reporter.Run(ctx)

	err = <-seq.Fatal()
	stop()
	fatal(logger, err)
}

func fatal(logger *slog.Logger, err error) {
	for {
		logger.Error("bring-up failed", slog.String("err", err.Error()))
		time.Sleep(5 * time.Second)
	}
}

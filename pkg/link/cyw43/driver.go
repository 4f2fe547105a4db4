//go:build tinygo && (rp2040 || rp2350)

package cyw43

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"sync"
	"time"

	"github.com/soypat/cyw43439"
	"github.com/soypat/seqs/eth/dhcp"
	"github.com/soypat/seqs/stacks"

	"github.com/wifiprov/wifiprov-go/pkg/credential"
	"github.com/wifiprov/wifiprov-go/pkg/link"
)

const mtu = cyw43439.MTU

// ErrUnsupportedScheme is returned for provisioning schemes other than serial.
var ErrUnsupportedScheme = errors.New("cyw43: unsupported provisioning scheme")

// dhcpAttempts times the half-second poll interval bounds the DHCP wait.
const dhcpAttempts = 16

// Link supervision: the gateway is resolved over ARP every watchInterval;
// lostPolls misses in a row report the link as lost.
const (
	watchInterval = 5 * time.Second
	arpWait       = 2 * time.Second
	lostPolls     = 2
)

// Driver is the CYW43439 link driver. It implements link.Driver.
type Driver struct {
	dev *cyw43439.Device
	q   *link.Queue

	mu          sync.Mutex
	cfg         link.Config
	stack       *stacks.PortStack
	initialized bool
	gen         uint64
	active      bool
	ssid        string

	logger *slog.Logger
}

// New creates a driver for the on-board radio. logger may be nil.
func New(logger *slog.Logger) *Driver {
	return &Driver{
		dev:    cyw43439.NewPicoWDevice(),
		q:      link.NewQueue(),
		logger: logger,
	}
}

// Init implements link.Driver. It uploads the radio firmware.
func (d *Driver) Init(ctx context.Context, cfg link.Config) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	wificfg := cyw43439.DefaultWifiConfig()
	wificfg.Logger = d.logger

	start := time.Now()
	if err := d.dev.Init(wificfg); err != nil {
		return fmt.Errorf("cyw43: %w", err)
	}
	d.infoLog("radio initialized", slog.Duration("duration", time.Since(start)))

	d.mu.Lock()
	defer d.mu.Unlock()
	d.cfg = cfg
	d.initialized = true
	return nil
}

// Start implements link.Driver.
func (d *Driver) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return link.ErrNotInitialized
	}
	d.q.Push(link.StartedEvent())
	return nil
}

// Connect implements link.Driver.
func (d *Driver) Connect(cred credential.Credential) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return link.ErrNotInitialized
	}
	d.leaveLocked()
	d.gen++
	d.active = true
	d.ssid = cred.SSID
	go d.join(d.gen, cred)
	return nil
}

// Disconnect implements link.Driver. The chip leaves its current network
// when it is told to join another, so only the pending outcome is dropped.
func (d *Driver) Disconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.leaveLocked()
	return nil
}

// EnterProvisioningMode implements link.Driver.
func (d *Driver) EnterProvisioningMode(cfg link.ProvisioningConfig) error {
	if cfg.Scheme != "serial" {
		return fmt.Errorf("%w: %q", ErrUnsupportedScheme, cfg.Scheme)
	}
	return d.Disconnect()
}

// Events implements link.Driver.
func (d *Driver) Events() <-chan link.Event {
	return d.q.C()
}

func (d *Driver) join(gen uint64, cred credential.Credential) {
	d.infoLog("joining network", slog.String("ssid", cred.SSID), slog.Int("passlen", len(cred.Secret)))
	if err := d.dev.JoinWPA2(cred.SSID, cred.Secret); err != nil {
		d.infoLog("join failed", slog.String("err", err.Error()))
		d.finish(gen, link.DisconnectedEvent(link.ReasonAuthFail, cred.SSID))
		return
	}

	stack := d.ensureStack()
	addr, err := d.lease(stack)
	if err != nil {
		d.infoLog("dhcp failed", slog.String("err", err.Error()))
		d.finish(gen, link.DisconnectedEvent(link.ReasonConnectionFail, cred.SSID))
		return
	}
	if !d.finish(gen, link.ConnectedEvent(addr)) {
		return
	}
	if !addr.Gateway.IsValid() {
		d.infoLog("no gateway, link not supervised")
		return
	}
	d.watch(gen, stack, addr.Gateway, cred.SSID)
}

// watch resolves the gateway until it stops answering or the attempt is
// superseded.
func (d *Driver) watch(gen uint64, stack *stacks.PortStack, gw netip.Addr, ssid string) {
	misses := 0
	for {
		time.Sleep(watchInterval)
		if !d.current(gen) {
			return
		}
		if resolve(stack, gw) {
			misses = 0
			continue
		}
		if misses++; misses < lostPolls {
			continue
		}
		d.infoLog("gateway unreachable, link lost", slog.String("gw", gw.String()))
		d.finish(gen, link.DisconnectedEvent(link.ReasonBeaconTimeout, ssid))
		return
	}
}

// resolve reports whether gw answers an ARP request within arpWait.
func resolve(stack *stacks.PortStack, gw netip.Addr) bool {
	arp := stack.ARP()
	arp.Abort()
	if err := arp.BeginResolve(gw); err != nil {
		return false
	}
	deadline := time.Now().Add(arpWait)
	for time.Now().Before(deadline) {
		if _, ok := arp.ResultAs6(); ok {
			return true
		}
		time.Sleep(50 * time.Millisecond)
	}
	arp.Abort()
	return false
}

func (d *Driver) current(gen uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return gen == d.gen
}

// ensureStack creates the IP stack and its packet loop once.
func (d *Driver) ensureStack() *stacks.PortStack {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stack != nil {
		return d.stack
	}

	mac, _ := d.dev.HardwareAddr6()
	d.infoLog("link up", slog.String("mac", net.HardwareAddr(mac[:]).String()))
	d.stack = stacks.NewPortStack(stacks.PortStackConfig{
		MAC:             mac,
		MaxOpenPortsUDP: 2,
		MaxOpenPortsTCP: 1,
		MTU:             mtu,
		Logger:          d.logger,
	})
	d.dev.RecvEthHandle(d.stack.RecvEth)
	go nicLoop(d.dev, d.stack)
	return d.stack
}

// lease runs DHCP. When no server answers it falls back to the requested
// address as a static one.
func (d *Driver) lease(stack *stacks.PortStack) (link.Address, error) {
	d.mu.Lock()
	requested, hostname := d.cfg.RequestedIP, d.cfg.Hostname
	d.mu.Unlock()

	client := stacks.NewDHCPClient(stack, dhcp.DefaultClientPort)
	err := client.BeginRequest(stacks.DHCPRequestConfig{
		RequestedAddr: requested,
		Xid:           uint32(time.Now().Nanosecond()),
		Hostname:      hostname,
	})
	if err != nil {
		return link.Address{}, err
	}

	for i := 0; client.State() != dhcp.StateBound; i++ {
		if i >= dhcpAttempts {
			if !requested.IsValid() {
				return link.Address{}, errors.New("dhcp did not complete")
			}
			d.infoLog("dhcp did not complete, assigning static IP", slog.String("ip", requested.String()))
			stack.SetAddr(requested)
			return link.Address{IP: requested}, nil
		}
		time.Sleep(time.Second / 2)
	}

	ip := client.Offer()
	stack.SetAddr(ip)
	return link.Address{
		IP:        ip,
		PrefixLen: int(client.CIDRBits()),
		Gateway:   client.Gateway(),
	}, nil
}

func (d *Driver) finish(gen uint64, ev link.Event) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if gen != d.gen {
		return false
	}
	if ev.Type == link.EventDisconnected {
		d.active = false
	}
	d.q.Push(ev)
	return true
}

func (d *Driver) leaveLocked() {
	if !d.active {
		return
	}
	d.gen++
	d.active = false
	d.q.Push(link.DisconnectedEvent(link.ReasonLeave, d.ssid))
}

func (d *Driver) infoLog(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Info(msg, args...)
	}
}

// nicLoop moves packets between the radio and the IP stack.
func nicLoop(dev *cyw43439.Device, stack *stacks.PortStack) {
	const (
		queueSize                = 3
		maxRetriesBeforeDropping = 3
	)
	var queue [queueSize][mtu]byte
	var lenBuf [queueSize]int
	var retries [queueSize]int
	markSent := func(i int) {
		lenBuf[i] = 0
		retries[i] = 0
	}
	for {
		stallRx := true
		gotPacket, err := dev.PollOne()
		if err != nil {
			println("poll error:", err.Error())
		}
		if gotPacket {
			stallRx = false
		}

		for i := range queue {
			if retries[i] != 0 {
				continue
			}
			lenBuf[i], err = stack.HandleEth(queue[i][:])
			if err != nil {
				lenBuf[i] = 0
				continue
			}
			if lenBuf[i] == 0 {
				break
			}
		}
		if lenBuf == [queueSize]int{} {
			if stallRx {
				time.Sleep(51 * time.Millisecond)
			}
			continue
		}

		for i := range queue {
			n := lenBuf[i]
			if n <= 0 {
				continue
			}
			if err := dev.SendEth(queue[i][:n]); err != nil {
				retries[i]++
				if retries[i] > maxRetriesBeforeDropping {
					markSent(i)
				}
			} else {
				markSent(i)
			}
		}
	}
}

var _ link.Driver = (*Driver)(nil)

// Package interactive provides the interactive command-line interface
// for wifiprov-device.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/google/shlex"

	"github.com/wifiprov/wifiprov-go/pkg/bringup"
	"github.com/wifiprov/wifiprov-go/pkg/link"
	"github.com/wifiprov/wifiprov-go/pkg/link/sim"
	"github.com/wifiprov/wifiprov-go/pkg/provisioning"
)

// Console handles interactive mode for wifiprov-device.
type Console struct {
	seq   *bringup.Sequencer
	radio *sim.Driver
	rl    *readline.Instance
}

// New creates a console. Attach must be called before Run.
func New() (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "wifi> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Console{rl: rl}, nil
}

// Attach binds the console to a sequencer. radio may be nil when the device
// runs on a real driver; radio commands are then unavailable.
func (c *Console) Attach(seq *bringup.Sequencer, radio *sim.Driver) {
	c.seq = seq
	c.radio = radio
}

// Stdout returns a writer that properly coordinates with the readline input.
// Use this for log output to avoid interfering with the command prompt.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Run starts the interactive command loop.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	c.printHelp(c.rl.Stdout())

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		if quit := c.Exec(c.rl.Stdout(), line); quit {
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return
		}
	}
}

// Exec runs one command line and writes its output to w. It reports true
// when the command asks to quit.
func (c *Console) Exec(w io.Writer, line string) bool {
	parts, err := shlex.Split(strings.TrimSpace(line))
	if err != nil {
		fmt.Fprintf(w, "Parse error: %v\n", err)
		return false
	}
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		c.printHelp(w)
	case "status", "s":
		c.cmdStatus(w)
	case "wifi", "cred":
		c.cmdWifi(w, args)
	case "drop":
		c.cmdDrop(w, args)
	case "fail":
		c.cmdFail(w, args)
	case "ap":
		c.cmdAP(w, args)
	case "quit", "exit", "q":
		return true
	default:
		fmt.Fprintf(w, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (c *Console) printHelp(w io.Writer) {
	fmt.Fprintln(w, `
Wi-Fi Device Commands:
  status                 - Show association, budget and readiness
  wifi <ssid> <secret>   - Deliver credentials as if provisioned

  Simulated radio:
    drop [reason]        - Drop the current link (default beacon-timeout)
    fail <reason>...     - Fail the next connect attempts
    ap add <ssid> <sec>  - Add an access point
    ap rm <ssid>         - Remove an access point

  quit                   - Exit`)
}

func (c *Console) cmdStatus(w io.Writer) {
	ctrl := c.seq.Controller()
	if ctrl == nil {
		fmt.Fprintln(w, "Not started yet")
		return
	}
	fmt.Fprintf(w, "State:       %s\n", ctrl.State())
	fmt.Fprintf(w, "Budget:      %d\n", ctrl.Budget())
	fmt.Fprintf(w, "Credential:  %s\n", c.seq.Store().Get())
	fmt.Fprintf(w, "Connects:    %d\n", ctrl.Connects())
	fmt.Fprintf(w, "Provisioned: %d time(s)\n", ctrl.ProvisioningActivations())

	if addr, ok := c.seq.Gate().Address(); ok {
		fmt.Fprintf(w, "Address:     %s (ready since %s)\n", addr, c.seq.Gate().ReadyAt().Format(time.TimeOnly))
	} else {
		fmt.Fprintln(w, "Address:     <waiting>")
	}
	if err := ctrl.Err(); err != nil {
		fmt.Fprintf(w, "Fatal:       %v\n", err)
	}
}

func (c *Console) cmdWifi(w io.Writer, args []string) {
	if len(args) != 2 {
		fmt.Fprintln(w, "Usage: wifi <ssid> <secret>")
		return
	}
	l := c.seq.Listener()
	if l == nil {
		fmt.Fprintln(w, "Not started yet")
		return
	}
	err := l.OnCredentialsDiscovered(provisioning.CredentialsDiscovered{
		SSID:   args[0],
		Secret: args[1],
		Source: "console",
		Time:   time.Now(),
	})
	if err != nil {
		fmt.Fprintf(w, "Rejected: %v\n", err)
		return
	}
	fmt.Fprintf(w, "Credentials for %q delivered\n", args[0])
}

func (c *Console) cmdDrop(w io.Writer, args []string) {
	if !c.needRadio(w) {
		return
	}
	reason := link.ReasonBeaconTimeout
	if len(args) > 0 {
		r, err := link.ParseReason(args[0])
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return
		}
		reason = r
	}
	if !c.radio.Drop(reason) {
		fmt.Fprintln(w, "No link to drop")
		return
	}
	fmt.Fprintf(w, "Link dropped (%s)\n", reason)
}

func (c *Console) cmdFail(w io.Writer, args []string) {
	if !c.needRadio(w) {
		return
	}
	if len(args) == 0 {
		fmt.Fprintln(w, "Usage: fail <reason>...")
		return
	}
	reasons := make([]link.Reason, 0, len(args))
	for _, a := range args {
		r, err := link.ParseReason(a)
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return
		}
		reasons = append(reasons, r)
	}
	c.radio.FailNext(reasons...)
	fmt.Fprintf(w, "Next %d attempt(s) will fail\n", len(reasons))
}

func (c *Console) cmdAP(w io.Writer, args []string) {
	if !c.needRadio(w) {
		return
	}
	switch {
	case len(args) == 3 && args[0] == "add":
		c.radio.AddAccessPoint(sim.AccessPoint{SSID: args[1], Secret: args[2]})
		fmt.Fprintf(w, "Access point %q added\n", args[1])
	case len(args) == 2 && (args[0] == "rm" || args[0] == "remove"):
		c.radio.RemoveAccessPoint(args[1])
		fmt.Fprintf(w, "Access point %q removed\n", args[1])
	default:
		fmt.Fprintln(w, "Usage: ap add <ssid> <secret> | ap rm <ssid>")
	}
}

func (c *Console) needRadio(w io.Writer) bool {
	if c.radio == nil {
		fmt.Fprintln(w, "Radio commands need the sim driver")
		return false
	}
	return true
}

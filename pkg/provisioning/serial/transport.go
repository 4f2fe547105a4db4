package serial

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/shlex"

	"github.com/wifiprov/wifiprov-go/pkg/provisioning"
)

// Source is reported in provisioning.CredentialsDiscovered.
const Source = "serial"

// ErrInactive is reported for credentials typed while provisioning is off.
var ErrInactive = errors.New("provisioning inactive")

// Transport reads credentials from a console. It implements
// provisioning.Transport.
type Transport struct {
	in  io.Reader
	out io.Writer

	mu      sync.Mutex
	obs     provisioning.Observer
	gen     uint64
	reading bool
	lines   uint64

	logger *slog.Logger
}

// New creates a transport reading lines from in and writing replies to out.
// out may be nil.
func New(in io.Reader, out io.Writer, logger *slog.Logger) *Transport {
	return &Transport{in: in, out: out, logger: logger}
}

// Start routes credentials to obs. The reader goroutine starts on the first
// call and runs until in is exhausted.
func (t *Transport) Start(ctx context.Context, obs provisioning.Observer) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.obs = obs
	t.gen++
	gen := t.gen
	if !t.reading {
		t.reading = true
		go t.read()
	}
	t.reply("provisioning active")

	go func() {
		<-ctx.Done()
		t.detach(gen)
	}()
	return nil
}

// Stop stops routing credentials. Lines read afterwards are rejected.
func (t *Transport) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.obs = nil
	return nil
}

// Lines returns the number of non-empty lines read.
func (t *Transport) Lines() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lines
}

// detach drops the observer registered by Start call gen.
func (t *Transport) detach(gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.gen == gen {
		t.obs = nil
	}
}

func (t *Transport) read() {
	scanner := bufio.NewScanner(t.in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := t.handleLine(line); err != nil {
			t.respond("error: " + err.Error())
		} else {
			t.respond("ok")
		}
	}
	if err := scanner.Err(); err != nil && t.logger != nil {
		t.logger.Warn("serial provisioning input failed", "error", err)
	}
}

// handleLine parses one command and delivers it.
func (t *Transport) handleLine(line string) error {
	t.mu.Lock()
	t.lines++
	obs := t.obs
	t.mu.Unlock()

	words, err := shlex.Split(line)
	if err != nil {
		return err
	}
	if len(words) == 0 {
		return nil
	}

	switch words[0] {
	case "wifi", "set":
		if len(words) != 3 {
			return fmt.Errorf("usage: %s <ssid> <secret>", words[0])
		}
		if obs == nil {
			return ErrInactive
		}
		return obs.OnCredentialsDiscovered(provisioning.CredentialsDiscovered{
			SSID:   words[1],
			Secret: words[2],
			Source: Source,
			Time:   time.Now(),
		})
	default:
		return fmt.Errorf("unknown command %q", words[0])
	}
}

func (t *Transport) respond(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reply(msg)
}

func (t *Transport) reply(msg string) {
	if t.out != nil {
		fmt.Fprintln(t.out, msg)
	}
}

var _ provisioning.Transport = (*Transport)(nil)

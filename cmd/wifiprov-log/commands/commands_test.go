package commands

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wifiprov/wifiprov-go/pkg/log"
)

func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.wlog")

	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()
	return path
}

// bootEvents is a bring-up that exhausts the budget, gets provisioned and
// comes up.
func bootEvents(bootID string, start time.Time) []log.Event {
	at := func(ms int) time.Time { return start.Add(time.Duration(ms) * time.Millisecond) }
	events := []log.Event{
		{Timestamp: at(0), BootID: bootID, Device: "kitchen", Layer: log.LayerAssociation, Category: log.CategoryState,
			StateChange: &log.StateChangeEvent{OldState: "IDLE", NewState: "CONNECTING"}},
	}
	for i := 0; i < 3; i++ {
		events = append(events, log.Event{
			Timestamp: at(100 * (i + 1)), BootID: bootID, Device: "kitchen",
			Layer: log.LayerAssociation, Category: log.CategoryRetry,
			Retry: &log.RetryEvent{Reason: "auth-fail", ReasonCode: 202, SSID: "OldNet", Remaining: 2 - i, Exhausted: i == 2},
		})
	}
	events = append(events,
		log.Event{Timestamp: at(500), BootID: bootID, Device: "kitchen", Layer: log.LayerProvisioning, Category: log.CategoryCredential,
			Credential: &log.CredentialEvent{SSID: "HomeNet", Source: "mdns"}},
		log.Event{Timestamp: at(900), BootID: bootID, Device: "kitchen", Layer: log.LayerReadiness, Category: log.CategoryState,
			Address: &log.AddressEvent{IP: "192.168.4.2", PrefixLen: 24, Gateway: "192.168.4.1"}},
		log.Event{Timestamp: at(1200), BootID: bootID, Device: "kitchen", Layer: log.LayerTimeSync, Category: log.CategoryState,
			TimeSync: &log.TimeSyncEvent{Server: "pool.ntp.org", Offset: -3 * time.Millisecond, RTT: 20 * time.Millisecond, Attempt: 2}},
	)
	return events
}

func TestViewFormatsEveryPayload(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 0, time.UTC)
	events := append(bootEvents("3f2a9c1e-0000-4000-8000-000000000001", ts), log.Event{
		Timestamp: ts.Add(2 * time.Second), Layer: log.LayerReadiness, Category: log.CategoryError,
		Error: &log.ErrorEventData{Layer: log.LayerReadiness, Message: "timed out", Fatal: true, Context: "bring-up"},
	})
	path := createTestLogFile(t, events)

	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"2026-01-28T10:15:32.000000Z [boot:3f2a9c1e] ASSOCIATION State",
		"IDLE -> CONNECTING",
		"Reason: auth-fail (202)",
		"Budget exhausted, provisioning",
		`SSID: "HomeNet"`,
		"Source: mdns",
		"IP: 192.168.4.2/24",
		"Gateway: 192.168.4.1",
		"Offset: -3.000ms",
		"Attempt: 2",
		"Message: timed out",
		"Context: bring-up",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestViewFiltersByCategory(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	path := createTestLogFile(t, bootEvents("boot-a", ts))

	retry, err := ParseCategoryFlag("retry")
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{Category: &retry}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	out := buf.String()

	if got := strings.Count(out, " Retry\n"); got != 3 {
		t.Errorf("expected 3 retry events, got %d:\n%s", got, out)
	}
	if strings.Contains(out, "Credential") {
		t.Error("credential event should have been filtered")
	}
}

func TestParseFlags(t *testing.T) {
	if l, err := ParseLayerFlag("TimeSync"); err != nil || l != log.LayerTimeSync {
		t.Errorf("ParseLayerFlag(TimeSync) = %v, %v", l, err)
	}
	if _, err := ParseLayerFlag("wire"); err == nil {
		t.Error("expected error for unknown layer")
	}
	if c, err := ParseCategoryFlag("credential"); err != nil || c != log.CategoryCredential {
		t.Errorf("ParseCategoryFlag(credential) = %v, %v", c, err)
	}
	if _, err := ParseCategoryFlag("message"); err == nil {
		t.Error("expected error for unknown category")
	}
}

func TestStatsSummarizesBoots(t *testing.T) {
	t1 := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	events := append(bootEvents("aaaaaaaa-1", t1), bootEvents("bbbbbbbb-2", t2)...)
	events = append(events, log.Event{
		Timestamp: t2.Add(5 * time.Second), BootID: "bbbbbbbb-2", Layer: log.LayerLink, Category: log.CategoryError,
		Error: &log.ErrorEventData{Layer: log.LayerLink, Message: "radio gone", Fatal: true},
	})
	path := createTestLogFile(t, events)

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Total Events: 15",
		"ASSOCIATION:",
		"RETRY:",
		"auth-fail:",
		"Boots: 2",
		"[aaaaaaaa]",
		"[bbbbbbbb]",
		"Device: kitchen",
		"Failed attempts: 3, provisioning entered: 1, credentials: 1",
		"Ready: 192.168.4.2 after 900ms",
		"Time synced",
		"Fatal: radio gone",
		"Errors: 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Index(out, "[aaaaaaaa]") > strings.Index(out, "[bbbbbbbb]") {
		t.Error("boots should be listed in order of first event")
	}
}

func TestExportJSONL(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	path := createTestLogFile(t, bootEvents("boot-a", ts))
	out := filepath.Join(t.TempDir(), "out.jsonl")

	if err := RunExport(path, "jsonl", out); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 7 {
		t.Fatalf("expected 7 lines, got %d", len(lines))
	}

	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("line 0 is not JSON: %v", err)
	}
	if first["BootID"] != "boot-a" {
		t.Errorf("BootID = %v, want boot-a", first["BootID"])
	}
}

func TestExportCSV(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	path := createTestLogFile(t, bootEvents("boot-a", ts))
	out := filepath.Join(t.TempDir(), "out.csv")

	if err := RunExport(path, "csv", out); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 8 {
		t.Fatalf("expected header + 7 rows, got %d", len(rows))
	}
	retry := rows[2]
	if retry[5] != "Retry" || retry[6] != "OldNet" || retry[7] != "auth-fail" {
		t.Errorf("unexpected retry row: %v", retry)
	}
}

func TestExportUnknownFormat(t *testing.T) {
	path := createTestLogFile(t, nil)
	if err := RunExport(path, "xml", filepath.Join(t.TempDir(), "x")); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestFilterBySSIDAndBoot(t *testing.T) {
	t1 := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	events := append(bootEvents("boot-a", t1), bootEvents("boot-b", t1.Add(time.Hour))...)
	path := createTestLogFile(t, events)
	out := filepath.Join(t.TempDir(), "filtered.wlog")

	n, err := RunFilter(path, FilterOptions{Output: out, BootID: "boot-b", SSID: "OldNet"})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 events, got %d", n)
	}

	reader, err := log.NewReader(out)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()
	for i := 0; i < n; i++ {
		ev, err := reader.Next()
		if err != nil {
			t.Fatal(err)
		}
		if ev.BootID != "boot-b" || ev.Retry == nil {
			t.Errorf("unexpected event %d: %+v", i, ev)
		}
	}
}

func TestFilterRejectsBadTime(t *testing.T) {
	path := createTestLogFile(t, nil)
	_, err := RunFilter(path, FilterOptions{Output: filepath.Join(t.TempDir(), "x"), TimeStart: "yesterday"})
	if err == nil {
		t.Error("expected error for invalid time-start")
	}
}

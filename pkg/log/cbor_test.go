package log

import (
	"testing"
	"time"
)

func TestEventCBORRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 589793238, time.UTC)
	original := Event{
		Timestamp: ts,
		BootID:    "abc12345-def6-7890-abcd-ef1234567890",
		Layer:     LayerAssociation,
		Category:  CategoryRetry,
		Device:    "pico-kitchen",
		Retry: &RetryEvent{
			Reason:     "auth-fail",
			ReasonCode: 202,
			SSID:       "HomeNet",
			Remaining:  2,
		},
	}

	data, err := EncodeEvent(original)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}

	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if !decoded.Timestamp.Equal(original.Timestamp) {
		t.Errorf("Timestamp: got %v, want %v", decoded.Timestamp, original.Timestamp)
	}
	if decoded.BootID != original.BootID {
		t.Errorf("BootID: got %q, want %q", decoded.BootID, original.BootID)
	}
	if decoded.Layer != original.Layer || decoded.Category != original.Category {
		t.Errorf("Layer/Category: got %v/%v", decoded.Layer, decoded.Category)
	}
	if decoded.Device != original.Device {
		t.Errorf("Device: got %q, want %q", decoded.Device, original.Device)
	}
	if decoded.Retry == nil {
		t.Fatal("Retry payload lost")
	}
	if *decoded.Retry != *original.Retry {
		t.Errorf("Retry: got %+v, want %+v", *decoded.Retry, *original.Retry)
	}
}

func TestTimeSyncEventCBORKeepsDurations(t *testing.T) {
	original := Event{
		Timestamp: time.Now(),
		Layer:     LayerTimeSync,
		Category:  CategoryState,
		TimeSync: &TimeSyncEvent{
			Server:  "pool.ntp.org",
			Offset:  -1500 * time.Millisecond,
			RTT:     23 * time.Millisecond,
			Attempt: 2,
		},
	}

	data, err := EncodeEvent(original)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}
	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}
	if decoded.TimeSync == nil || *decoded.TimeSync != *original.TimeSync {
		t.Errorf("TimeSync: got %+v, want %+v", decoded.TimeSync, original.TimeSync)
	}
}

func TestEventCBOROmitsEmptyPayloads(t *testing.T) {
	data, err := EncodeEvent(Event{
		Timestamp:   time.Now(),
		Layer:       LayerReadiness,
		Category:    CategoryState,
		StateChange: &StateChangeEvent{NewState: "READY"},
	})
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}

	var raw map[uint64]any
	if err := decMode.Unmarshal(data, &raw); err != nil {
		t.Fatalf("failed to decode as map: %v", err)
	}
	for _, key := range []uint64{11, 12, 13, 14, 15} {
		if _, ok := raw[key]; ok {
			t.Errorf("unset payload key %d present", key)
		}
	}
	if _, ok := raw[10]; !ok {
		t.Error("state change payload key 10 missing")
	}
}

func TestEventCBORUsesIntegerKeys(t *testing.T) {
	event := Event{
		Timestamp: time.Now(),
		BootID:    "boot-1",
		Layer:     LayerLink,
		Category:  CategoryState,
		Device:    "dev",
	}

	data, err := EncodeEvent(event)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}

	var rawMap map[uint64]any
	if err := decMode.Unmarshal(data, &rawMap); err != nil {
		t.Fatalf("failed to decode as map: %v", err)
	}
	for _, key := range []uint64{1, 2, 3, 4, 5} {
		if _, ok := rawMap[key]; !ok {
			t.Errorf("expected integer key %d not found in encoded data", key)
		}
	}

	var stringMap map[string]any
	if err := decMode.Unmarshal(data, &stringMap); err == nil && len(stringMap) > 0 {
		t.Error("encoded data contains string keys, expected integer keys only")
	}
}

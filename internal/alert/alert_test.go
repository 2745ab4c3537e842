package alert

import (
	"log/slog"
	"testing"

	"webperch/internal/config"
	"webperch/internal/sanitize"
)

func TestPublishBadBroker(t *testing.T) {
	// Connecting to a non-existent broker should return a connect error.
	err := publish(config.MQTTAlert{
		Broker:   "tcp://127.0.0.1:19999",
		ClientID: "test-client",
		Topic:    "test/topic",
	}, "hello")
	if err == nil {
		t.Fatal("expected error for unreachable broker")
	}
}

func TestPublishBadScheme(t *testing.T) {
	// A completely invalid broker URL should fail.
	err := publish(config.MQTTAlert{
		Broker:   "not-a-url",
		ClientID: "test-client",
		Topic:    "test/topic",
	}, "hello")
	if err == nil {
		t.Fatal("expected error for invalid broker URL")
	}
}

func TestDisabledPublisherIsNoOp(t *testing.T) {
	p := New(config.MQTTAlert{}, slog.New(slog.DiscardHandler))
	if p.Enabled() {
		t.Fatal("zero config should disable alerts")
	}
	// Must return immediately without touching the network.
	p.Fault(sanitize.Record{Kind: "error", SafeMessage: "an internal error occurred"})
}

func TestReconfigureEnablesAndDisables(t *testing.T) {
	p := New(config.MQTTAlert{}, slog.New(slog.DiscardHandler))
	if p.Enabled() {
		t.Fatal("should start disabled")
	}
	p.Reconfigure(config.MQTTAlert{Broker: "tcp://127.0.0.1:1883", Topic: "webperch/faults"})
	if !p.Enabled() {
		t.Error("broker+topic should enable the publisher")
	}
	p.Reconfigure(config.MQTTAlert{})
	if p.Enabled() {
		t.Error("clearing the destination should disable it again")
	}
}

func TestNilPublisherIsSafe(t *testing.T) {
	var p *Publisher
	if p.Enabled() {
		t.Fatal("nil publisher should report disabled")
	}
}

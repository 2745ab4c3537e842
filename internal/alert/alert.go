// Package alert pushes sanitized fault records to an operator over MQTT.
// Publishing is strictly best-effort: a broker outage must never block or
// crash the shell, so each send uses a fresh short-lived connection with
// hard timeouts.
package alert

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"webperch/internal/config"
	"webperch/internal/sanitize"
)

const waitTimeout = 5 * time.Second

// Publisher sends fault alerts for one configured broker.
type Publisher struct {
	log *slog.Logger

	mu  sync.Mutex
	cfg config.MQTTAlert
}

// New returns a Publisher. The zero-value config disables it.
func New(cfg config.MQTTAlert, log *slog.Logger) *Publisher {
	return &Publisher{cfg: cfg, log: log}
}

// Reconfigure swaps the destination. Each publish opens its own
// connection, so the change applies to the next fault outright.
func (p *Publisher) Reconfigure(cfg config.MQTTAlert) {
	p.mu.Lock()
	p.cfg = cfg
	p.mu.Unlock()
}

func (p *Publisher) config() config.MQTTAlert {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg
}

// Enabled reports whether alerts are configured.
func (p *Publisher) Enabled() bool {
	return p != nil && p.config().Enabled()
}

// payload is the wire form of an alert. Only sanitized fields cross the
// network.
type payload struct {
	Kind        string `json:"kind"`
	SafeMessage string `json:"safe_message"`
	Time        string `json:"time"`
}

// Fault publishes one sanitized record. Failures are logged and swallowed.
func (p *Publisher) Fault(rec sanitize.Record) {
	if p == nil {
		return
	}
	cfg := p.config()
	if !cfg.Enabled() {
		return
	}
	body, err := json.Marshal(payload{
		Kind:        rec.Kind,
		SafeMessage: rec.SafeMessage,
		Time:        time.Now().Format(time.RFC3339),
	})
	if err != nil {
		p.log.Warn("alert: encode failed", "err", err)
		return
	}
	if err := publish(cfg, string(body)); err != nil {
		p.log.Warn("alert: publish failed", "err", err)
	}
}

// publish connects, sends one message, and disconnects. Each invocation
// creates a fresh connection, so there is no session state to go stale
// between faults.
func publish(cfg config.MQTTAlert, message string) error {
	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetConnectTimeout(waitTimeout)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	client := pahomqtt.NewClient(opts)
	tok := client.Connect()
	if !tok.WaitTimeout(waitTimeout) {
		return fmt.Errorf("mqtt: connect timeout")
	}
	if tok.Error() != nil {
		return fmt.Errorf("mqtt: connect: %w", tok.Error())
	}
	defer client.Disconnect(250)

	pub := client.Publish(cfg.Topic, 1, false, message)
	if !pub.WaitTimeout(waitTimeout) {
		return fmt.Errorf("mqtt: publish timeout")
	}
	if pub.Error() != nil {
		return fmt.Errorf("mqtt: publish: %w", pub.Error())
	}
	return nil
}

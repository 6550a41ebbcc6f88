package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"airweather-map/internal/apiclient"
	"airweather-map/internal/config"
	"airweather-map/internal/lookup"
	"airweather-map/internal/notify"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	LookupsTopic = "lookups"
	ToastsTopic  = "toasts"
)

// Publisher fans finished lookups and toasts out to other UIs over MQTT.
type Publisher struct {
	client    mqtt.Client
	cfg       config.Config
	logger    *slog.Logger
	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

// LookupMessage is published to {prefix}/lookups once per finished session.
type LookupMessage struct {
	Session       uint64          `json:"session"`
	CorrelationID string          `json:"correlation_id"`
	Lat           float64         `json:"lat"`
	Lon           float64         `json:"lon"`
	Label         *string         `json:"label,omitempty"`
	Source        string          `json:"source"`
	Outcome       string          `json:"outcome"`
	Error         string          `json:"error,omitempty"`
	Stale         bool            `json:"stale,omitempty"`
	City          string          `json:"city,omitempty"`
	Country       string          `json:"country,omitempty"`
	DistanceKM    *float64        `json:"distance_km,omitempty"`
	StartedAt     time.Time       `json:"started_at"`
	CompletedAt   time.Time       `json:"completed_at"`
	Payload       json.RawMessage `json:"payload,omitempty"`
}

// NewLookupMessage builds the wire message for out. Payload is the backend body, unchanged.
func NewLookupMessage(out lookup.Outcome) LookupMessage {
	msg := LookupMessage{
		Session:       out.Session,
		CorrelationID: out.CorrelationID,
		Lat:           out.Selection.Lat,
		Lon:           out.Selection.Lon,
		Label:         out.Selection.Label,
		Source:        string(out.Selection.Source),
		Outcome:       "success",
		Stale:         out.Stale,
		DistanceKM:    out.DistanceKM,
		StartedAt:     out.StartedAt,
		CompletedAt:   out.CompletedAt,
	}
	if out.Err != nil {
		msg.Outcome = apiclient.KindOf(out.Err).String()
		msg.Error = apiclient.UserMessage(out.Err)
		return msg
	}
	msg.City = out.Result.City
	msg.Country = out.Result.Country
	if len(out.Result.Raw) > 0 {
		msg.Payload = out.Result.Raw
	}
	return msg
}

func NewPublisher(cfg config.Config, logger *slog.Logger) (*Publisher, error) {
	if cfg.MQTTBroker == "" {
		return nil, fmt.Errorf("mqtt broker not configured")
	}
	p := &Publisher{
		cfg:    cfg,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTTBroker, cfg.MQTTPort))
	opts.SetClientID(cfg.MQTTClientID)

	// Session settings
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	// Keepalive / timeouts
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		p.setConnected(true)
		logger.Info("mqtt connected", "broker", cfg.MQTTBroker, "port", cfg.MQTTPort)
	})

	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		p.setConnected(false)
		logger.Warn("mqtt connection lost", "error", err)
	})

	p.client = mqtt.NewClient(opts)
	return p, nil
}

// Topic joins the configured prefix and name.
func (p *Publisher) Topic(name string) string {
	return p.cfg.MQTTTopicPrefix + "/" + name
}

// Connect waits for the initial connection and respects ctx and Disconnect.
func (p *Publisher) Connect(ctx context.Context) error {
	select {
	case <-p.stopCh:
		return fmt.Errorf("publisher stopped")
	default:
	}

	if p.IsConnected() {
		return nil
	}

	// With ConnectRetry(true) paho keeps retrying internally.
	token := p.client.Connect()

	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			// OnConnectHandler sets connected=true.
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.stopCh:
			return fmt.Errorf("publisher stopped")
		default:
		}
	}
}

// PublishLookup publishes out to {prefix}/lookups.
func (p *Publisher) PublishLookup(out lookup.Outcome) error {
	return p.publishJSON(p.Topic(LookupsTopic), NewLookupMessage(out), "correlation_id", out.CorrelationID)
}

// PublishToast publishes t to {prefix}/toasts.
func (p *Publisher) PublishToast(t notify.Toast) error {
	return p.publishJSON(p.Topic(ToastsTopic), t, "toast_id", t.ID)
}

func (p *Publisher) publishJSON(topic string, v any, attrs ...any) error {
	if !p.IsConnected() {
		return fmt.Errorf("mqtt client not connected")
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s message: %w", topic, err)
	}

	token := p.client.Publish(topic, 1, false, data)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout for topic %s", topic)
	}
	if err := token.Error(); err != nil {
		p.logger.Error("mqtt publish failed", append([]any{"topic", topic, "error", err}, attrs...)...)
		return fmt.Errorf("publish %s: %w", topic, err)
	}

	p.logger.Debug("mqtt message published", append([]any{"topic", topic, "size", len(data)}, attrs...)...)
	return nil
}

// IsConnected returns whether the client is connected.
func (p *Publisher) IsConnected() bool {
	p.mu.RLock()
	connected := p.connected
	p.mu.RUnlock()
	return connected && p.client.IsConnected()
}

// Disconnect stops the publisher and closes the MQTT connection.
// Idempotent; after it Connect returns "publisher stopped".
func (p *Publisher) Disconnect() {
	p.stopOnce.Do(func() { close(p.stopCh) })

	// Paho Disconnect quiesces in-flight work for the given ms.
	if p.client != nil {
		p.client.Disconnect(250)
	}

	p.setConnected(false)
	p.logger.Info("mqtt disconnected")
}

func (p *Publisher) setConnected(v bool) {
	p.mu.Lock()
	p.connected = v
	p.mu.Unlock()
}

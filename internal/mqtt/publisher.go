package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"windsaloft-server/internal/config"
	"windsaloft-server/internal/modules/windsaloft/types"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const publishTimeout = 5 * time.Second

var (
	ErrNotConnected     = errors.New("mqtt client not connected")
	ErrPublisherStopped = errors.New("mqtt publisher stopped")
)

// Publisher pushes successful forecasts to the broker as retained messages so
// late subscribers get the latest table per region and horizon.
type Publisher struct {
	client      mqtt.Client
	topicPrefix string
	logger      *slog.Logger
	mu          sync.RWMutex
	connected   bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewPublisher(cfg config.Config, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Publisher{
		topicPrefix: cfg.MQTTTopicPrefix,
		logger:      logger,
		stopCh:      make(chan struct{}),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTTBroker, cfg.MQTTPort))
	opts.SetClientID(cfg.MQTTClientID)
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

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
	return p
}

// Connect waits for the first broker connection. The paho client keeps
// retrying in the background after ctx is done.
func (p *Publisher) Connect(ctx context.Context) error {
	select {
	case <-p.stopCh:
		return ErrPublisherStopped
	default:
	}

	if p.IsConnected() {
		return nil
	}

	token := p.client.Connect()

	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.stopCh:
			p.client.Disconnect(0)
			return ErrPublisherStopped
		default:
		}
	}
}

// PublishForecast sends msg as JSON to {prefix}/{region}/{fcst}, QoS 1, retained.
func (p *Publisher) PublishForecast(msg types.ForecastMessage) error {
	if !p.IsConnected() {
		return ErrNotConnected
	}

	topic := ForecastTopic(p.topicPrefix, msg.Region, msg.Horizon)
	if msg.GeneratedAt.IsZero() {
		msg.GeneratedAt = time.Now().UTC()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal forecast: %w", err)
	}

	token := p.client.Publish(topic, 1, true, data)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout for topic %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish forecast: %w", err)
	}

	p.logger.Debug("published forecast", "topic", topic, "bytes", len(data))
	return nil
}

// ForecastTopic builds the topic for a region and horizon. Topic separators
// and wildcards in the region are replaced so one query maps to one level.
func ForecastTopic(prefix, region, horizon string) string {
	return prefix + "/" + topicLevel(region) + "/" + topicLevel(horizon)
}

func topicLevel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '+', '#':
			return '_'
		}
		return r
	}, s)
}

func (p *Publisher) IsConnected() bool {
	p.mu.RLock()
	connected := p.connected
	p.mu.RUnlock()
	return connected && p.client.IsConnected()
}

// Disconnect stops the publisher and closes the connection. Safe to call more
// than once.
func (p *Publisher) Disconnect() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	if p.client != nil {
		p.client.Disconnect(250)
	}
	p.setConnected(false)
	p.logger.Info("mqtt publisher disconnected")
}

func (p *Publisher) setConnected(v bool) {
	p.mu.Lock()
	p.connected = v
	p.mu.Unlock()
}

// NopPublisher drops every message. Used when MQTT_ENABLED is false.
type NopPublisher struct{}

func (NopPublisher) PublishForecast(types.ForecastMessage) error { return nil }

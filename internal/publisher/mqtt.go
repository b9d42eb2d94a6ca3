package publisher

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/jgoulah/flightscraper/internal/aggregate"
	"github.com/jgoulah/flightscraper/internal/config"
)

const (
	qos          = 1
	publishWait  = 10 * time.Second
	disconnectMs = 250
)

// Client is the subset of the paho client the publisher needs
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	IsConnected() bool
	Disconnect(quiesce uint)
}

// Publisher sends merged weekly rows to an MQTT broker
type Publisher struct {
	client      Client
	topicPrefix string
}

// New connects to the configured broker
func New(cfg config.MQTTConfig, topicPrefix string) (*Publisher, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("MQTT publishing is not enabled in config")
	}
	if cfg.Broker == "" {
		return nil, fmt.Errorf("MQTT broker address is required when enabled")
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", cfg.Broker))
	opts.SetClientID("flightscraper-" + uuid.NewString()[:8])
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(false)
	opts.SetConnectTimeout(10 * time.Second)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker: %w", token.Error())
	}

	return NewWithClient(client, topicPrefix), nil
}

// NewWithClient wraps an already connected client
func NewWithClient(client Client, topicPrefix string) *Publisher {
	return &Publisher{
		client:      client,
		topicPrefix: strings.TrimSuffix(topicPrefix, "/"),
	}
}

// WeeklyMessage is the retained payload for one merged week
type WeeklyMessage struct {
	WeekEnd string             `json:"week_end"`
	Values  map[string]float64 `json:"values"`
	RunID   string             `json:"run_id,omitempty"`
}

// Topic returns the topic a week is published under
func (p *Publisher) Topic(weekEnd string) string {
	return fmt.Sprintf("%s/weekly/%s", p.topicPrefix, weekEnd)
}

// Publish sends one message and waits for the broker to acknowledge it
func (p *Publisher) Publish(msg WeeklyMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	token := p.client.Publish(p.Topic(msg.WeekEnd), qos, true, body)
	if !token.WaitTimeout(publishWait) {
		return fmt.Errorf("publishing %s: timed out after %s", msg.WeekEnd, publishWait)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing %s: %w", msg.WeekEnd, err)
	}
	return nil
}

// Close disconnects from the MQTT broker
func (p *Publisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(disconnectMs)
	}
}

// Messages converts a merged table into one message per row. Every column
// other than date must hold a number.
func Messages(t *aggregate.Table, runID string) ([]WeeklyMessage, error) {
	di := t.Index(aggregate.DateColumn)
	if di < 0 {
		return nil, &aggregate.JoinKeyError{Table: t.Name, Column: aggregate.DateColumn}
	}

	msgs := make([]WeeklyMessage, 0, t.Len())
	for i := range t.Rows {
		date, err := aggregate.ParseDate(t.Cell(i, di))
		if err != nil {
			return nil, &aggregate.ParseError{Table: t.Name, Row: i + 1, Column: aggregate.DateColumn, Value: t.Cell(i, di), Err: err}
		}

		msg := WeeklyMessage{
			WeekEnd: aggregate.FormatDate(date),
			Values:  make(map[string]float64, len(t.Header)-1),
			RunID:   runID,
		}
		for col, name := range t.Header {
			if col == di {
				continue
			}
			v, err := strconv.ParseFloat(t.Cell(i, col), 64)
			if err != nil {
				return nil, &aggregate.ParseError{Table: t.Name, Row: i + 1, Column: name, Value: t.Cell(i, col), Err: err}
			}
			msg.Values[strings.TrimSpace(name)] = v
		}
		msgs = append(msgs, msg)
	}

	return msgs, nil
}

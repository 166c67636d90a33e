package metrics

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	coremetrics "github.com/mfragab5890/ev-stats/core/metrics"
	"github.com/mfragab5890/ev-stats/infra/logger"
)

// MQTTConfig defines the broker connection and publishing options.
type MQTTConfig struct {
	Broker      string `json:"broker"`
	ClientID    string `json:"client_id"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	TopicPrefix string `json:"topic_prefix"`
	QoS         byte   `json:"qos"`
	Retain      bool   `json:"retain"`

	// Timeout bounds connect and publish, e.g. "5s".
	Timeout time.Duration `json:"timeout"`
}

// SetDefaults applies sane defaults.
func (c *MQTTConfig) SetDefaults() {
	if c.TopicPrefix == "" {
		c.TopicPrefix = "ev-stats"
	}
	if c.ClientID == "" {
		c.ClientID = "ev-stats"
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
}

// Validate checks mandatory fields.
func (c MQTTConfig) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("mqtt broker is required")
	}
	if c.QoS > 2 {
		return fmt.Errorf("mqtt qos must be 0, 1 or 2, got %d", c.QoS)
	}
	return nil
}

type pahoClient interface {
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// MQTTSink publishes every analysis event as JSON on
// <prefix>/<vin>/analysis and failures on <prefix>/failures.
type MQTTSink struct {
	cli     pahoClient
	prefix  string
	qos     byte
	retain  bool
	timeout time.Duration
	log     logger.Logger
}

// NewMQTTSink connects to the broker.
func NewMQTTSink(cfg MQTTConfig) (*MQTTSink, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.New("mqtt-sink")
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	timeout := cfg.Timeout
	c := newMQTTClient(opts)
	if err := wait(c.Connect(), timeout); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	return &MQTTSink{
		cli:     c,
		prefix:  strings.TrimSuffix(cfg.TopicPrefix, "/"),
		qos:     cfg.QoS,
		retain:  cfg.Retain,
		timeout: timeout,
		log:     log,
	}, nil
}

func wait(tok paho.Token, timeout time.Duration) error {
	if !tok.WaitTimeout(timeout) {
		return fmt.Errorf("timeout after %s", timeout)
	}
	return tok.Error()
}

// topicSegment strips the MQTT wildcard and level characters from a VIN.
func topicSegment(s string) string {
	if s == "" {
		return "unknown"
	}
	return strings.NewReplacer("/", "-", "+", "-", "#", "-").Replace(s)
}

func (s *MQTTSink) publish(topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := wait(s.cli.Publish(topic, s.qos, s.retain, payload), s.timeout); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// RecordAnalysis publishes the event.
func (s *MQTTSink) RecordAnalysis(ev coremetrics.AnalysisEvent) error {
	return s.publish(fmt.Sprintf("%s/%s/analysis", s.prefix, topicSegment(ev.VIN)), ev)
}

// RecordAnalysisFailure publishes the failure.
func (s *MQTTSink) RecordAnalysisFailure(ev coremetrics.AnalysisFailure) error {
	return s.publish(s.prefix+"/failures", map[string]any{
		"run_id": ev.RunID,
		"source": ev.Source,
		"reason": ev.Reason,
		"time":   ev.Time,
	})
}

// Close disconnects from the broker.
func (s *MQTTSink) Close() error {
	s.cli.Disconnect(250)
	return nil
}

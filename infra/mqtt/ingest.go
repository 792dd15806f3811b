// Package mqtt ingests actual route results published by vehicle
// telematics over an MQTT broker and feeds them into the engine.
package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/routeopt/core/model"
	"github.com/kilianp07/routeopt/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker       string      `json:"broker"`
	ClientID     string      `json:"client_id"`
	Username     string      `json:"username"`
	Password     string      `json:"password"`
	OutcomeTopic string      `json:"outcome_topic"`
	QoS          byte        `json:"qos"`
	UseTLS       bool        `json:"use_tls"`
	ClientCert   string      `json:"client_cert"`
	ClientKey    string      `json:"client_key"`
	CABundle     string      `json:"ca_bundle"`
	TLSConfig    *tls.Config `json:"-"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "routeopt-ingest"
	}
	if c.OutcomeTopic == "" {
		c.OutcomeTopic = "routes/+/outcome"
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("broker is required")
	}
	return nil
}

// Reporter consumes reconciled outcomes. Implemented by the engine.
type Reporter interface {
	ReportActualResult(trackingID string, actual model.ActualResult, driverID, vehicleID string) bool
}

// outcomeMessage is the wire payload vehicles publish when a route
// completes.
type outcomeMessage struct {
	TrackingID string             `json:"tracking_id"`
	DriverID   string             `json:"driver_id,omitempty"`
	VehicleID  string             `json:"vehicle_id,omitempty"`
	Actual     model.ActualResult `json:"actual"`
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Ingestor subscribes to the outcome topic and forwards decoded
// results to the reporter.
type Ingestor struct {
	cli      pahoClient
	reporter Reporter
	topic    string
	qos      byte
	logger   logger.Logger
}

// NewIngestor connects to the broker and subscribes to the outcome
// topic. The subscription is re-established on every reconnect.
func NewIngestor(cfg Config, reporter Reporter) (*Ingestor, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if reporter == nil {
		return nil, fmt.Errorf("nil reporter")
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	log := logger.New("mqtt_ingest")
	in := &Ingestor{reporter: reporter, topic: cfg.OutcomeTopic, qos: cfg.QoS, logger: log}

	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		if token := c.Subscribe(in.topic, in.qos, in.onOutcome); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe error: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	in.cli = c
	return in, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

func (in *Ingestor) onOutcome(_ paho.Client, msg paho.Message) {
	var m outcomeMessage
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		in.logger.Errorf("failed to decode outcome: %v", err)
		return
	}
	if m.TrackingID == "" {
		in.logger.Warnf("outcome on %s without tracking id discarded", msg.Topic())
		return
	}
	if in.reporter.ReportActualResult(m.TrackingID, m.Actual, m.DriverID, m.VehicleID) {
		in.logger.Infof("reconciled outcome %s", m.TrackingID)
	} else {
		in.logger.Warnf("outcome %s did not match a pending prediction", m.TrackingID)
	}
}

// Close disconnects from the broker.
func (in *Ingestor) Close() {
	if in.cli != nil && in.cli.IsConnected() {
		in.cli.Disconnect(250)
	}
}

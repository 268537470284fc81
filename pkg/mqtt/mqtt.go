package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"time"

	"github.com/benmeehan/imgmapon/pkg/file"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTClient is the part of the paho client the service uses.
type MQTTClient interface {
	Connect() mqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// Publisher sends finished reports to a broker.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
	Disconnect(quiesce uint)
}

// Options configures the broker connection.
type Options struct {
	Broker     string
	ClientID   string
	Username   string
	Password   string
	CACertPath string
	Timeout    time.Duration
}

// MqttService provides methods for MQTT operations.
type MqttService struct {
	client     MQTTClient
	fileClient file.FileOperations
	timeout    time.Duration
}

// NewMqttService creates a new MqttService instance.
func NewMqttService(fileClient file.FileOperations) *MqttService {
	return &MqttService{
		fileClient: fileClient,
		timeout:    10 * time.Second,
	}
}

// NewMqttServiceWithClient wraps an existing client.
func NewMqttServiceWithClient(client MQTTClient, timeout time.Duration) *MqttService {
	return &MqttService{client: client, timeout: timeout}
}

// Initialize sets up the MQTT client, with TLS when a CA certificate is
// configured, and connects.
func (s *MqttService) Initialize(o Options) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(o.Broker)
	opts.SetClientID(o.ClientID)
	opts.SetAutoReconnect(false)
	if o.Username != "" {
		opts.SetUsername(o.Username)
		opts.SetPassword(o.Password)
	}
	if o.Timeout > 0 {
		s.timeout = o.Timeout
		opts.SetConnectTimeout(o.Timeout)
	}

	if o.CACertPath != "" {
		caCert, err := s.fileClient.ReadFileRaw(o.CACertPath)
		if err != nil {
			return fmt.Errorf("failed to read CA certificate: %w", err)
		}

		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return errors.New("failed to append CA certificate")
		}
		opts.SetTLSConfig(&tls.Config{RootCAs: caCertPool, MinVersion: tls.VersionTLS12})
	}

	s.client = mqtt.NewClient(opts)
	return s.wait(s.client.Connect(), "connect")
}

// Publish sends payload and waits for the broker to acknowledge it.
func (s *MqttService) Publish(topic string, qos byte, retained bool, payload []byte) error {
	if s.client == nil {
		return errors.New("mqtt client not initialized")
	}
	return s.wait(s.client.Publish(topic, qos, retained, payload), "publish")
}

// Disconnect gracefully disconnects the MQTT client.
func (s *MqttService) Disconnect(quiesce uint) {
	if s.client != nil {
		s.client.Disconnect(quiesce)
	}
}

func (s *MqttService) wait(token mqtt.Token, op string) error {
	if !token.WaitTimeout(s.timeout) {
		return fmt.Errorf("mqtt %s timed out after %s", op, s.timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt %s failed: %w", op, err)
	}
	return nil
}

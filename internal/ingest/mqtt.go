package ingest

import (
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/kbolt/sensorlog/internal/logging"
)

// Client is a thin wrapper over the paho MQTT client, preconfigured
// for resilient background ingestion (auto-reconnect, connect retry).
type Client struct {
	client mqtt.Client
}

// Connect dials the broker and blocks until the connection is up or
// the attempt times out. mqtt:// URLs are normalized to tcp://.
func Connect(brokerURL, clientID string) (*Client, error) {
	log := logging.Component("mqtt")

	url := strings.TrimSpace(brokerURL)
	if strings.HasPrefix(url, "mqtt://") {
		url = "tcp://" + strings.TrimPrefix(url, "mqtt://")
	}
	if clientID == "" {
		clientID = fmt.Sprintf("sensorlog-%d", time.Now().UnixMilli())
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(url)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn("connection lost", "error", err)
	}
	opts.OnConnect = func(_ mqtt.Client) {
		log.Info("connected", "broker", url)
	}

	c := mqtt.NewClient(opts)
	tok := c.Connect()
	if ok := tok.WaitTimeout(15 * time.Second); !ok {
		return nil, fmt.Errorf("connect to %s: timed out", url)
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", url, err)
	}
	return &Client{client: c}, nil
}

// Subscribe registers handler for every message under topic (QoS 1).
func (c *Client) Subscribe(topic string, handler func(Message)) error {
	tok := c.client.Subscribe(topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
		handler(msg)
	})
	tok.Wait()
	if err := tok.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	return nil
}

// Close disconnects, allowing one second for in-flight work.
func (c *Client) Close() {
	if c == nil || c.client == nil {
		return
	}
	c.client.Disconnect(1000)
}

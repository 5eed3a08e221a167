// Package telemetry publishes tracking samples to an MQTT broker, so a
// dashboard or home-automation setup can watch the controller live.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/pr-riad/MPPT-P-O/internal/mppt"
	"github.com/pr-riad/MPPT-P-O/internal/sim"
)

// Message represents an outgoing MQTT message.
type Message struct {
	Topic   string
	Payload []byte
	QoS     byte
	Retain  bool
}

// SamplePayload is the JSON body published per tracking sample.
type SamplePayload struct {
	Step      int     `json:"step"`
	Time      float64 `json:"time"`
	Voltage   float64 `json:"voltage"`
	Current   float64 `json:"current"`
	Power     float64 `json:"power"`
	Reference float64 `json:"v_ref"`
	Action    string  `json:"action"`
}

// StatusPayload is the retained JSON body describing a run's configuration
// and liveness. Published on connect and, with online false, before
// disconnect, so late subscribers see the run's parameters and state.
type StatusPayload struct {
	RunID      string  `json:"run_id"`
	Panel      string  `json:"panel"`
	Online     bool    `json:"online"`
	StepSize   float64 `json:"step_size"`
	MinVoltage float64 `json:"min_voltage"`
	MaxVoltage float64 `json:"max_voltage"`
	SampleTime float64 `json:"sample_time"`
}

// Settings holds broker connection parameters.
type Settings struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
}

// SettingsFromEnv reads broker settings from MQTT_* environment variables.
// Broker is the only required value; an empty broker means telemetry is off.
func SettingsFromEnv() Settings {
	s := Settings{
		Broker:   os.Getenv("MQTT_BROKER"),
		ClientID: os.Getenv("MQTT_CLIENT_ID"),
		Username: os.Getenv("MQTT_USERNAME"),
		Password: os.Getenv("MQTT_PASSWORD"),
		Topic:    os.Getenv("MQTT_TOPIC"),
	}
	if s.ClientID == "" {
		s.ClientID = "mpptctl"
	}
	if s.Topic == "" {
		s.Topic = "mppt"
	}
	return s
}

// Enabled reports whether a broker is configured.
func (s Settings) Enabled() bool { return s.Broker != "" }

// Publisher forwards samples to MQTT. Samples arriving before the broker
// connection is up are queued and flushed on connect.
type Publisher struct {
	settings Settings
	runID    string
	panel    string
	tracker  mppt.Config
	outgoing chan Message
}

// NewPublisher creates a publisher for one run. The panel name and tracker
// config go into the retained status message. Call Run to start the sender
// worker before samples arrive.
func NewPublisher(settings Settings, runID, panel string, tracker mppt.Config) *Publisher {
	return &Publisher{
		settings: settings,
		runID:    runID,
		panel:    panel,
		tracker:  tracker,
		outgoing: make(chan Message, 256),
	}
}

// SampleTopic returns the topic samples for this run are published on.
func (p *Publisher) SampleTopic() string {
	return fmt.Sprintf("%s/%s/sample", p.settings.Topic, p.runID)
}

// StatusTopic returns the retained topic carrying the run's status message.
func (p *Publisher) StatusTopic() string {
	return fmt.Sprintf("%s/%s/status", p.settings.Topic, p.runID)
}

// statusMessage builds the retained status message for the given liveness.
func (p *Publisher) statusMessage(online bool) (Message, error) {
	payload, err := json.Marshal(StatusPayload{
		RunID:      p.runID,
		Panel:      p.panel,
		Online:     online,
		StepSize:   p.tracker.StepSize,
		MinVoltage: p.tracker.MinVoltage,
		MaxVoltage: p.tracker.MaxVoltage,
		SampleTime: p.tracker.SampleTime,
	})
	if err != nil {
		return Message{}, err
	}
	return Message{Topic: p.StatusTopic(), Payload: payload, QoS: 0, Retain: true}, nil
}

func (p *Publisher) publishStatus(client mqtt.Client, online bool) {
	msg, err := p.statusMessage(online)
	if err != nil {
		return
	}
	t := client.Publish(msg.Topic, msg.QoS, msg.Retain, msg.Payload)
	t.Wait()
	if t.Error() != nil {
		log.Printf("telemetry: status publish failed: %v", t.Error())
	}
}

// OnSample implements sim.Observer. Marshals and enqueues the sample; drops
// it if the queue is full rather than stall the control loop.
func (p *Publisher) OnSample(s sim.Sample) {
	payload, err := json.Marshal(SamplePayload{
		Step:      s.Step,
		Time:      s.Time,
		Voltage:   s.Voltage,
		Current:   s.Current,
		Power:     s.Power,
		Reference: s.Reference,
		Action:    string(s.Action),
	})
	if err != nil {
		return
	}

	msg := Message{Topic: p.SampleTopic(), Payload: payload, QoS: 0}
	select {
	case p.outgoing <- msg:
	default:
		log.Printf("telemetry: queue full, dropping sample %d", s.Step)
	}
}

// Run connects to the broker and drains the queue until ctx is done or the
// queue is closed. A retained status message goes out on connect and again,
// marked offline, before disconnect. Queued messages published in order;
// publish failures are logged and dropped.
func (p *Publisher) Run(ctx context.Context) error {
	opts := mqtt.NewClientOptions().
		AddBroker(p.settings.Broker).
		SetClientID(p.settings.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(2 * time.Second)
	if p.settings.Username != "" {
		opts.SetUsername(p.settings.Username)
		opts.SetPassword(p.settings.Password)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("telemetry: connect %s: %w", p.settings.Broker, err)
	}
	defer client.Disconnect(250)
	defer p.publishStatus(client, false)
	p.publishStatus(client, true)

	log.Printf("telemetry: connected to %s, publishing on %s", p.settings.Broker, p.SampleTopic())

	for {
		select {
		case msg, ok := <-p.outgoing:
			if !ok {
				return nil
			}
			t := client.Publish(msg.Topic, msg.QoS, msg.Retain, msg.Payload)
			t.Wait()
			if t.Error() != nil {
				log.Printf("telemetry: publish to %s failed: %v", msg.Topic, t.Error())
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close stops the sender after the queue drains.
func (p *Publisher) Close() {
	close(p.outgoing)
}

package telemetry

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pr-riad/MPPT-P-O/internal/mppt"
	"github.com/pr-riad/MPPT-P-O/internal/sim"
)

func TestSettingsFromEnv(t *testing.T) {
	t.Setenv("MQTT_BROKER", "tcp://broker.local:1883")
	t.Setenv("MQTT_CLIENT_ID", "")
	t.Setenv("MQTT_USERNAME", "solar")
	t.Setenv("MQTT_PASSWORD", "hunter2")
	t.Setenv("MQTT_TOPIC", "")

	s := SettingsFromEnv()
	assert.Equal(t, "tcp://broker.local:1883", s.Broker)
	assert.Equal(t, "mpptctl", s.ClientID, "empty client id falls back to default")
	assert.Equal(t, "mppt", s.Topic, "empty topic falls back to default")
	assert.Equal(t, "solar", s.Username)
	assert.True(t, s.Enabled())
}

func TestSettingsDisabledWithoutBroker(t *testing.T) {
	t.Setenv("MQTT_BROKER", "")
	assert.False(t, SettingsFromEnv().Enabled())
}

func testTrackerConfig() mppt.Config {
	return mppt.Config{StepSize: 0.5, MinVoltage: 10, MaxVoltage: 45, SampleTime: 0.2}
}

func TestTopics(t *testing.T) {
	p := NewPublisher(Settings{Topic: "mppt"}, "gaussian_123", "gaussian", testTrackerConfig())
	assert.Equal(t, "mppt/gaussian_123/sample", p.SampleTopic())
	assert.Equal(t, "mppt/gaussian_123/status", p.StatusTopic())
}

func TestStatusMessageRetained(t *testing.T) {
	p := NewPublisher(Settings{Topic: "mppt"}, "gaussian_123", "gaussian", testTrackerConfig())

	msg, err := p.statusMessage(true)
	require.NoError(t, err)
	assert.Equal(t, "mppt/gaussian_123/status", msg.Topic)
	assert.True(t, msg.Retain, "status must be retained for late subscribers")

	var payload StatusPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	assert.Equal(t, "gaussian_123", payload.RunID)
	assert.Equal(t, "gaussian", payload.Panel)
	assert.True(t, payload.Online)
	assert.Equal(t, 0.5, payload.StepSize)
	assert.Equal(t, 10.0, payload.MinVoltage)
	assert.Equal(t, 45.0, payload.MaxVoltage)
	assert.Equal(t, 0.2, payload.SampleTime)

	offline, err := p.statusMessage(false)
	require.NoError(t, err)
	assert.True(t, offline.Retain)
	var offlinePayload StatusPayload
	require.NoError(t, json.Unmarshal(offline.Payload, &offlinePayload))
	assert.False(t, offlinePayload.Online)
}

func TestOnSampleEnqueuesPayload(t *testing.T) {
	p := NewPublisher(Settings{Topic: "mppt"}, "run1", "gaussian", testTrackerConfig())

	p.OnSample(sim.Sample{
		Step:      3,
		Time:      0.6,
		Voltage:   15.5,
		Current:   3.1,
		Power:     48.05,
		Reference: 16.0,
		Action:    mppt.ActionIncrease,
	})

	require.Len(t, p.outgoing, 1)
	msg := <-p.outgoing
	assert.Equal(t, "mppt/run1/sample", msg.Topic)

	var payload SamplePayload
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	assert.Equal(t, 3, payload.Step)
	assert.Equal(t, 15.5, payload.Voltage)
	assert.Equal(t, 16.0, payload.Reference)
	assert.Equal(t, "increase", payload.Action)
}

func TestOnSampleDropsWhenQueueFull(t *testing.T) {
	p := NewPublisher(Settings{Topic: "mppt"}, "run1", "gaussian", testTrackerConfig())

	for i := 0; i < cap(p.outgoing)+10; i++ {
		p.OnSample(sim.Sample{Step: i})
	}

	// The loop must not block, and the queue holds only what fits.
	assert.Len(t, p.outgoing, cap(p.outgoing))
}

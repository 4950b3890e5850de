package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anicoll/sungrow-modbus/internal/pkg/model"
)

type fakeToken struct {
	err     error
	timeout bool
}

func (t *fakeToken) Wait() bool                     { return !t.timeout }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return !t.timeout }
func (t *fakeToken) Error() error                   { return t.err }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// fakeClient implements only what the sink calls; the embedded interface
// panics on anything else.
type fakeClient struct {
	paho_mqtt.Client
	token     *fakeToken
	published []published
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho_mqtt.Token {
	c.published = append(c.published, published{topic, qos, retained, payload.([]byte)})
	return c.token
}

func (c *fakeClient) Connect() paho_mqtt.Token {
	return c.token
}

var temperature = model.Property{
	Unit:       "°C",
	Value:      "25.0",
	Identifier: "sh10rt-20_A2330000123",
	Slug:       "temperature",
	Name:       "Inverter temperature",
}

func TestWrite_ConfiguresSensorOnce(t *testing.T) {
	client := &fakeClient{token: &fakeToken{}}
	s := New(client)
	ctx := context.Background()

	require.NoError(t, s.RegisterDevice(ctx, &model.Device{
		ID: "sh10rt-20_A2330000123", Model: "SH10RT-20", SerialNumber: "A2330000123",
	}))
	require.NoError(t, s.Write(ctx, model.Properties{temperature}))
	require.NoError(t, s.Write(ctx, model.Properties{temperature}))

	require.Len(t, client.published, 3)
	cfg := client.published[0]
	assert.Equal(t, "homeassistant/sensor/sh10rt-20_A2330000123_temperature/config", cfg.topic)
	assert.True(t, cfg.retained)

	var msg model.RegisterMessage
	require.NoError(t, json.Unmarshal(cfg.payload, &msg))
	assert.Equal(t, "Inverter temperature", msg.Name)
	assert.Equal(t, "~/temperature/state", msg.StateTopic)
	assert.Equal(t, "°C", msg.UnitOfMeasurement)
	assert.Equal(t, "temperature", msg.DeviceClass)
	assert.Equal(t, "measurement", msg.StateClass)
	assert.Equal(t, "SH10RT-20 A2330000123", msg.Device.Name)
	assert.Equal(t, "Sungrow", msg.Device.Manufacturer)

	state := client.published[1]
	assert.Equal(t, "homeassistant/sensor/sh10rt-20_A2330000123/temperature/state", state.topic)
	assert.JSONEq(t, `{"value":"25.0","unit_of_measurement":"°C"}`, string(state.payload))
	assert.Equal(t, state.topic, client.published[2].topic)
}

func TestWrite_TextSensorHasNoUnit(t *testing.T) {
	client := &fakeClient{token: &fakeToken{}}
	s := New(client)

	prop := model.Property{Identifier: "x_1", Slug: "system_state", Value: "Stop"}
	require.NoError(t, s.PublishData(context.Background(), prop))
	require.Len(t, client.published, 1)
	assert.JSONEq(t, `{"value":"Stop"}`, string(client.published[0].payload))
}

func TestWrite_SeriesSensor(t *testing.T) {
	client := &fakeClient{token: &fakeToken{}}
	s := New(client)

	prop := model.Property{
		Unit:       "W",
		Value:      "[0,120,340]",
		Identifier: "sh10rt-20_A2330000123",
		Slug:       "pv_power_now",
		Name:       "PV power today",
		Series:     true,
	}
	require.NoError(t, s.Write(context.Background(), model.Properties{prop}))
	require.Len(t, client.published, 2)

	var msg model.RegisterMessage
	require.NoError(t, json.Unmarshal(client.published[0].payload, &msg))
	assert.Empty(t, msg.UnitOfMeasurement)
	assert.Empty(t, msg.DeviceClass)
	assert.Empty(t, msg.StateClass)
	assert.Equal(t, "{{ value_json.value | count }}", msg.ValueTemplate)
	assert.Equal(t, msg.StateTopic, msg.AttributesTopic)
	assert.Contains(t, msg.AttributesTemplate, `'unit': "W"`)

	assert.JSONEq(t, `{"value":[0,120,340],"unit_of_measurement":"W"}`, string(client.published[1].payload))
}

func TestWrite_Errors(t *testing.T) {
	s := New(&fakeClient{token: &fakeToken{timeout: true}})
	err := s.Write(context.Background(), model.Properties{temperature})
	assert.ErrorIs(t, err, errPublishTimeout)

	boom := errors.New("not connected")
	s = New(&fakeClient{token: &fakeToken{err: boom}})
	err = s.Write(context.Background(), model.Properties{temperature})
	assert.ErrorIs(t, err, boom)
}

func TestConnect(t *testing.T) {
	assert.NoError(t, New(&fakeClient{token: &fakeToken{}}).Connect())
	assert.Error(t, New(&fakeClient{token: &fakeToken{timeout: true}}).Connect())
}

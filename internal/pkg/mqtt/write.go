package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/anicoll/sungrow-modbus/internal/pkg/model"
)

var errPublishTimeout = errors.New("mqtt publish timed out")

func (s *service) Write(ctx context.Context, props model.Properties) error {
	for _, p := range props {
		if err := s.configureSensor(ctx, p); err != nil {
			return err
		}
		if err := s.PublishData(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// RegisterDevice remembers the device so its sensors can be announced with
// the right Home Assistant device block.
func (s *service) RegisterDevice(_ context.Context, device *model.Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices[device.ID] = *device
	return nil
}

func (s *service) configureSensor(ctx context.Context, p model.Property) error {
	key := fmt.Sprintf("%s_%s", p.Identifier, p.Slug)
	s.mu.Lock()
	_, exists := s.configuredSensors[key]
	device, known := s.devices[p.Identifier]
	s.mu.Unlock()
	if exists {
		return nil
	}
	if !known {
		device = model.Device{ID: p.Identifier}
	}

	payload, err := json.Marshal(registerMsg(device, p))
	if err != nil {
		return err
	}
	topic := fmt.Sprintf("%s/sensor/%s/config", discoveryPrefix, key)
	if err := s.publish(ctx, topic, 1, true, payload); err != nil {
		return err
	}

	s.mu.Lock()
	s.configuredSensors[key] = struct{}{}
	s.mu.Unlock()
	s.logger.Debug("configured sensor", zap.String("topic", topic))
	return nil
}

func (s *service) PublishData(ctx context.Context, p model.Property) error {
	payload := map[string]any{
		"value": p.Value,
	}
	if p.Series {
		payload["value"] = json.RawMessage(p.Value)
	}
	if p.Unit != "" {
		payload["unit_of_measurement"] = p.Unit
	}

	publishData, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.publish(ctx, stateTopic(p), 0, false, publishData)
}

func (s *service) publish(ctx context.Context, topic string, qos byte, retained bool, payload []byte) error {
	token := s.client.Publish(topic, qos, retained, payload)
	timeout := 10 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("%w: %s", errPublishTimeout, topic)
	}
	return token.Error()
}

func stateTopic(p model.Property) string {
	return fmt.Sprintf("%s/sensor/%s/%s/state", discoveryPrefix, p.Identifier, p.Slug)
}

func registerMsg(device model.Device, p model.Property) model.RegisterMessage {
	deviceName := device.ID
	if device.Model != "" {
		deviceName = fmt.Sprintf("%s %s", device.Model, device.SerialNumber)
	}
	name := p.Name
	if name == "" {
		name = p.Slug
	}

	msg := model.RegisterMessage{
		Tilda:             fmt.Sprintf("%s/sensor/%s", discoveryPrefix, p.Identifier),
		Name:              name,
		ID:                fmt.Sprintf("%s_%s", p.Identifier, p.Slug),
		StateTopic:        fmt.Sprintf("~/%s/state", p.Slug),
		ValueTemplate:     "{{ value_json.value }}",
		UnitOfMeasurement: p.Unit,
		Device: model.RegisterDevice{
			Name:         deviceName,
			Identifiers:  []string{device.ID},
			Model:        device.Model,
			Manufacturer: "Sungrow",
			SerialNumber: device.SerialNumber,
		},
	}
	if p.Series {
		// Home Assistant states must be scalar, so the points travel as
		// attributes and the state is their count.
		msg.UnitOfMeasurement = ""
		msg.ValueTemplate = "{{ value_json.value | count }}"
		msg.AttributesTopic = msg.StateTopic
		msg.AttributesTemplate = fmt.Sprintf("{{ {'values': value_json.value, 'unit': %q} | tojson }}", p.Unit)
		return msg
	}
	if unit, ok := model.ParseUnit(p.Unit); ok {
		msg.DeviceClass = unit.DeviceClass()
		msg.StateClass = unit.StateClass()
	}
	return msg
}

package mqtt

import (
	"errors"
	"sync"
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/anicoll/sungrow-modbus/internal/pkg/model"
)

const discoveryPrefix = "homeassistant"

type service struct {
	client paho_mqtt.Client
	logger *zap.Logger

	mu                sync.Mutex
	devices           map[string]model.Device
	configuredSensors map[string]struct{}
}

func New(client paho_mqtt.Client) *service {
	return &service{
		client:            client,
		logger:            zap.L(),
		devices:           map[string]model.Device{},
		configuredSensors: map[string]struct{}{},
	}
}

// NewClient builds a paho client for the broker at host.
func NewClient(host, username, password string) paho_mqtt.Client {
	opts := paho_mqtt.NewClientOptions().
		AddBroker(host).
		SetClientID("sungrow-modbus").
		SetUsername(username).
		SetPassword(password).
		SetAutoReconnect(true).
		SetConnectRetry(true)
	return paho_mqtt.NewClient(opts)
}

func (s *service) Connect() error {
	token := s.client.Connect()
	res := token.WaitTimeout(time.Second * 5)
	if res {
		return token.Error()
	}
	if err := token.Error(); err != nil {
		return err
	}
	return errors.New("unable to connect in time")
}

func (s *service) Close() {
	s.client.Disconnect(250)
}

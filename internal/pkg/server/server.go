package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/anicoll/sungrow-modbus/internal/pkg/commands"
	"github.com/anicoll/sungrow-modbus/internal/pkg/config"
	"github.com/anicoll/sungrow-modbus/internal/pkg/model"
	"github.com/anicoll/sungrow-modbus/internal/pkg/poller"
	"github.com/anicoll/sungrow-modbus/internal/pkg/registers"
	"github.com/anicoll/sungrow-modbus/internal/pkg/transport"
	"github.com/anicoll/sungrow-modbus/internal/pkg/verifier"
	"github.com/anicoll/sungrow-modbus/pkg/api"
)

var _ api.ServerInterface = (*server)(nil)

var (
	errUnknownDevice = errors.New("unknown device")
	errBadRequest    = errors.New("bad request")
)

// DeviceRunner is the per-device session owner the API writes through.
type DeviceRunner interface {
	Device() config.Device
	Identity() (verifier.Result, bool)
	WriteRegister(ctx context.Context, address, value uint16) error
}

type latestStore interface {
	Latest(name string) (model.Properties, bool)
}

type server struct {
	runners map[string]DeviceRunner
	order   []string
	store   latestStore
	hub     *Hub
	logger  *zap.Logger
}

func New(runners []DeviceRunner, store latestStore, hub *Hub) *server {
	return &server{
		runners: lo.SliceToMap(runners, func(r DeviceRunner) (string, DeviceRunner) {
			return r.Device().Identity.Name, r
		}),
		order:  lo.Map(runners, func(r DeviceRunner, _ int) string { return r.Device().Identity.Name }),
		store:  store,
		hub:    hub,
		logger: zap.L(),
	}
}

// Handler routes the API and serves its OpenAPI document.
func (s *server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/openapi.json", s.GetOpenAPI).Methods(http.MethodGet)
	return api.HandlerWithOptions(s, api.GorillaServerOptions{
		BaseRouter:  r,
		Middlewares: []api.MiddlewareFunc{LoggingMiddleware},
		ErrorHandlerFunc: func(w http.ResponseWriter, _ *http.Request, err error) {
			handleError(w, fmt.Errorf("%w: %w", errBadRequest, err))
		},
	})
}

func (s *server) GetOpenAPI(w http.ResponseWriter, _ *http.Request) {
	swagger, err := api.GetSwagger()
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, swagger)
}

func (s *server) GetDevices(w http.ResponseWriter, _ *http.Request) {
	views := lo.Map(s.order, func(name string, _ int) api.DeviceView {
		r := s.runners[name]
		d := r.Device()
		view := api.DeviceView{
			Name:        d.Identity.Name,
			DeviceType:  d.Identity.DeviceType.String(),
			UnitAddress: d.Identity.UnitAddress,
			Connection:  d.Connection.String(),
		}
		if id, ok := r.Identity(); ok {
			view.Model = lo.ToPtr(id.ModelName)
			view.SerialNumber = lo.ToPtr(id.SerialNumber)
			view.Identified = true
		}
		return view
	})
	writeJSON(w, http.StatusOK, views)
}

func (s *server) GetDeviceValues(w http.ResponseWriter, _ *http.Request, name api.Name) {
	if _, err := s.runner(name); err != nil {
		handleError(w, err)
		return
	}
	props, ok := s.store.Latest(name)
	if !ok {
		props = model.Properties{}
	}
	writeJSON(w, http.StatusOK, props)
}

// GetStream upgrades to a websocket carrying every published reading.
func (s *server) GetStream(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.NotFound(w, r)
		return
	}
	s.hub.ServeWS(w, r)
}

func (s *server) PostRegister(w http.ResponseWriter, r *http.Request, name api.Name, address int) {
	runner, err := s.runner(name)
	if err != nil {
		handleError(w, err)
		return
	}
	if address < 0 || address > math.MaxUint16 {
		handleError(w, fmt.Errorf("%w: register address %d", errBadRequest, address))
		return
	}
	req, err := unmarshalPayload[api.WriteRegisterPayload](r)
	if err != nil {
		handleError(w, err)
		return
	}
	if req.Value == nil {
		handleError(w, fmt.Errorf("%w: value is required", errBadRequest))
		return
	}

	if err := runner.WriteRegister(r.Context(), uint16(address), *req.Value); err != nil {
		handleError(w, err)
		return
	}
	s.logger.Info("register written",
		zap.String("device", name),
		zap.Int("address", address),
		zap.Uint16("value", *req.Value),
	)
	writeSuccess(w)
}

func (s *server) PostBatteryState(w http.ResponseWriter, r *http.Request, name api.Name, state api.BatteryState) {
	runner, err := s.runner(name)
	if err != nil {
		handleError(w, err)
		return
	}
	req, err := unmarshalPayload[api.ChangeBatteryStatePayload](r)
	if err != nil {
		handleError(w, err)
		return
	}
	if err := s.changeBatteryState(r.Context(), runner, state, req); err != nil {
		handleError(w, err)
		return
	}
	writeSuccess(w)
}

func (s *server) PostInverterState(w http.ResponseWriter, r *http.Request, name api.Name, state api.InverterState) {
	runner, err := s.runner(name)
	if err != nil {
		handleError(w, err)
		return
	}
	if state != api.On && state != api.Off {
		handleError(w, fmt.Errorf("%w: inverter state %q", errBadRequest, state))
		return
	}
	if err := s.commands(runner).SetInverterRunning(r.Context(), state == api.On); err != nil {
		handleError(w, err)
		return
	}
	s.logger.Info("inverter state changed", zap.String("device", name), zap.String("state", string(state)))
	writeSuccess(w)
}

func (s *server) PostInverterFeedin(w http.ResponseWriter, r *http.Request, name api.Name) {
	runner, err := s.runner(name)
	if err != nil {
		handleError(w, err)
		return
	}
	req, err := unmarshalPayload[api.ChangeFeedinPayload](r)
	if err != nil {
		handleError(w, err)
		return
	}
	limit := lo.FromPtr(req.Limit)
	if err := s.commands(runner).SetExportLimit(r.Context(), req.Disable, limit); err != nil {
		handleError(w, err)
		return
	}
	s.logger.Info("limit feed in switched", zap.Bool("disable_feedin", req.Disable), zap.Uint16("limit", limit))
	writeSuccess(w)
}

func (s *server) changeBatteryState(ctx context.Context, runner DeviceRunner, state api.BatteryState, req *api.ChangeBatteryStatePayload) error {
	cmds := s.commands(runner)
	s.logger.Info("switching battery to", zap.String("state", string(state)))
	switch state {
	case api.SelfConsumption:
		return cmds.SelfConsumption(ctx)
	case api.Stop:
		return cmds.StopForced(ctx)
	case api.Charge, api.Discharge:
		if req.Power == nil {
			return fmt.Errorf("%w: power param cannot be empty", errBadRequest)
		}
		if state == api.Charge {
			return cmds.ForcedCharge(ctx, *req.Power)
		}
		return cmds.ForcedDischarge(ctx, *req.Power)
	}
	return fmt.Errorf("%w: battery state %q", errBadRequest, state)
}

func (s *server) runner(name string) (DeviceRunner, error) {
	r, ok := s.runners[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errUnknownDevice, name)
	}
	return r, nil
}

func (s *server) commands(r DeviceRunner) *commands.Service {
	return commands.New(r, r.Device().Identity.DeviceType)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errUnknownDevice):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest), errors.Is(err, commands.ErrUnsupported):
		return http.StatusBadRequest
	case errors.Is(err, registers.ErrProtocol):
		return http.StatusBadGateway
	case errors.Is(err, transport.ErrConnection), errors.Is(err, transport.ErrTransport), errors.Is(err, poller.ErrStopped):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func handleError(w http.ResponseWriter, err error) {
	w.WriteHeader(statusFor(err))
	_, _ = w.Write([]byte(err.Error()))
}

func writeSuccess(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("success"))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// unmarshalPayload decodes a JSON body. An empty body yields the zero value.
func unmarshalPayload[T any](r *http.Request) (*T, error) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	var out T
	if len(data) == 0 {
		return &out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return &out, nil
}

package registers

import (
	"errors"
	"fmt"

	"github.com/goburrow/modbus"
)

var (
	// ErrProtocol matches every *ProtocolError.
	ErrProtocol       = errors.New("protocol error")
	ErrInvalidRequest = errors.New("invalid request")
)

// ProtocolError is a Modbus exception response returned by the device.
type ProtocolError struct {
	Function      byte
	ExceptionCode byte
	Address       uint16
	Count         uint16
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("device exception %d (%s) for function 0x%02X at %d x%d",
		e.ExceptionCode, ExceptionName(e.ExceptionCode), e.Function, e.Address, e.Count)
}

func (e *ProtocolError) Is(target error) bool {
	return target == ErrProtocol
}

var exceptionNames = map[byte]string{
	modbus.ExceptionCodeIllegalFunction:                    "illegal function",
	modbus.ExceptionCodeIllegalDataAddress:                 "illegal data address",
	modbus.ExceptionCodeIllegalDataValue:                   "illegal data value",
	modbus.ExceptionCodeServerDeviceFailure:                "server device failure",
	modbus.ExceptionCodeAcknowledge:                        "acknowledge",
	modbus.ExceptionCodeServerDeviceBusy:                   "server device busy",
	modbus.ExceptionCodeMemoryParityError:                  "memory parity error",
	modbus.ExceptionCodeGatewayPathUnavailable:             "gateway path unavailable",
	modbus.ExceptionCodeGatewayTargetDeviceFailedToRespond: "gateway target device failed to respond",
}

func ExceptionName(code byte) string {
	if name, ok := exceptionNames[code]; ok {
		return name
	}
	return "unknown"
}

// protocolError converts a goburrow exception into a ProtocolError. Any other
// error is returned as is.
func protocolError(err error, address, count uint16) error {
	var mbErr *modbus.ModbusError
	if !errors.As(err, &mbErr) {
		return err
	}
	return &ProtocolError{
		Function:      mbErr.FunctionCode &^ 0x80,
		ExceptionCode: mbErr.ExceptionCode,
		Address:       address,
		Count:         count,
	}
}

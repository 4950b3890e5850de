// Package registers reads and writes raw register words for one Modbus unit.
package registers

import (
	"context"
	"encoding/binary"
	"fmt"

	"go.uber.org/zap"

	"github.com/anicoll/sungrow-modbus/internal/pkg/decoder"
	"github.com/anicoll/sungrow-modbus/internal/pkg/registermap"
	"github.com/anicoll/sungrow-modbus/internal/pkg/transport"
)

// MaxReadQuantity is the largest block one read request may ask for.
const MaxReadQuantity = 125

// Client issues requests on a session it owns, addressed to one unit. It is
// not safe for concurrent use.
type Client struct {
	session transport.Session
	unit    byte
	logger  *zap.Logger
}

func NewClient(session transport.Session, unit uint8) *Client {
	return &Client{
		session: session,
		unit:    unit,
		logger:  zap.L().With(zap.Uint8("unit", unit)),
	}
}

func (c *Client) Unit() uint8 {
	return c.unit
}

// ReadRegisters reads count words starting at address from the bank. Blocks
// longer than MaxReadQuantity are read as consecutive requests.
func (c *Client) ReadRegisters(ctx context.Context, bank registermap.Bank, address, count uint16) ([]uint16, error) {
	if count == 0 {
		return nil, fmt.Errorf("%w: zero register count at %d", ErrInvalidRequest, address)
	}
	if int(address)+int(count) > 1<<16 {
		return nil, fmt.Errorf("%w: %d registers at %d overflow the address space", ErrInvalidRequest, count, address)
	}

	words := make([]uint16, 0, count)
	for offset := uint16(0); offset < count; {
		n := min(count-offset, MaxReadQuantity)
		block, err := c.readBlock(ctx, bank, address+offset, n)
		if err != nil {
			return nil, err
		}
		words = append(words, block...)
		offset += n
	}
	return words, nil
}

func (c *Client) readBlock(ctx context.Context, bank registermap.Bank, address, count uint16) ([]uint16, error) {
	var (
		data []byte
		err  error
	)
	switch bank {
	case registermap.Input:
		data, err = c.session.ReadInputRegisters(ctx, c.unit, address, count)
	case registermap.Holding:
		data, err = c.session.ReadHoldingRegisters(ctx, c.unit, address, count)
	default:
		return nil, fmt.Errorf("%w: unknown bank %s", ErrInvalidRequest, bank)
	}
	if err != nil {
		return nil, protocolError(err, address, count)
	}
	if len(data) != int(count)*2 {
		return nil, fmt.Errorf("%w: %d bytes for %d registers at %d", transport.ErrTransport, len(data), count, address)
	}

	words := make([]uint16, count)
	for i := range words {
		words[i] = binary.BigEndian.Uint16(data[i*2:])
	}
	c.logger.Debug("read registers",
		zap.Stringer("bank", bank),
		zap.Uint16("address", address),
		zap.Uint16s("words", words),
	)
	return words, nil
}

// WriteRegister writes one holding register.
func (c *Client) WriteRegister(ctx context.Context, address, value uint16) error {
	if _, err := c.session.WriteSingleRegister(ctx, c.unit, address, value); err != nil {
		return protocolError(err, address, 1)
	}
	c.logger.Debug("wrote register", zap.Uint16("address", address), zap.Uint16("value", value))
	return nil
}

// Read fetches and decodes the words of one descriptor. Errors name the
// descriptor key and address.
func (c *Client) Read(ctx context.Context, d registermap.Descriptor) (decoder.Value, error) {
	words, err := c.ReadRegisters(ctx, d.Bank, d.Address, d.WordCount)
	if err != nil {
		return decoder.Value{}, fmt.Errorf("read %s: %w", d, err)
	}
	v, err := decoder.Decode(words, d)
	if err != nil {
		return decoder.Value{}, fmt.Errorf("read %s: %w", d, err)
	}
	return v, nil
}

// Close closes the underlying session.
func (c *Client) Close() error {
	return c.session.Close()
}

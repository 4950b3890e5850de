// Package decoder turns raw register words into typed values.
package decoder

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/anicoll/sungrow-modbus/internal/pkg/registermap"
)

var (
	ErrDecode           = errors.New("decode error")
	ErrWordCount        = fmt.Errorf("%w: word count mismatch", ErrDecode)
	ErrUnknownEnumValue = fmt.Errorf("%w: unknown enum value", ErrDecode)
)

// Decode interprets words according to the descriptor. It is a pure function
// of its inputs.
func Decode(words []uint16, d registermap.Descriptor) (Value, error) {
	if len(words) != int(d.WordCount) {
		return Value{}, fmt.Errorf("%w: %s got %d words", ErrWordCount, d, len(words))
	}

	if d.Type == registermap.FixedString {
		return Value{Kind: Text, Text: decodeString(words)}, nil
	}

	width := d.Type.Width()
	if width == 0 {
		return Value{}, fmt.Errorf("%w: %s has unsupported type %s", ErrDecode, d, d.Type)
	}

	if d.IsSeries() {
		series := make([]float64, d.Count)
		for i := range series {
			raw := integer(words[i*width:(i+1)*width], d.Type)
			series[i] = applyScale(raw, d.ScaleOrOne())
		}
		return Value{Kind: Series, Series: series}, nil
	}

	raw := integer(words, d.Type)

	if d.Enum != nil {
		label, ok := d.Enum[raw]
		if !ok {
			return Value{}, fmt.Errorf("%w: %s code %d (0x%04X)", ErrUnknownEnumValue, d, raw, raw)
		}
		return Value{Kind: Enum, Int: raw, Text: label}, nil
	}

	if d.Bits != nil {
		flags := make([]Flag, 0, len(d.Bits))
		for bit, label := range d.Bits {
			if label == "" {
				continue
			}
			flags = append(flags, Flag{Label: label, Set: raw&(1<<bit) != 0})
		}
		return Value{Kind: Flags, Int: raw, Flags: flags}, nil
	}

	scale := d.ScaleOrOne()
	if scale == 1 {
		return Value{Kind: Integer, Int: raw}, nil
	}
	return Value{Kind: Real, Real: applyScale(raw, scale)}, nil
}

// integer assembles one element high word first and sign extends it when the
// type is signed.
func integer(words []uint16, dt registermap.DataType) int64 {
	switch dt {
	case registermap.UInt16:
		return int64(words[0])
	case registermap.SInt16:
		return int64(int16(words[0]))
	case registermap.UInt32:
		return int64(uint32(words[0])<<16 | uint32(words[1]))
	case registermap.SInt32:
		return int64(int32(uint32(words[0])<<16 | uint32(words[1])))
	}
	return 0
}

// applyScale multiplies in exact rational arithmetic using the shortest
// decimal spelling of the scale, so 86 * 0.1 yields the float nearest 8.6.
func applyScale(raw int64, scale float64) float64 {
	if scale == 1 {
		return float64(raw)
	}
	r, ok := new(big.Rat).SetString(strconv.FormatFloat(scale, 'g', -1, 64))
	if !ok {
		return float64(raw) * scale
	}
	f, _ := r.Mul(r, new(big.Rat).SetInt64(raw)).Float64()
	return f
}

// decodeString reads bytes up to the first NUL. Invalid UTF-8 sequences become
// U+FFFD.
func decodeString(words []uint16) string {
	b := make([]byte, 0, len(words)*2)
	for _, w := range words {
		b = append(b, byte(w>>8), byte(w))
	}
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return strings.ToValidUTF8(string(b), "\uFFFD")
}

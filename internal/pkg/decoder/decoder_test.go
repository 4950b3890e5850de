package decoder

import (
	"errors"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anicoll/sungrow-modbus/internal/pkg/registermap"
)

func descriptor(dt registermap.DataType, words uint16, scale float64) registermap.Descriptor {
	return registermap.Descriptor{Key: "test", Address: 100, WordCount: words, Type: dt, Scale: scale}
}

func encodeString(s string, words int) []uint16 {
	b := make([]byte, words*2)
	copy(b, s)
	out := make([]uint16, words)
	for i := range out {
		out[i] = uint16(b[2*i])<<8 | uint16(b[2*i+1])
	}
	return out
}

func TestDecode_Integers(t *testing.T) {
	tests := []struct {
		name  string
		dt    registermap.DataType
		words []uint16
		want  int64
	}{
		{"uint16", registermap.UInt16, []uint16{0xFFFF}, 65535},
		{"sint16 negative", registermap.SInt16, []uint16{0xFFFE}, -2},
		{"sint16 positive", registermap.SInt16, []uint16{0x7FFF}, 32767},
		{"uint32 high word first", registermap.UInt32, []uint16{0x0001, 0x86A0}, 100000},
		{"uint32 max", registermap.UInt32, []uint16{0xFFFF, 0xFFFF}, 4294967295},
		{"sint32 negative", registermap.SInt32, []uint16{0xFFFF, 0xFC18}, -1000},
		{"sint32 min", registermap.SInt32, []uint16{0x8000, 0x0000}, -2147483648},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Decode(tt.words, descriptor(tt.dt, uint16(len(tt.words)), 1))
			require.NoError(t, err)
			assert.Equal(t, Integer, v.Kind)
			assert.Equal(t, tt.want, v.Int)
		})
	}
}

func TestDecode_ZeroScaleMeansOne(t *testing.T) {
	v, err := Decode([]uint16{42}, descriptor(registermap.UInt16, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, Value{Kind: Integer, Int: 42}, v)
}

func TestDecode_ScaleIsExact(t *testing.T) {
	tests := []struct {
		raw   uint16
		scale float64
		want  float64
	}{
		{86, 0.1, 8.6},
		{5003, 0.01, 50.03},
		{3, 0.1, 0.3},
		{7, 10, 70},
		{12, 100, 1200},
		{2301, 0.1, 230.1},
	}
	for _, tt := range tests {
		v, err := Decode([]uint16{tt.raw}, descriptor(registermap.UInt16, 1, tt.scale))
		require.NoError(t, err)
		assert.Equal(t, Real, v.Kind)
		assert.Equal(t, tt.want, v.Real, "%d * %v", tt.raw, tt.scale)
	}
}

func TestDecode_SignedScaled(t *testing.T) {
	v, err := Decode([]uint16{0xFF9C}, descriptor(registermap.SInt16, 1, 0.1))
	require.NoError(t, err)
	assert.Equal(t, -10.0, v.Real)
}

func TestDecode_FixedString(t *testing.T) {
	d := descriptor(registermap.FixedString, 10, 1)

	v, err := Decode(encodeString("SH10RT-20", 10), d)
	require.NoError(t, err)
	assert.Equal(t, Value{Kind: Text, Text: "SH10RT-20"}, v)

	full := encodeString("ABCDEFGHIJKLMNOPQRST", 10)
	v, err = Decode(full, d)
	require.NoError(t, err)
	assert.Equal(t, "ABCDEFGHIJKLMNOPQRST", v.Text)

	// Odd length: the low byte of the last used word is the terminator.
	v, err = Decode(encodeString("A2330000123", 10), d)
	require.NoError(t, err)
	assert.Equal(t, "A2330000123", v.Text)
}

func TestDecode_FixedStringInvalidUTF8(t *testing.T) {
	d := descriptor(registermap.FixedString, 3, 1)

	v, err := Decode([]uint16{0x4132, 0xFF33, 0x0000}, d)
	require.NoError(t, err)
	assert.Equal(t, "A2\uFFFD3", v.Text)
	assert.True(t, utf8.ValidString(v.Text))
}

func TestDecode_Enum(t *testing.T) {
	_, modelName, err := registermap.Identification(registermap.Inverter)
	require.NoError(t, err)

	v, err := Decode([]uint16{0x0D1B}, modelName)
	require.NoError(t, err)
	assert.Equal(t, Value{Kind: Enum, Int: 0x0D1B, Text: "SH10RS"}, v)

	_, err = Decode([]uint16{0xFFFF}, modelName)
	assert.True(t, errors.Is(err, ErrUnknownEnumValue))
	assert.True(t, errors.Is(err, ErrDecode))
	assert.Contains(t, err.Error(), "model_name")
}

func TestDecode_EnumUsesRawBeforeScale(t *testing.T) {
	d := descriptor(registermap.UInt16, 1, 0.1)
	d.Enum = map[int64]string{10: "ten"}
	v, err := Decode([]uint16{10}, d)
	require.NoError(t, err)
	assert.Equal(t, "ten", v.Text)
}

func TestDecode_WordCountMismatch(t *testing.T) {
	_, err := Decode([]uint16{1}, descriptor(registermap.UInt32, 2, 1))
	assert.True(t, errors.Is(err, ErrWordCount))
	assert.True(t, errors.Is(err, ErrDecode))
	assert.Contains(t, err.Error(), "test")
	assert.Contains(t, err.Error(), "100")
}

func TestDecode_Series(t *testing.T) {
	d := registermap.Descriptor{Key: "s", WordCount: 4, Type: registermap.UInt32, Count: 2, Scale: 0.1}
	v, err := Decode([]uint16{0, 86, 0x0001, 0x86A0}, d)
	require.NoError(t, err)
	assert.Equal(t, Series, v.Kind)
	assert.Equal(t, []float64{8.6, 10000}, v.Series)
	assert.Equal(t, "[8.6,10000.0]", v.Format(1))
}

func TestDecode_Flags(t *testing.T) {
	d := descriptor(registermap.UInt16, 1, 1)
	d.Bits = []string{"pv", "charging", "", "load"}
	v, err := Decode([]uint16{0b1001}, d)
	require.NoError(t, err)
	assert.Equal(t, Flags, v.Kind)
	assert.Len(t, v.Flags, 3)
	assert.True(t, v.Flag("pv"))
	assert.False(t, v.Flag("charging"))
	assert.True(t, v.Flag("load"))
	assert.Equal(t, "pv,load", v.String())
}

func TestDecode_Idempotent(t *testing.T) {
	d := descriptor(registermap.SInt32, 2, 0.01)
	words := []uint16{0xFFFF, 0xFF00}
	first, err := Decode(words, d)
	require.NoError(t, err)
	second, err := Decode(words, d)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, -2.56, first.Real)
}

func TestValue_Format(t *testing.T) {
	assert.Equal(t, "8.6", Value{Kind: Real, Real: 8.6}.Format(1))
	assert.Equal(t, "8.60", Value{Kind: Real, Real: 8.6}.Format(2))
	assert.Equal(t, "8.6", Value{Kind: Real, Real: 8.6}.String())
	assert.Equal(t, "-3", Value{Kind: Integer, Int: -3}.Format(2))
	assert.Equal(t, "Running", Value{Kind: Enum, Int: 0x40, Text: "Running"}.String())

	f, ok := Value{Kind: Integer, Int: 5}.Float()
	assert.True(t, ok)
	assert.Equal(t, 5.0, f)
	_, ok = Value{Kind: Text}.Float()
	assert.False(t, ok)
}

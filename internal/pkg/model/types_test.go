package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseUnit(t *testing.T) {
	u, ok := ParseUnit("°C")
	assert.True(t, ok)
	assert.Equal(t, NumericUnitDegreeC, u)
	assert.Equal(t, "temperature", u.DeviceClass())

	u, ok = ParseUnit("kWh")
	assert.True(t, ok)
	assert.Equal(t, "total_increasing", u.StateClass())

	_, ok = ParseUnit("℃")
	assert.False(t, ok)
	_, ok = ParseUnit("")
	assert.False(t, ok)
}

func TestNumericUnits_HaveDeviceClass(t *testing.T) {
	for _, u := range NumericUnits {
		if u == NumericUnitPercent {
			continue
		}
		assert.NotEmpty(t, u.DeviceClass(), u)
	}
}

package model

import "github.com/samber/lo"

type NumericUnit string

func (u NumericUnit) String() string {
	return string(u)
}

const (
	NumericUnitAmp                NumericUnit = "A"
	NumericUnitPercent            NumericUnit = "%"
	NumericUnitKiloWatt           NumericUnit = "kW"
	NumericUnitWatt               NumericUnit = "W"
	NumericUnitKiloWattHour       NumericUnit = "kWh"
	NumericUnitDegreeC            NumericUnit = "℃"
	NumericUnitVolt               NumericUnit = "V"
	NumericUnitVoltAmpereReactive NumericUnit = "var"
	NumericUnitHertz              NumericUnit = "Hz"
)

var NumericUnits = []NumericUnit{
	NumericUnitAmp,
	NumericUnitPercent,
	NumericUnitKiloWatt,
	NumericUnitWatt,
	NumericUnitKiloWattHour,
	NumericUnitDegreeC,
	NumericUnitVolt,
	NumericUnitVoltAmpereReactive,
	NumericUnitHertz,
}

// Normalise maps device units onto the spelling consumers expect.
func (u NumericUnit) Normalise() string {
	switch u {
	case NumericUnitDegreeC:
		return "°C"
	}
	return string(u)
}

// ParseUnit finds the unit whose normalised spelling is s.
func ParseUnit(s string) (NumericUnit, bool) {
	return lo.Find(NumericUnits, func(u NumericUnit) bool { return u.Normalise() == s })
}

// DeviceClass is the Home Assistant sensor class of the unit.
func (u NumericUnit) DeviceClass() string {
	switch u {
	case NumericUnitAmp:
		return "current"
	case NumericUnitKiloWatt, NumericUnitWatt:
		return "power"
	case NumericUnitKiloWattHour:
		return "energy"
	case NumericUnitDegreeC:
		return "temperature"
	case NumericUnitVolt:
		return "voltage"
	case NumericUnitVoltAmpereReactive:
		return "reactive_power"
	case NumericUnitHertz:
		return "frequency"
	}
	return ""
}

// StateClass is "total_increasing" for energy counters and "measurement"
// for everything else.
func (u NumericUnit) StateClass() string {
	if u == NumericUnitKiloWattHour {
		return "total_increasing"
	}
	return "measurement"
}

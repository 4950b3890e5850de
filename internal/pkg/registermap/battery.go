package registermap

import "github.com/anicoll/sungrow-modbus/internal/pkg/model"

var batteryCatalog = concat(identification, []Descriptor{
	input("bdc_rated_power", "BDC rated power", 5627, UInt16).measured(model.NumericUnitWatt, 100, 0),
	input("battery_power", "Battery power", 5214, SInt32).measured(model.NumericUnitWatt, 1, 0),
	input("battery_current", "Battery current", 5630, SInt16).measured(model.NumericUnitAmp, 0.1, 1),
	input("battery_voltage", "Battery voltage", 13019, UInt16).measured(model.NumericUnitVolt, 0.1, 1),
	input("battery_capacity", "Battery capacity", 5638, UInt16).measured(model.NumericUnitKiloWattHour, 0.01, 2),
	input("maximum_charge_current", "Maximum charge current", 5634, UInt16).measured(model.NumericUnitAmp, 1, 0),
	input("maximum_discharge_current", "Maximum discharge current", 5635, UInt16).measured(model.NumericUnitAmp, 1, 0),
	input("battery_soc", "Battery state of charge", 13022, UInt16).measured(model.NumericUnitPercent, 0.1, 1),
	input("battery_soh", "Battery state of health", 13023, UInt16).measured(model.NumericUnitPercent, 0.1, 1),
	input("battery_temperature", "Battery temperature", 13024, SInt16).measured(model.NumericUnitDegreeC, 0.1, 1),

	input("charge_power_now", "Charge power now", 6647, UInt16).series(96).measured(model.NumericUnitWatt, 1, 0).only(historyModels...),
	input("pv_charge_energy_today", "PV charge energy today", 6743, UInt16).series(31).measured(model.NumericUnitKiloWattHour, 0.1, 1).only(historyModels...),
	input("pv_charge_energy_today", "PV charge energy today", 13011, UInt16).measured(model.NumericUnitKiloWattHour, 0.1, 1).only(scalarModels...),
	input("pv_charge_energy_this_month", "PV charge energy this month", 6774, UInt16).series(12).measured(model.NumericUnitKiloWattHour, 0.1, 1).only(historyModels...),
	input("pv_charge_energy_this_year", "PV charge energy this year", 6786, UInt32).series(20).measured(model.NumericUnitKiloWattHour, 0.1, 1).only(historyModels...),
	input("pv_charge_energy_total", "PV charge energy total", 13012, UInt32).measured(model.NumericUnitKiloWattHour, 0.1, 1),
	input("charge_energy_today", "Charge energy today", 13039, UInt16).measured(model.NumericUnitKiloWattHour, 0.1, 1),
	input("charge_energy_total", "Charge energy total", 13040, UInt32).measured(model.NumericUnitKiloWattHour, 0.1, 1),
	input("discharge_energy_today", "Discharge energy today", 13025, UInt16).measured(model.NumericUnitKiloWattHour, 0.1, 1),
	input("discharge_energy_total", "Discharge energy total", 13026, UInt32).measured(model.NumericUnitKiloWattHour, 0.1, 1),

	input("bdc_side_fault", "BDC side fault", 13061, UInt32),
	input("bdc_side_permanent_fault", "BDC side permanent fault", 13063, UInt32),
	input("battery_fault", "Battery fault", 13065, UInt32),
	input("battery_alarm", "Battery alarm", 13067, UInt32),
	input("bms_alarm_1", "BMS alarm 1", 13069, UInt32),
	input("bms_protection", "BMS protection", 13071, UInt32),
	input("bms_fault_1", "BMS fault 1", 13073, UInt32),
	input("bms_fault_2", "BMS fault 2", 13075, UInt32),
	input("bms_alarm_2", "BMS alarm 2", 13077, UInt32),
})

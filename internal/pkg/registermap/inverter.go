package registermap

import "github.com/anicoll/sungrow-modbus/internal/pkg/model"

const (
	KeySerialNumber = "serial_number"
	KeyModelName    = "model_name"
)

// Hybrid inverters with on-board history (RT family) expose series registers;
// the other families only report today's scalar.
var (
	historyModels = []string{"SH?.0RT*", "SH10RT*"}
	scalarModels  = []string{"SH?K*", "SH?.?RS", "SH10RS", "SH*T-V11"}
)

var inverterModels = map[int64]string{
	0x0D03: "SH5K-V13",
	0x0D06: "SH3K6",
	0x0D07: "SH4K6",
	0x0D09: "SH5K-20",
	0x0D0A: "SH3K6-30",
	0x0D0B: "SH4K6-30",
	0x0D0C: "SH5K-30",
	0x0D0D: "SH3.6RS",
	0x0D0E: "SH4.6RS",
	0x0D0F: "SH5.0RS",
	0x0D10: "SH6.0RS",
	0x0D17: "SH3.0RS",
	0x0D18: "SH4.0RS",
	0x0D1A: "SH8.0RS",
	0x0D1B: "SH10RS",
	0x0E00: "SH5.0RT",
	0x0E01: "SH6.0RT",
	0x0E02: "SH8.0RT",
	0x0E03: "SH10RT",
	0x0E08: "SH5.0RT-V122",
	0x0E09: "SH6.0RT-V122",
	0x0E0A: "SH8.0RT-V122",
	0x0E0B: "SH10RT-V122",
	0x0E0C: "SH5.0RT-V112",
	0x0E0D: "SH6.0RT-V112",
	0x0E0E: "SH8.0RT-V112",
	0x0E0F: "SH10RT-V112",
	0x0E10: "SH5.0RT-20",
	0x0E11: "SH6.0RT-20",
	0x0E12: "SH8.0RT-20",
	0x0E13: "SH10RT-20",
	0x0E20: "SH5T-V11",
	0x0E21: "SH6T-V11",
	0x0E22: "SH8T-V11",
	0x0E23: "SH10T-V11",
	0x0E24: "SH12T-V11",
	0x0E25: "SH15T-V11",
	0x0E26: "SH20T-V11",
	0x0E28: "SH25T-V11",
}

var outputTypes = map[int64]string{
	0: "Single phase",
	1: "1-3P4L",
	2: "2-3P3L",
}

var systemStates = map[int64]string{
	0x0000: "Running",
	0x0040: "Running",
	0x0001: "Stop",
	0x8000: "Stop",
	0x0002: "Shutdown",
	0x1300: "Shutdown",
	0x0004: "Emergency Stop",
	0x1500: "Emergency Stop",
	0x0008: "Standby",
	0x1400: "Standby",
	0x0010: "Initial Standby",
	0x1200: "Initial Standby",
	0x0020: "Startup",
	0x1600: "Startup",
	0x0041: "Off-grid charge",
	0x0100: "Fault",
	0x5500: "Fault",
	0x0200: "Update failed",
	0x0400: "Maintain mode",
	0x0800: "Forced mode",
	0x1000: "Off-grid mode",
	0x1111: "Uninitialized",
	0x1700: "AFCI self-test shutdown",
	0x1800: "Intelligent Station Building Status",
	0x1900: "Safe Mode",
	0x2000: "Open loop",
	0x2501: "Restarting",
	0x4000: "External EMS mode",
	0x4001: "Emergency Charging Operation",
	0x8100: "Derating Running",
	0x8200: "Dispatch Running",
	0x9100: "Warn Run",
}

var drmStates = map[int64]string{
	0: "DRM0: Normal",
	1: "DRM1: Stop export",
	2: "DRM2: Limited export",
	3: "DRM3: No export, local only",
	4: "DRM4: Limited import",
	5: "DRM5: No import",
	6: "DRM6: Limited import and export",
	7: "DRM7: Power saving mode",
	8: "DRM8: Vendor specific",
}

var (
	startStop = map[int64]string{
		0xCF: "Start",
		0xCE: "Stop",
	}
	emsModes = map[int64]string{
		0: "Self-consumption mode",
		2: "Forced mode",
		3: "External EMS mode",
		4: "VPP",
	}
	forcedCommands = map[int64]string{
		0xAA: "Charge",
		0xBB: "Discharge",
		0xCC: "Stop",
	}
	exportLimitModes = map[int64]string{
		0xAA: "Enabled",
		0x55: "Disabled",
	}
)

// identification is shared by the inverter and the battery behind it.
var identification = []Descriptor{
	text(KeySerialNumber, "Serial number", 4989, 10),
	input(KeyModelName, "Model name", 4999, UInt16).enum(inverterModels),
}

var inverterCatalog = concat(identification, []Descriptor{
	input("protocol_number", "Protocol number", 4949, UInt32),
	input("protocol_version", "Protocol version", 4951, UInt32),
	text("arm_software_version", "ARM software version", 4953, 15),
	text("dsp_software_version", "DSP software version", 4968, 15),
	input("nominal_output_power", "Nominal output power", 5000, UInt16).measured(model.NumericUnitKiloWatt, 0.1, 1),
	input("output_type", "Output type", 5001, UInt16).enum(outputTypes),
	input("output_energy_today", "Output energy today", 5002, UInt16).measured(model.NumericUnitKiloWattHour, 0.1, 1),
	input("output_energy_total", "Output energy total", 5003, UInt32).measured(model.NumericUnitKiloWattHour, 0.1, 1),
	input("temperature", "Inverter temperature", 5007, SInt16).measured(model.NumericUnitDegreeC, 0.1, 1),
	input("mppt1_voltage", "MPPT1 voltage", 5010, UInt16).measured(model.NumericUnitVolt, 0.1, 1),
	input("mppt1_current", "MPPT1 current", 5011, UInt16).measured(model.NumericUnitAmp, 0.1, 1),
	input("mppt2_voltage", "MPPT2 voltage", 5012, UInt16).measured(model.NumericUnitVolt, 0.1, 1),
	input("mppt2_current", "MPPT2 current", 5013, UInt16).measured(model.NumericUnitAmp, 0.1, 1),
	input("mppt3_voltage", "MPPT3 voltage", 5014, UInt16).measured(model.NumericUnitVolt, 0.1, 1),
	input("mppt3_current", "MPPT3 current", 5015, UInt16).measured(model.NumericUnitAmp, 0.1, 1),
	input("mppt4_voltage", "MPPT4 voltage", 5114, UInt16).measured(model.NumericUnitVolt, 0.1, 1).only("SH8.0RS", "SH10RS"),
	input("mppt4_current", "MPPT4 current", 5115, UInt16).measured(model.NumericUnitAmp, 0.1, 1).only("SH8.0RS", "SH10RS"),
	input("pv_power", "PV power", 5016, UInt32).measured(model.NumericUnitWatt, 1, 0),
	input("phase_a_voltage", "Phase A voltage", 5018, UInt16).measured(model.NumericUnitVolt, 0.1, 1),
	input("phase_b_voltage", "Phase B voltage", 5019, UInt16).measured(model.NumericUnitVolt, 0.1, 1),
	input("phase_c_voltage", "Phase C voltage", 5020, UInt16).measured(model.NumericUnitVolt, 0.1, 1),
	input("reactive_power", "Reactive power", 5032, SInt32).measured(model.NumericUnitVoltAmpereReactive, 1, 0),
	input("power_factor", "Power factor", 5034, SInt16).measured(model.NumericUnitPercent, 0.1, 1),
	input("grid_frequency", "Grid frequency", 5241, UInt16).measured(model.NumericUnitHertz, 0.01, 2),
	input("meter_phase_a_active_power", "Meter phase A active power", 5602, SInt32).measured(model.NumericUnitWatt, 1, 0),
	input("meter_phase_b_active_power", "Meter phase B active power", 5604, SInt32).measured(model.NumericUnitWatt, 1, 0),
	input("meter_phase_c_active_power", "Meter phase C active power", 5606, SInt32).measured(model.NumericUnitWatt, 1, 0),
	input("minimum_export_power_limit", "Minimum export power limit", 5621, UInt16).measured(model.NumericUnitWatt, 10, 0),
	input("maximum_export_power_limit", "Maximum export power limit", 5622, UInt16).measured(model.NumericUnitWatt, 10, 0),
	input("phase_a_backup_current", "Phase A backup current", 5719, UInt16).measured(model.NumericUnitAmp, 0.1, 1),
	input("phase_b_backup_current", "Phase B backup current", 5720, UInt16).measured(model.NumericUnitAmp, 0.1, 1),
	input("phase_c_backup_current", "Phase C backup current", 5721, UInt16).measured(model.NumericUnitAmp, 0.1, 1),
	input("phase_a_backup_power", "Phase A backup power", 5722, SInt16).measured(model.NumericUnitWatt, 1, 0),
	input("phase_b_backup_power", "Phase B backup power", 5723, SInt16).measured(model.NumericUnitWatt, 1, 0),
	input("phase_c_backup_power", "Phase C backup power", 5724, SInt16).measured(model.NumericUnitWatt, 1, 0),
	input("total_backup_power", "Total backup power", 5725, SInt32).measured(model.NumericUnitWatt, 1, 0),
	input("phase_a_backup_voltage", "Phase A backup voltage", 5730, UInt16).measured(model.NumericUnitVolt, 0.1, 1),
	input("phase_b_backup_voltage", "Phase B backup voltage", 5731, UInt16).measured(model.NumericUnitVolt, 0.1, 1),
	input("phase_c_backup_voltage", "Phase C backup voltage", 5732, UInt16).measured(model.NumericUnitVolt, 0.1, 1),
	input("backup_frequency", "Backup frequency", 5733, UInt16).measured(model.NumericUnitHertz, 0.01, 2),

	input("pv_power_now", "PV power now", 6099, UInt16).series(96).measured(model.NumericUnitWatt, 1, 0).only(historyModels...),
	input("pv_energy_today", "PV energy today", 6195, UInt16).series(31).measured(model.NumericUnitKiloWattHour, 0.1, 1).only(historyModels...),
	input("pv_energy_today", "PV energy today", 13001, UInt16).measured(model.NumericUnitKiloWattHour, 0.1, 1).only(scalarModels...),
	input("pv_energy_this_month", "PV energy this month", 6226, UInt16).series(12).measured(model.NumericUnitKiloWattHour, 0.1, 1).only(historyModels...),
	input("pv_energy_this_year", "PV energy this year", 6249, UInt32).series(20).measured(model.NumericUnitKiloWattHour, 1, 1).only(historyModels...),
	input("pv_energy_total", "PV energy total", 13002, UInt32).measured(model.NumericUnitKiloWattHour, 0.1, 1),
	input("direct_power_consumption_now", "Direct power consumption now", 6289, UInt16).series(96).measured(model.NumericUnitWatt, 1, 0).only(historyModels...),
	input("direct_energy_consumption_today", "Direct energy consumption today", 6385, UInt16).series(31).measured(model.NumericUnitKiloWattHour, 0.1, 1).only(historyModels...),
	input("direct_energy_consumption_today", "Direct energy consumption today", 13016, UInt16).measured(model.NumericUnitKiloWattHour, 0.1, 1).only(scalarModels...),
	input("direct_energy_consumption_this_month", "Direct energy consumption this month", 6416, UInt16).series(12).measured(model.NumericUnitKiloWattHour, 0.1, 1).only(historyModels...),
	input("direct_energy_consumption_this_year", "Direct energy consumption this year", 6428, UInt32).series(20).measured(model.NumericUnitKiloWattHour, 0.1, 1).only(historyModels...),
	input("direct_energy_consumption_total", "Direct energy consumption total", 13017, UInt32).measured(model.NumericUnitKiloWattHour, 0.1, 1),
	input("export_pv_power_now", "Export PV power now", 6468, UInt16).series(96).measured(model.NumericUnitWatt, 1, 0).only(historyModels...),
	input("export_pv_energy_today", "Export PV energy today", 6564, UInt16).series(31).measured(model.NumericUnitKiloWattHour, 0.1, 1).only(historyModels...),
	input("export_pv_energy_today", "Export PV energy today", 13004, UInt16).measured(model.NumericUnitKiloWattHour, 0.1, 1).only(scalarModels...),
	input("export_pv_energy_this_month", "Export PV energy this month", 6595, UInt16).series(12).measured(model.NumericUnitKiloWattHour, 0.1, 1).only(historyModels...),
	input("export_pv_energy_this_year", "Export PV energy this year", 6607, UInt32).series(20).measured(model.NumericUnitKiloWattHour, 0.1, 1).only(historyModels...),
	input("export_pv_energy_total", "Export PV energy total", 13006, UInt32).measured(model.NumericUnitKiloWattHour, 0.1, 1),
	input("import_energy_today", "Import energy today", 13035, UInt16).measured(model.NumericUnitKiloWattHour, 0.1, 1),
	input("import_energy_total", "Import energy total", 13036, UInt32).measured(model.NumericUnitKiloWattHour, 0.1, 1),
	input("export_energy_today", "Export energy today", 13044, UInt16).measured(model.NumericUnitKiloWattHour, 0.1, 1),
	input("export_energy_total", "Export energy total", 13045, UInt32).measured(model.NumericUnitKiloWattHour, 0.1, 1),

	input("system_state", "System state", 12999, UInt16).enum(systemStates),
	input("power_flow_status", "Power flow status", 13000, UInt16).bits(
		"pv_generating_power",
		"battery_charging",
		"battery_discharging",
		"positive_load_power",
		"exporting_power",
		"importing_power",
		"",
		"negative_load_power",
	),
	input("load_power", "Load power", 13007, SInt32).measured(model.NumericUnitWatt, 1, 0),
	input("export_power", "Export power", 13009, SInt32).measured(model.NumericUnitWatt, 1, 0),
	input("self_consumption_today", "Self consumption today", 13028, UInt16).measured(model.NumericUnitPercent, 0.1, 1),
	input("phase_a_current", "Phase A current", 13030, SInt16).measured(model.NumericUnitAmp, 0.1, 1),
	input("phase_b_current", "Phase B current", 13031, SInt16).measured(model.NumericUnitAmp, 0.1, 1),
	input("phase_c_current", "Phase C current", 13032, SInt16).measured(model.NumericUnitAmp, 0.1, 1),
	input("total_active_power", "Total active power", 13033, SInt32).measured(model.NumericUnitWatt, 1, 0),
	input("drm_state", "DRM state", 13042, UInt16).enum(drmStates),
	input("inverter_alarm", "Inverter alarm", 13049, UInt32),
	input("grid_side_fault", "Grid side fault", 13051, UInt32),
	input("system_fault_1", "System fault 1", 13053, UInt32),
	input("system_fault_2", "System fault 2", 13055, UInt32),
	input("dc_side_fault", "DC side fault", 13057, UInt32),
	input("permanent_fault", "Permanent fault", 13059, UInt32),

	holding("system_clock_year", "System clock year", 4999, UInt16),
	holding("system_clock_month", "System clock month", 5000, UInt16),
	holding("system_clock_day", "System clock day", 5001, UInt16),
	holding("system_clock_hour", "System clock hour", 5002, UInt16),
	holding("system_clock_minute", "System clock minute", 5003, UInt16),
	holding("system_clock_second", "System clock second", 5004, UInt16),
	holding(KeyStartStop, "Start/stop", 12999, UInt16).enum(startStop),
	holding(KeyEMSMode, "EMS mode", 13049, UInt16).enum(emsModes),
	holding(KeyForcedCommand, "Charge/discharge command", 13050, UInt16).enum(forcedCommands),
	holding(KeyForcedPower, "Charge/discharge power", 13051, UInt16).measured(model.NumericUnitWatt, 1, 0),
	holding(KeyExportLimit, "Export power limit", 13073, UInt16).measured(model.NumericUnitWatt, 1, 0),
	holding(KeyExportLimitMode, "Export power limitation", 13086, UInt16).enum(exportLimitModes),
})

// Writable holding keys driven by the commands package.
const (
	KeyStartStop       = "start_stop"
	KeyEMSMode         = "ems_mode"
	KeyForcedCommand   = "forced_charge_discharge_command"
	KeyForcedPower     = "forced_charge_discharge_power"
	KeyExportLimit     = "export_power_limit"
	KeyExportLimitMode = "export_power_limitation"
)

func concat(parts ...[]Descriptor) []Descriptor {
	var out []Descriptor
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

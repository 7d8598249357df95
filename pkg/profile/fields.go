package profile

// FieldDef describes one field of a profile message.
type FieldDef struct {
	Num      uint8
	Name     string
	BaseType BaseType
	Scale    float64
	Offset   float64
	Units    string
	// Type is the profile type name driving semantic conversion: an enum
	// table name, "date_time", "local_date_time" or "semicircles".
	Type string
	// Alias names a field with the same meaning and higher resolution that
	// takes precedence when both are present.
	Alias string
}

// Scaled reports whether the field carries a non-identity scale or offset.
func (f FieldDef) Scaled() bool {
	return (f.Scale != 0 && f.Scale != 1) || f.Offset != 0
}

func fld(num uint8, name string, bt BaseType) FieldDef {
	return FieldDef{Num: num, Name: name, BaseType: bt, Scale: 1}
}

func (f FieldDef) scale(scale, offset float64, units string) FieldDef {
	f.Scale, f.Offset, f.Units = scale, offset, units
	return f
}

func (f FieldDef) typed(t string) FieldDef {
	f.Type = t
	return f
}

func (f FieldDef) alias(name string) FieldDef {
	f.Alias = name
	return f
}

func timestampField() FieldDef {
	return fld(253, "timestamp", Uint32).typed("date_time").scale(1, 0, "s")
}

func messageIndexField() FieldDef {
	return fld(254, "message_index", Uint16)
}

func position(num uint8, name string) FieldDef {
	return fld(num, name, Sint32).typed("semicircles").scale(1, 0, "semicircles")
}

// mesgFields lists the known fields of each profile message. Lap and session
// share names but not numbers, so each is listed in full.
var mesgFields = map[MesgNum][]FieldDef{
	MesgFileID: {
		fld(0, "type", Enum).typed("file"),
		fld(1, "manufacturer", Uint16).typed("manufacturer"),
		fld(2, "product", Uint16),
		fld(3, "serial_number", Uint32z),
		fld(4, "time_created", Uint32).typed("date_time"),
		fld(5, "number", Uint16),
		fld(8, "product_name", String),
	},
	MesgFileCreator: {
		fld(0, "software_version", Uint16),
		fld(1, "hardware_version", Uint8),
	},
	MesgDeviceSettings: {
		fld(0, "active_time_zone", Uint8),
		fld(1, "utc_offset", Uint32),
		fld(2, "time_offset", Uint32).scale(1, 0, "s"),
		fld(4, "time_mode", Enum),
		fld(5, "time_zone_offset", Sint8).scale(4, 0, "hr"),
		fld(12, "backlight_mode", Enum),
		fld(36, "activity_tracker_enabled", Enum).typed("bool"),
		fld(39, "clock_time", Uint32).typed("date_time"),
		fld(56, "mounting_side", Enum),
		fld(94, "number_of_screens", Uint8),
	},
	MesgUserProfile: {
		messageIndexField(),
		fld(0, "friendly_name", String),
		fld(1, "gender", Enum).typed("gender"),
		fld(2, "age", Uint8).scale(1, 0, "years"),
		fld(3, "height", Uint8).scale(100, 0, "m"),
		fld(4, "weight", Uint16).scale(10, 0, "kg"),
		fld(5, "language", Enum),
		fld(6, "elev_setting", Enum),
		fld(7, "weight_setting", Enum),
		fld(8, "resting_heart_rate", Uint8).scale(1, 0, "bpm"),
		fld(9, "default_max_running_heart_rate", Uint8).scale(1, 0, "bpm"),
		fld(10, "default_max_biking_heart_rate", Uint8).scale(1, 0, "bpm"),
		fld(11, "default_max_heart_rate", Uint8).scale(1, 0, "bpm"),
		fld(12, "hr_setting", Enum),
		fld(13, "speed_setting", Enum),
		fld(14, "dist_setting", Enum),
		fld(16, "power_setting", Enum),
		fld(17, "activity_class", Enum),
		fld(18, "position_setting", Enum),
		fld(21, "temperature_setting", Enum),
	},
	MesgSport: {
		fld(0, "sport", Enum).typed("sport"),
		fld(1, "sub_sport", Enum).typed("sub_sport"),
		fld(3, "name", String),
	},
	MesgEvent: {
		timestampField(),
		fld(0, "event", Enum).typed("event"),
		fld(1, "event_type", Enum).typed("event_type"),
		fld(2, "data16", Uint16),
		fld(3, "data", Uint32),
		fld(4, "event_group", Uint8),
		fld(7, "score", Uint16),
		fld(8, "opponent_score", Uint16),
		fld(9, "front_gear_num", Uint8z),
		fld(10, "front_gear", Uint8z),
		fld(11, "rear_gear_num", Uint8z),
		fld(12, "rear_gear", Uint8z),
		fld(13, "device_index", Uint8),
	},
	MesgDeviceInfo: {
		timestampField(),
		fld(0, "device_index", Uint8),
		fld(1, "device_type", Uint8),
		fld(2, "manufacturer", Uint16).typed("manufacturer"),
		fld(3, "serial_number", Uint32z),
		fld(4, "product", Uint16),
		fld(5, "software_version", Uint16).scale(100, 0, ""),
		fld(6, "hardware_version", Uint8),
		fld(7, "cum_operating_time", Uint32).scale(1, 0, "s"),
		fld(10, "battery_voltage", Uint16).scale(256, 0, "V"),
		fld(11, "battery_status", Uint8).typed("battery_status"),
		fld(18, "sensor_position", Enum),
		fld(19, "descriptor", String),
		fld(20, "ant_transmission_type", Uint8z),
		fld(21, "ant_device_number", Uint16z),
		fld(22, "ant_network", Enum),
		fld(25, "source_type", Enum).typed("source_type"),
		fld(27, "product_name", String),
		fld(32, "battery_level", Uint8).scale(1, 0, "%"),
	},
	MesgSoftware: {
		messageIndexField(),
		fld(3, "version", Uint16).scale(100, 0, ""),
		fld(5, "part_number", String),
	},
	MesgRecord: {
		timestampField(),
		position(0, "position_lat"),
		position(1, "position_long"),
		fld(2, "altitude", Uint16).scale(5, 500, "m").alias("enhanced_altitude"),
		fld(3, "heart_rate", Uint8).scale(1, 0, "bpm"),
		fld(4, "cadence", Uint8).scale(1, 0, "rpm"),
		fld(5, "distance", Uint32).scale(100, 0, "m"),
		fld(6, "speed", Uint16).scale(1000, 0, "m/s").alias("enhanced_speed"),
		fld(7, "power", Uint16).scale(1, 0, "watts"),
		fld(9, "grade", Sint16).scale(100, 0, "%"),
		fld(10, "resistance", Uint8),
		fld(11, "time_from_course", Sint32).scale(1000, 0, "s"),
		fld(13, "temperature", Sint8).scale(1, 0, "C"),
		fld(29, "accumulated_power", Uint32).scale(1, 0, "watts"),
		fld(30, "left_right_balance", Uint8),
		fld(33, "calories", Uint16).scale(1, 0, "kcal"),
		fld(39, "vertical_oscillation", Uint16).scale(10, 0, "mm"),
		fld(40, "stance_time_percent", Uint16).scale(100, 0, "percent"),
		fld(41, "stance_time", Uint16).scale(10, 0, "ms"),
		fld(42, "activity_type", Enum),
		fld(53, "fractional_cadence", Uint8).scale(128, 0, "rpm"),
		fld(62, "device_index", Uint8),
		fld(73, "enhanced_speed", Uint32).scale(1000, 0, "m/s"),
		fld(78, "enhanced_altitude", Uint32).scale(5, 500, "m"),
		fld(83, "vertical_ratio", Uint16).scale(100, 0, "percent"),
		fld(84, "stance_time_balance", Uint16).scale(100, 0, "percent"),
		fld(85, "step_length", Uint16).scale(10, 0, "mm"),
	},
	MesgLap: {
		messageIndexField(),
		timestampField(),
		fld(0, "event", Enum).typed("event"),
		fld(1, "event_type", Enum).typed("event_type"),
		fld(2, "start_time", Uint32).typed("date_time"),
		position(3, "start_position_lat"),
		position(4, "start_position_long"),
		position(5, "end_position_lat"),
		position(6, "end_position_long"),
		fld(7, "total_elapsed_time", Uint32).scale(1000, 0, "s"),
		fld(8, "total_timer_time", Uint32).scale(1000, 0, "s"),
		fld(9, "total_distance", Uint32).scale(100, 0, "m"),
		fld(10, "total_cycles", Uint32).scale(1, 0, "cycles"),
		fld(11, "total_calories", Uint16).scale(1, 0, "kcal"),
		fld(12, "total_fat_calories", Uint16).scale(1, 0, "kcal"),
		fld(13, "avg_speed", Uint16).scale(1000, 0, "m/s").alias("enhanced_avg_speed"),
		fld(14, "max_speed", Uint16).scale(1000, 0, "m/s").alias("enhanced_max_speed"),
		fld(15, "avg_heart_rate", Uint8).scale(1, 0, "bpm"),
		fld(16, "max_heart_rate", Uint8).scale(1, 0, "bpm"),
		fld(17, "avg_cadence", Uint8).scale(1, 0, "rpm"),
		fld(18, "max_cadence", Uint8).scale(1, 0, "rpm"),
		fld(19, "avg_power", Uint16).scale(1, 0, "watts"),
		fld(20, "max_power", Uint16).scale(1, 0, "watts"),
		fld(21, "total_ascent", Uint16).scale(1, 0, "m"),
		fld(22, "total_descent", Uint16).scale(1, 0, "m"),
		fld(23, "intensity", Enum),
		fld(24, "lap_trigger", Enum).typed("lap_trigger"),
		fld(25, "sport", Enum).typed("sport"),
		fld(26, "event_group", Uint8),
		fld(32, "num_lengths", Uint16).scale(1, 0, "lengths"),
		fld(33, "normalized_power", Uint16).scale(1, 0, "watts"),
		fld(34, "left_right_balance", Uint16),
		fld(35, "first_length_index", Uint16),
		fld(37, "avg_stroke_distance", Uint16).scale(100, 0, "m"),
		fld(38, "swim_stroke", Enum),
		fld(39, "sub_sport", Enum).typed("sub_sport"),
		fld(40, "num_active_lengths", Uint16).scale(1, 0, "lengths"),
		fld(41, "total_work", Uint32).scale(1, 0, "J"),
		fld(42, "avg_altitude", Uint16).scale(5, 500, "m").alias("enhanced_avg_altitude"),
		fld(43, "max_altitude", Uint16).scale(5, 500, "m").alias("enhanced_max_altitude"),
		fld(44, "gps_accuracy", Uint8).scale(1, 0, "m"),
		fld(45, "avg_grade", Sint16).scale(100, 0, "%"),
		fld(50, "avg_temperature", Sint8).scale(1, 0, "C"),
		fld(51, "max_temperature", Sint8).scale(1, 0, "C"),
		fld(52, "total_moving_time", Uint32).scale(1000, 0, "s"),
		fld(62, "min_altitude", Uint16).scale(5, 500, "m").alias("enhanced_min_altitude"),
		fld(63, "min_heart_rate", Uint8).scale(1, 0, "bpm"),
		fld(71, "wkt_step_index", Uint16),
		fld(77, "avg_vertical_oscillation", Uint16).scale(10, 0, "mm"),
		fld(78, "avg_stance_time_percent", Uint16).scale(100, 0, "percent"),
		fld(79, "avg_stance_time", Uint16).scale(10, 0, "ms"),
		fld(80, "avg_fractional_cadence", Uint8).scale(128, 0, "rpm"),
		fld(81, "max_fractional_cadence", Uint8).scale(128, 0, "rpm"),
		fld(110, "enhanced_avg_speed", Uint32).scale(1000, 0, "m/s"),
		fld(111, "enhanced_max_speed", Uint32).scale(1000, 0, "m/s"),
		fld(112, "enhanced_avg_altitude", Uint32).scale(5, 500, "m"),
		fld(113, "enhanced_min_altitude", Uint32).scale(5, 500, "m"),
		fld(114, "enhanced_max_altitude", Uint32).scale(5, 500, "m"),
		fld(118, "avg_vertical_ratio", Uint16).scale(100, 0, "percent"),
		fld(119, "avg_stance_time_balance", Uint16).scale(100, 0, "percent"),
		fld(120, "avg_step_length", Uint16).scale(10, 0, "mm"),
		fld(124, "min_temperature", Sint8).scale(1, 0, "C"),
	},
	MesgSession: {
		messageIndexField(),
		timestampField(),
		fld(0, "event", Enum).typed("event"),
		fld(1, "event_type", Enum).typed("event_type"),
		fld(2, "start_time", Uint32).typed("date_time"),
		position(3, "start_position_lat"),
		position(4, "start_position_long"),
		fld(5, "sport", Enum).typed("sport"),
		fld(6, "sub_sport", Enum).typed("sub_sport"),
		fld(7, "total_elapsed_time", Uint32).scale(1000, 0, "s"),
		fld(8, "total_timer_time", Uint32).scale(1000, 0, "s"),
		fld(9, "total_distance", Uint32).scale(100, 0, "m"),
		fld(10, "total_cycles", Uint32).scale(1, 0, "cycles"),
		fld(11, "total_calories", Uint16).scale(1, 0, "kcal"),
		fld(13, "total_fat_calories", Uint16).scale(1, 0, "kcal"),
		fld(14, "avg_speed", Uint16).scale(1000, 0, "m/s").alias("enhanced_avg_speed"),
		fld(15, "max_speed", Uint16).scale(1000, 0, "m/s").alias("enhanced_max_speed"),
		fld(16, "avg_heart_rate", Uint8).scale(1, 0, "bpm"),
		fld(17, "max_heart_rate", Uint8).scale(1, 0, "bpm"),
		fld(18, "avg_cadence", Uint8).scale(1, 0, "rpm"),
		fld(19, "max_cadence", Uint8).scale(1, 0, "rpm"),
		fld(20, "avg_power", Uint16).scale(1, 0, "watts"),
		fld(21, "max_power", Uint16).scale(1, 0, "watts"),
		fld(22, "total_ascent", Uint16).scale(1, 0, "m"),
		fld(23, "total_descent", Uint16).scale(1, 0, "m"),
		fld(24, "total_training_effect", Uint8).scale(10, 0, ""),
		fld(25, "first_lap_index", Uint16),
		fld(26, "num_laps", Uint16),
		fld(27, "event_group", Uint8),
		fld(28, "trigger", Enum),
		position(29, "nec_lat"),
		position(30, "nec_long"),
		position(31, "swc_lat"),
		position(32, "swc_long"),
		fld(33, "num_lengths", Uint16).scale(1, 0, "lengths"),
		fld(34, "normalized_power", Uint16).scale(1, 0, "watts"),
		fld(35, "training_stress_score", Uint16).scale(10, 0, "tss"),
		fld(36, "intensity_factor", Uint16).scale(1000, 0, "if"),
		fld(37, "left_right_balance", Uint16),
		fld(41, "avg_stroke_count", Uint32).scale(10, 0, "strokes/lap"),
		fld(42, "avg_stroke_distance", Uint16).scale(100, 0, "m"),
		fld(43, "swim_stroke", Enum),
		fld(44, "pool_length", Uint16).scale(100, 0, "m"),
		fld(45, "threshold_power", Uint16).scale(1, 0, "watts"),
		fld(46, "pool_length_unit", Enum),
		fld(47, "num_active_lengths", Uint16).scale(1, 0, "lengths"),
		fld(48, "total_work", Uint32).scale(1, 0, "J"),
		fld(49, "avg_altitude", Uint16).scale(5, 500, "m").alias("enhanced_avg_altitude"),
		fld(50, "max_altitude", Uint16).scale(5, 500, "m").alias("enhanced_max_altitude"),
		fld(51, "gps_accuracy", Uint8).scale(1, 0, "m"),
		fld(52, "avg_grade", Sint16).scale(100, 0, "%"),
		fld(57, "avg_temperature", Sint8).scale(1, 0, "C"),
		fld(58, "max_temperature", Sint8).scale(1, 0, "C"),
		fld(59, "total_moving_time", Uint32).scale(1000, 0, "s"),
		fld(64, "min_heart_rate", Uint8).scale(1, 0, "bpm"),
		fld(71, "min_altitude", Uint16).scale(5, 500, "m").alias("enhanced_min_altitude"),
		fld(89, "avg_vertical_oscillation", Uint16).scale(10, 0, "mm"),
		fld(90, "avg_stance_time_percent", Uint16).scale(100, 0, "percent"),
		fld(91, "avg_stance_time", Uint16).scale(10, 0, "ms"),
		fld(92, "avg_fractional_cadence", Uint8).scale(128, 0, "rpm"),
		fld(93, "max_fractional_cadence", Uint8).scale(128, 0, "rpm"),
		fld(110, "sport_profile_name", String),
		fld(124, "enhanced_avg_speed", Uint32).scale(1000, 0, "m/s"),
		fld(125, "enhanced_max_speed", Uint32).scale(1000, 0, "m/s"),
		fld(126, "enhanced_avg_altitude", Uint32).scale(5, 500, "m"),
		fld(127, "enhanced_min_altitude", Uint32).scale(5, 500, "m"),
		fld(128, "enhanced_max_altitude", Uint32).scale(5, 500, "m"),
		fld(132, "avg_vertical_ratio", Uint16).scale(100, 0, "percent"),
		fld(133, "avg_stance_time_balance", Uint16).scale(100, 0, "percent"),
		fld(134, "avg_step_length", Uint16).scale(10, 0, "mm"),
		fld(150, "min_temperature", Sint8).scale(1, 0, "C"),
	},
	MesgActivity: {
		timestampField(),
		fld(0, "total_timer_time", Uint32).scale(1000, 0, "s"),
		fld(1, "num_sessions", Uint16),
		fld(2, "type", Enum),
		fld(3, "event", Enum).typed("event"),
		fld(4, "event_type", Enum).typed("event_type"),
		fld(5, "local_timestamp", Uint32),
		fld(6, "event_group", Uint8),
	},
	MesgLength: {
		messageIndexField(),
		timestampField(),
		fld(0, "event", Enum).typed("event"),
		fld(1, "event_type", Enum).typed("event_type"),
		fld(2, "start_time", Uint32).typed("date_time"),
		fld(3, "total_elapsed_time", Uint32).scale(1000, 0, "s"),
		fld(4, "total_timer_time", Uint32).scale(1000, 0, "s"),
		fld(5, "total_strokes", Uint16).scale(1, 0, "strokes"),
		fld(6, "avg_speed", Uint16).scale(1000, 0, "m/s"),
		fld(7, "swim_stroke", Enum),
		fld(9, "avg_swimming_cadence", Uint8).scale(1, 0, "strokes/min"),
		fld(10, "event_group", Uint8),
		fld(11, "total_calories", Uint16).scale(1, 0, "kcal"),
		fld(12, "length_type", Enum),
	},
	MesgHRV: {
		fld(0, "time", Uint16).scale(1000, 0, "s"),
	},
	MesgDeveloperDataID: {
		fld(0, "developer_id", Byte),
		fld(1, "application_id", Byte),
		fld(2, "manufacturer_id", Uint16).typed("manufacturer"),
		fld(3, "developer_data_index", Uint8),
		fld(4, "application_version", Uint32),
	},
	MesgFieldDesc: {
		fld(0, "developer_data_index", Uint8),
		fld(1, "field_definition_number", Uint8),
		fld(2, "fit_base_type_id", Uint8),
		fld(3, "field_name", String),
		fld(4, "array", Uint8),
		fld(5, "components", String),
		fld(6, "scale", Uint8),
		fld(7, "offset", Sint8),
		fld(8, "units", String),
		fld(14, "native_mesg_num", Uint16),
		fld(15, "native_field_num", Uint8),
	},
}

type fieldIndex struct {
	byNum  map[uint8]FieldDef
	byName map[string]FieldDef
}

var fieldIndexes = func() map[MesgNum]fieldIndex {
	idx := make(map[MesgNum]fieldIndex, len(mesgFields))
	for num, defs := range mesgFields {
		fi := fieldIndex{
			byNum:  make(map[uint8]FieldDef, len(defs)),
			byName: make(map[string]FieldDef, len(defs)),
		}
		for _, d := range defs {
			fi.byNum[d.Num] = d
			fi.byName[d.Name] = d
		}
		idx[num] = fi
	}
	return idx
}()

// Field looks up a field of mesg by number.
func Field(mesg MesgNum, num uint8) (FieldDef, bool) {
	d, ok := fieldIndexes[mesg].byNum[num]
	return d, ok
}

// FieldByName looks up a field of mesg by profile name.
func FieldByName(mesg MesgNum, name string) (FieldDef, bool) {
	d, ok := fieldIndexes[mesg].byName[name]
	return d, ok
}

// Fields returns the profile fields of mesg in table order.
func Fields(mesg MesgNum) []FieldDef {
	return mesgFields[mesg]
}

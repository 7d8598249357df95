package aggregate

// Method is how one summary field combines across laps.
type Method uint8

const (
	Sum Method = iota
	// WeightedAvg weighs each lap by its total_timer_time.
	WeightedAvg
	Max
	Min
	First
	Last
)

func (m Method) String() string {
	switch m {
	case Sum:
		return "sum"
	case WeightedAvg:
		return "weighted_avg"
	case Max:
		return "max"
	case Min:
		return "min"
	case First:
		return "first"
	case Last:
		return "last"
	}
	return "unknown"
}

// FieldRule binds a lap field to its aggregation method.
type FieldRule struct {
	Field  string
	Method Method
}

// LapRules is the per-field table MergeLaps applies. start_time,
// total_elapsed_time, total_timer_time and timestamp are derived from the
// lap boundaries instead.
var LapRules = []FieldRule{
	{"total_distance", Sum},
	{"total_cycles", Sum},
	{"total_calories", Sum},
	{"total_fat_calories", Sum},
	{"total_ascent", Sum},
	{"total_descent", Sum},
	{"total_work", Sum},
	{"total_moving_time", Sum},
	{"num_lengths", Sum},
	{"num_active_lengths", Sum},

	{"avg_speed", WeightedAvg},
	{"avg_heart_rate", WeightedAvg},
	{"avg_cadence", WeightedAvg},
	{"avg_fractional_cadence", WeightedAvg},
	{"avg_power", WeightedAvg},
	{"normalized_power", WeightedAvg},
	{"avg_temperature", WeightedAvg},
	{"avg_altitude", WeightedAvg},
	{"avg_grade", WeightedAvg},
	{"avg_stroke_distance", WeightedAvg},
	{"avg_vertical_oscillation", WeightedAvg},
	{"avg_stance_time_percent", WeightedAvg},
	{"avg_stance_time", WeightedAvg},
	{"avg_vertical_ratio", WeightedAvg},
	{"avg_stance_time_balance", WeightedAvg},
	{"avg_step_length", WeightedAvg},

	{"max_speed", Max},
	{"max_heart_rate", Max},
	{"max_cadence", Max},
	{"max_fractional_cadence", Max},
	{"max_power", Max},
	{"max_temperature", Max},
	{"max_altitude", Max},

	{"min_heart_rate", Min},
	{"min_temperature", Min},
	{"min_altitude", Min},

	{"message_index", First},
	{"event", First},
	{"event_type", First},
	{"sport", First},
	{"sub_sport", First},
	{"intensity", First},
	{"swim_stroke", First},
	{"start_position_lat", First},
	{"start_position_long", First},
	{"first_length_index", First},
	{"wkt_step_index", First},

	{"end_position_lat", Last},
	{"end_position_long", Last},
	{"lap_trigger", Last},
}

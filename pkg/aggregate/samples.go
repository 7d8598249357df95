package aggregate

import (
	"time"

	"github.com/ssargent/fitedit/pkg/message"
	"github.com/ssargent/fitedit/pkg/profile"
)

// stat accumulates one sample channel.
type stat struct {
	n        int
	sum      float64
	min, max float64
}

func (s *stat) add(v float64) {
	if s.n == 0 || v < s.min {
		s.min = v
	}
	if s.n == 0 || v > s.max {
		s.max = v
	}
	s.sum += v
	s.n++
}

func (s *stat) mean() float64 {
	return s.sum / float64(s.n)
}

// span tracks the first and last value of a cumulative channel.
type span struct {
	ok          bool
	first, last float64
}

func (s *span) add(v float64) {
	if !s.ok {
		s.first, s.ok = v, true
	}
	s.last = v
}

// sampleSummary is what FromSamples derives from a run of records.
type sampleSummary struct {
	start, end time.Time

	distance, calories span
	speed, heartRate   stat
	cadence, power     stat
	temperature        stat
	altitude           stat
	ascent, descent    float64

	firstPos, lastPos *message.Message
}

func summarise(samples []*message.Message) sampleSummary {
	var s sampleSummary
	var prevAlt float64
	var haveAlt bool

	for _, m := range samples {
		if t, ok := m.Timestamp(); ok {
			if s.start.IsZero() || t.Before(s.start) {
				s.start = t
			}
			if t.After(s.end) {
				s.end = t
			}
		}
		if v, ok := m.Float("distance"); ok {
			s.distance.add(v)
		}
		if v, ok := m.Float("calories"); ok {
			s.calories.add(v)
		}
		if v, ok := m.Float("speed"); ok {
			s.speed.add(v)
		}
		if v, ok := m.Float("heart_rate"); ok {
			s.heartRate.add(v)
		}
		if v, ok := m.Float("cadence"); ok {
			s.cadence.add(v)
		}
		if v, ok := m.Float("power"); ok {
			s.power.add(v)
		}
		if v, ok := m.Float("temperature"); ok {
			s.temperature.add(v)
		}
		if v, ok := m.Float("altitude"); ok {
			s.altitude.add(v)
			if haveAlt {
				if d := v - prevAlt; d > 0 {
					s.ascent += d
				} else {
					s.descent -= d
				}
			}
			prevAlt, haveAlt = v, true
		}
		if m.Has("position_lat") && m.Has("position_long") {
			if s.firstPos == nil {
				s.firstPos = m
			}
			s.lastPos = m
		}
	}
	return s
}

// FromSamples builds a lap or session summary from record messages sorted
// by time. Averages are means over the samples carrying the channel, totals
// are the last cumulative value minus the first.
func FromSamples(num uint16, samples []*message.Message) (*message.Message, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}
	s := summarise(samples)
	out := message.New(num)

	type value struct {
		name string
		v    float64
	}
	var values []value
	add := func(name string, v float64) {
		values = append(values, value{name, v})
	}

	if !s.start.IsZero() {
		out.SetTimestamp(s.end)
		if err := out.SetTime("start_time", s.start); err != nil {
			return nil, err
		}
		if err := setSpan(out, s.start, s.end); err != nil {
			return nil, err
		}
	}
	if s.distance.ok {
		add("total_distance", s.distance.last-s.distance.first)
	}
	if s.calories.ok {
		add("total_calories", s.calories.last-s.calories.first)
	}
	if s.speed.n > 0 {
		add("avg_speed", s.speed.mean())
		add("max_speed", s.speed.max)
	}
	if s.heartRate.n > 0 {
		add("avg_heart_rate", s.heartRate.mean())
		add("max_heart_rate", s.heartRate.max)
		add("min_heart_rate", s.heartRate.min)
	}
	if s.cadence.n > 0 {
		add("avg_cadence", s.cadence.mean())
		add("max_cadence", s.cadence.max)
	}
	if s.power.n > 0 {
		add("avg_power", s.power.mean())
		add("max_power", s.power.max)
	}
	if s.temperature.n > 0 {
		add("avg_temperature", s.temperature.mean())
		add("max_temperature", s.temperature.max)
		add("min_temperature", s.temperature.min)
	}
	if s.altitude.n > 0 {
		add("avg_altitude", s.altitude.mean())
		add("max_altitude", s.altitude.max)
		add("min_altitude", s.altitude.min)
		add("total_ascent", s.ascent)
		add("total_descent", s.descent)
	}
	for _, f := range values {
		if _, ok := profile.FieldByName(num, f.name); !ok {
			continue
		}
		if err := out.SetFloat(f.name, f.v); err != nil {
			return nil, err
		}
	}

	if s.firstPos != nil {
		if err := copyPosition(out, s.firstPos, "start"); err != nil {
			return nil, err
		}
	}
	if s.lastPos != nil {
		if err := copyPosition(out, s.lastPos, "end"); err != nil {
			return nil, err
		}
	}

	switch num {
	case profile.MesgLap:
		if err := message.Set(out, "event", "lap", message.Pretty); err != nil {
			return nil, err
		}
		if err := message.Set(out, "lap_trigger", "session_end", message.Pretty); err != nil {
			return nil, err
		}
	case profile.MesgSession:
		if err := message.Set(out, "event", "session", message.Pretty); err != nil {
			return nil, err
		}
		if err := message.Set(out, "trigger", "activity_end", message.Pretty); err != nil {
			return nil, err
		}
	}
	if _, ok := profile.FieldByName(num, "event_type"); ok {
		if err := message.Set(out, "event_type", "stop", message.Pretty); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// copyPosition writes the sample position of src into the
// <prefix>_position_lat/long fields of dst when dst has them.
func copyPosition(dst, src *message.Message, prefix string) error {
	for _, axis := range []string{"lat", "long"} {
		name := prefix + "_position_" + axis
		if _, ok := profile.FieldByName(dst.Num, name); !ok {
			continue
		}
		if v, ok := src.Int("position_" + axis); ok {
			if err := message.Set(dst, name, v, message.Raw); err != nil {
				return err
			}
		}
	}
	return nil
}

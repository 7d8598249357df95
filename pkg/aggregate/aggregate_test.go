package aggregate

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/fitedit/pkg/message"
	"github.com/ssargent/fitedit/pkg/profile"
)

var start = time.Date(2024, time.July, 4, 17, 0, 0, 0, time.UTC)

func newLap(t *testing.T, offset, secs time.Duration, values map[string]float64) *message.Message {
	t.Helper()
	lap := message.New(profile.MesgLap)
	require.NoError(t, lap.SetTime("start_time", start.Add(offset)))
	require.NoError(t, lap.SetFloat("total_elapsed_time", secs.Seconds()))
	require.NoError(t, lap.SetFloat("total_timer_time", secs.Seconds()))
	lap.SetTimestamp(start.Add(offset + secs))
	for name, v := range values {
		require.NoError(t, lap.SetFloat(name, v))
	}
	return lap
}

func float(t *testing.T, m *message.Message, name string) float64 {
	t.Helper()
	v, ok := m.Float(name)
	require.True(t, ok, "field %s missing", name)
	return v
}

func TestMergeLaps(t *testing.T) {
	first := newLap(t, 0, time.Minute, map[string]float64{
		"total_distance":     200,
		"total_calories":     15,
		"avg_heart_rate":     140,
		"max_heart_rate":     150,
		"min_heart_rate":     120,
		"avg_speed":          3.0,
		"max_speed":          3.6,
		"start_position_lat": 100000,
		"end_position_lat":   200000,
		"first_length_index": 0,
	})
	require.NoError(t, message.Set(first, "sport", "running", message.Pretty))
	require.NoError(t, message.Set(first, "message_index", uint64(0), message.Raw))

	second := newLap(t, time.Minute, 2*time.Minute, map[string]float64{
		"total_distance":   500,
		"total_calories":   40,
		"avg_heart_rate":   155,
		"max_heart_rate":   170,
		"min_heart_rate":   130,
		"avg_speed":        4.5,
		"max_speed":        5.2,
		"end_position_lat": 300000,
	})
	require.NoError(t, message.Set(second, "sport", "cycling", message.Pretty))
	require.NoError(t, message.Set(second, "message_index", uint64(1), message.Raw))

	merged, err := MergeLaps([]*message.Message{first, second})
	require.NoError(t, err)

	testCases := []struct {
		field string
		want  float64
	}{
		{"total_distance", 700},
		{"total_calories", 55},
		{"avg_heart_rate", 150},
		{"max_heart_rate", 170},
		{"min_heart_rate", 120},
		{"avg_speed", 4.0},
		{"max_speed", 5.2},
		{"total_elapsed_time", 180},
		{"total_timer_time", 180},
		{"start_position_lat", 100000},
		{"end_position_lat", 300000},
		{"message_index", 0},
	}
	for _, tc := range testCases {
		t.Run(tc.field, func(t *testing.T) {
			assert.InDelta(t, tc.want, float(t, merged, tc.field), 1e-9)
		})
	}

	sport, ok := merged.String("sport")
	require.True(t, ok)
	assert.Equal(t, "running", sport)

	got, ok := merged.StartTime()
	require.True(t, ok)
	assert.Equal(t, start, got)
	ts, ok := merged.Timestamp()
	require.True(t, ok)
	assert.Equal(t, start.Add(3*time.Minute), ts)
}

func TestMergeLapsRecomputesSpan(t *testing.T) {
	first := newLap(t, 0, time.Minute, nil)
	second := newLap(t, 90*time.Second, time.Minute, nil)

	merged, err := MergeLaps([]*message.Message{first, second})
	require.NoError(t, err)
	assert.InDelta(t, 150.0, float(t, merged, "total_elapsed_time"), 1e-9)
	assert.InDelta(t, 150.0, float(t, merged, "total_timer_time"), 1e-9)
}

func TestMergeLapsErrors(t *testing.T) {
	_, err := MergeLaps(nil)
	assert.ErrorIs(t, err, ErrNoLaps)

	_, err = SessionFromLaps(nil)
	assert.ErrorIs(t, err, ErrNoLaps)
}

func TestMergeLapsBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 20; round++ {
		n := 2 + rng.Intn(6)
		laps := make([]*message.Message, n)
		var offset time.Duration
		for i := range laps {
			secs := time.Duration(30+rng.Intn(600)) * time.Second
			laps[i] = newLap(t, offset, secs, map[string]float64{
				"avg_heart_rate":  float64(100 + rng.Intn(80)),
				"max_heart_rate":  float64(150 + rng.Intn(50)),
				"min_heart_rate":  float64(60 + rng.Intn(40)),
				"avg_speed":       float64(rng.Intn(8000)) / 1000,
				"max_temperature": float64(rng.Intn(35)),
			})
			offset += secs
		}

		merged, err := MergeLaps(laps)
		require.NoError(t, err)

		for _, rule := range LapRules {
			if rule.Method != Max && rule.Method != Min && rule.Method != WeightedAvg {
				continue
			}
			lo, hi, seen := 0.0, 0.0, false
			for _, lap := range laps {
				v, ok := lap.Float(rule.Field)
				if !ok {
					continue
				}
				if !seen || v < lo {
					lo = v
				}
				if !seen || v > hi {
					hi = v
				}
				seen = true
			}
			if !seen {
				continue
			}
			got := float(t, merged, rule.Field)
			assert.GreaterOrEqual(t, got, lo, "%s below inputs", rule.Field)
			assert.LessOrEqual(t, got, hi, "%s above inputs", rule.Field)
		}
	}
}

func record(t *testing.T, offset time.Duration, values map[string]float64) *message.Message {
	t.Helper()
	m := message.New(profile.MesgRecord)
	m.SetTimestamp(start.Add(offset))
	for name, v := range values {
		require.NoError(t, m.SetFloat(name, v))
	}
	return m
}

func TestFromSamples(t *testing.T) {
	samples := []*message.Message{
		record(t, 0, map[string]float64{"distance": 10, "speed": 2, "heart_rate": 120, "altitude": 100, "position_lat": 1000, "position_long": 2000}),
		record(t, 10*time.Second, map[string]float64{"distance": 40, "speed": 3, "heart_rate": 130, "altitude": 110}),
		record(t, 20*time.Second, map[string]float64{"distance": 80, "speed": 4, "heart_rate": 140, "altitude": 104, "position_lat": 3000, "position_long": 4000}),
	}

	lap, err := FromSamples(profile.MesgLap, samples)
	require.NoError(t, err)

	testCases := []struct {
		field string
		want  float64
	}{
		{"total_distance", 70},
		{"avg_speed", 3},
		{"max_speed", 4},
		{"avg_heart_rate", 130},
		{"max_heart_rate", 140},
		{"min_heart_rate", 120},
		{"max_altitude", 110},
		{"min_altitude", 100},
		{"total_ascent", 10},
		{"total_descent", 6},
		{"total_elapsed_time", 20},
		{"total_timer_time", 20},
		{"start_position_lat", 1000},
		{"start_position_long", 2000},
		{"end_position_lat", 3000},
		{"end_position_long", 4000},
	}
	for _, tc := range testCases {
		t.Run(tc.field, func(t *testing.T) {
			assert.InDelta(t, tc.want, float(t, lap, tc.field), 1e-6)
		})
	}

	trigger, ok := lap.String("lap_trigger")
	require.True(t, ok)
	assert.Equal(t, "session_end", trigger)

	session, err := FromSamples(profile.MesgSession, samples)
	require.NoError(t, err)
	assert.InDelta(t, 70.0, float(t, session, "total_distance"), 1e-9)
	assert.False(t, session.Has("end_position_lat"))
	event, _ := session.String("event")
	assert.Equal(t, "session", event)

	_, err = FromSamples(profile.MesgLap, nil)
	assert.ErrorIs(t, err, ErrNoSamples)
}

func TestSpeedsBeyondPrimaryField(t *testing.T) {
	t.Run("from samples", func(t *testing.T) {
		samples := []*message.Message{
			record(t, 0, map[string]float64{"speed": 70}),
			record(t, time.Second, map[string]float64{"speed": 70}),
		}
		for _, num := range []uint16{profile.MesgLap, profile.MesgSession} {
			summary, err := FromSamples(num, samples)
			require.NoError(t, err)
			assert.InDelta(t, 70.0, float(t, summary, "avg_speed"), 1e-3)
			assert.InDelta(t, 70.0, float(t, summary, "max_speed"), 1e-3)
		}
	})

	t.Run("merged laps", func(t *testing.T) {
		first := newLap(t, 0, time.Minute, map[string]float64{"avg_speed": 80, "max_speed": 90})
		second := newLap(t, time.Minute, time.Minute, map[string]float64{"avg_speed": 80, "max_speed": 100})

		merged, err := MergeLaps([]*message.Message{first, second})
		require.NoError(t, err)
		assert.InDelta(t, 80.0, float(t, merged, "avg_speed"), 1e-3)
		assert.InDelta(t, 100.0, float(t, merged, "max_speed"), 1e-3)
		_, def, _ := merged.FieldByName("avg_speed")
		assert.Equal(t, "enhanced_avg_speed", def.Name)

		session, err := SessionFromLaps([]*message.Message{first, second})
		require.NoError(t, err)
		assert.InDelta(t, 80.0, float(t, session, "avg_speed"), 1e-3)
	})
}

func TestSessionFromLaps(t *testing.T) {
	first := newLap(t, 0, time.Minute, map[string]float64{"total_distance": 250, "avg_heart_rate": 150})
	second := newLap(t, time.Minute, time.Minute, map[string]float64{"total_distance": 250, "avg_heart_rate": 160})
	for i, lap := range []*message.Message{first, second} {
		require.NoError(t, message.Set(lap, "message_index", uint64(i+3), message.Raw))
		require.NoError(t, message.Set(lap, "sport", "swimming", message.Pretty))
	}

	session, err := SessionFromLaps([]*message.Message{first, second})
	require.NoError(t, err)

	assert.Equal(t, profile.MesgSession, session.Num)
	assert.InDelta(t, 500.0, float(t, session, "total_distance"), 1e-9)
	assert.InDelta(t, 155.0, float(t, session, "avg_heart_rate"), 1e-9)
	assert.InDelta(t, 120.0, float(t, session, "total_timer_time"), 1e-9)

	numLaps, _ := session.Uint("num_laps")
	assert.Equal(t, uint64(2), numLaps)
	firstLap, _ := session.Uint("first_lap_index")
	assert.Equal(t, uint64(3), firstLap)

	sport, _ := session.String("sport")
	assert.Equal(t, "swimming", sport)
	trigger, _ := session.String("trigger")
	assert.Equal(t, "activity_end", trigger)
	assert.False(t, session.Has("message_index"))
}

func TestActivity(t *testing.T) {
	run := newLap(t, 0, time.Hour, nil)
	session, err := SessionFromLaps([]*message.Message{run})
	require.NoError(t, err)
	require.NoError(t, message.Set(session, "sport", "running", message.Pretty))

	act, err := Activity([]*message.Message{session})
	require.NoError(t, err)

	kind, _ := act.String("type")
	assert.Equal(t, "manual", kind)
	n, _ := act.Uint("num_sessions")
	assert.Equal(t, uint64(1), n)
	assert.InDelta(t, 3600.0, float(t, act, "total_timer_time"), 1e-9)
	ts, ok := act.Timestamp()
	require.True(t, ok)
	assert.Equal(t, start.Add(time.Hour), ts)

	ride := session.Clone()
	require.NoError(t, message.Set(ride, "sport", "cycling", message.Pretty))
	act, err = Activity([]*message.Message{session, ride})
	require.NoError(t, err)
	kind, _ = act.String("type")
	assert.Equal(t, "auto_multi_sport", kind)
	assert.InDelta(t, 7200.0, float(t, act, "total_timer_time"), 1e-9)

	_, err = Activity(nil)
	assert.ErrorIs(t, err, ErrNoSessions)
}

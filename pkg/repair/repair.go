package repair

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ssargent/fitedit/pkg/message"
	"github.com/ssargent/fitedit/pkg/recording"
)

// DefaultMaxSpeed is the sample speed in m/s above which Additive treats a
// record as a spike and drops it.
const DefaultMaxSpeed = 1000.0

var (
	ErrNoSamples       = errors.New("repair: no record samples")
	ErrNoSummaries     = errors.New("repair: no session, lap or activity to back-fill")
	ErrUnknownStrategy = errors.New("repair: unknown strategy")
)

// Options tune the repair strategies. The zero value is usable.
type Options struct {
	// MaxSpeed is the spike threshold in m/s. Zero means DefaultMaxSpeed.
	MaxSpeed float64
	Logger   *slog.Logger
}

func (o Options) maxSpeed() float64 {
	if o.MaxSpeed <= 0 {
		return DefaultMaxSpeed
	}
	return o.MaxSpeed
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// Strategy names a repair strategy.
type Strategy string

const (
	StrategySubtractive Strategy = "subtractive"
	StrategyAdditive    Strategy = "additive"
	StrategyBackfill    Strategy = "backfill"
)

// Strategies lists the known strategies.
var Strategies = []Strategy{StrategySubtractive, StrategyAdditive, StrategyBackfill}

// ParseStrategy resolves a strategy name, ignoring case.
func ParseStrategy(name string) (Strategy, error) {
	s := Strategy(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Strategies {
		if s == known {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// Report describes what a repair did.
type Report struct {
	Strategy Strategy
	// Input and Output count message events.
	Input  int
	Output int
	// Filtered counts samples dropped as speed spikes or for lacking a
	// timestamp.
	Filtered int
	// DistanceAdjusted counts samples whose cumulative distance was shifted.
	DistanceAdjusted int
	// Synthesized names the messages built from samples or laps.
	Synthesized []string
	// Unresolved holds the positions of sessions that could not be matched
	// to laps of their sport.
	Unresolved []int
}

func (r *Report) synthesized(msgs ...*message.Message) {
	for _, m := range msgs {
		r.Synthesized = append(r.Synthesized, m.Name())
	}
}

// LogValue implements slog.LogValuer.
func (r *Report) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("strategy", string(r.Strategy)),
		slog.Int("input", r.Input),
		slog.Int("output", r.Output),
		slog.Int("filtered", r.Filtered),
		slog.Int("distance_adjusted", r.DistanceAdjusted),
		slog.Int("synthesized", len(r.Synthesized)),
		slog.Int("unresolved", len(r.Unresolved)),
	)
}

// Run applies strategy s to rec.
func Run(s Strategy, rec *recording.Recording, opts Options) (*recording.Recording, *Report, error) {
	switch s {
	case StrategySubtractive:
		return Subtractive(rec, opts)
	case StrategyAdditive:
		return Additive(rec, opts)
	case StrategyBackfill:
		return Backfill(rec, opts)
	}
	return nil, nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// expand rewrites compressed timestamp headers as explicit timestamp fields.
// Dropping or reordering messages can change the timestamp a compressed
// header is resolved against.
func expand(rec *recording.Recording) error {
	changed := false
	for _, ev := range rec.Events() {
		if ev.Kind == recording.KindMessage && ev.Message.Compressed {
			ev.Message.Expand()
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return rec.Normalize()
}

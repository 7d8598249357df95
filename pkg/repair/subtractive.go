package repair

import (
	"github.com/ssargent/fitedit/pkg/message"
	"github.com/ssargent/fitedit/pkg/profile"
	"github.com/ssargent/fitedit/pkg/recording"
)

// Kept lists the message types Subtractive retains.
var Kept = map[uint16]bool{
	profile.MesgFileID:         true,
	profile.MesgFileCreator:    true,
	profile.MesgDeviceInfo:     true,
	profile.MesgDeviceSettings: true,
	profile.MesgUserProfile:    true,
	profile.MesgSport:          true,
	profile.MesgSession:        true,
	profile.MesgRecord:         true,
	profile.MesgLap:            true,
	profile.MesgActivity:       true,
}

// Subtractive drops every message whose type is not in Kept, preserving the
// order and multiplicity of the rest. Multi-sport structure survives.
// Applying it twice gives the same log as applying it once.
func Subtractive(rec *recording.Recording, opts Options) (*recording.Recording, *Report, error) {
	if rec.State() == recording.IndicesAuthoritative {
		return nil, nil, recording.ErrIndicesAuthoritative
	}
	report := &Report{Strategy: StrategySubtractive, Input: rec.MessageCount()}

	out := rec.Filter(func(m *message.Message) bool { return Kept[m.Num] })
	if err := expand(out); err != nil {
		return nil, nil, err
	}

	report.Output = out.MessageCount()
	opts.logger().Debug("subtractive repair", "report", report)
	return out, report, nil
}
